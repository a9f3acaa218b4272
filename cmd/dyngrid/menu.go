package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/platform/tui"
	"github.com/vovakirdan/dyngrid/internal/session"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick models from an interactive menu",
	Long: `Start dyngrid in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to run a model. Runs are
recorded in the ledger when it can be opened. Esc in the viewer stops
the run and returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Run model
  Tab          - Recorded runs
  Q            - Quit

Examples:
  dyngrid menu
  dyngrid menu --fps 30
  dyngrid menu --db ./runs.db`,
	RunE: runMenu,
}

func runMenu(cmd *cobra.Command, _ []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}
	rc := core.DefaultConfig()
	rc.ScreenW, rc.ScreenH = width, height

	server := tui.DefaultSSHServerConfig()
	server.Store = store
	server.Launch = launcher(cmd, store)
	server.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tui.RunMenu(ctx, server, rc)
}

// launcher builds sessions for models picked in a menu, from the model's
// config and the global flags.
func launcher(cmd *cobra.Command, store *storage.Store) tui.LaunchFunc {
	return func(modelID string) (*session.Session, error) {
		cfg, err := config.LoadSim(modelID, "")
		if err != nil {
			return nil, err
		}
		applyGlobals(cmd, &cfg)
		return session.New(cfg, session.Options{
			Store:      store,
			Logger:     logger,
			PatternDir: flagPatternDir,
		})
	}
}
