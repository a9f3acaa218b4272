package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/platform/tui"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/session"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagShared      string
	flagServeSteps  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dyngrid SSH server",
	Long: `Start an SSH server that lets users connect and watch simulations.

By default each SSH connection gets its own menu and runs its own
sessions; a run stops when its connection closes. With --shared the
server runs one session and every connection watches it read-only.
Runs are recorded in the server's ledger.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.dyngrid/host_key

Examples:
  dyngrid serve                           # Listen on :23234 with auto-generated key
  dyngrid serve --addr :2222              # Listen on port 2222
  dyngrid serve --shared predprey         # Everyone watches one run
  dyngrid serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "addr", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagShared, "shared", "", "Run one shared session of this model")
	serveCmd.Flags().IntVar(&flagServeSteps, "steps", 0, "Steps per run segment (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.Store = store
	cfg.Logger = logger
	cfg.Launch = launcher(cmd, store)
	if flagServeSteps > 0 {
		cfg.Steps = flagServeSteps
	}

	if flagShared != "" {
		if !registry.Exists(flagShared) {
			return fmt.Errorf("unknown model %q (run 'dyngrid list' to see available models)", flagShared)
		}
		simCfg, err := config.LoadSim(flagShared, "")
		if err != nil {
			return err
		}
		applyGlobals(cmd, &simCfg)
		if flagServeSteps == 0 {
			cfg.Steps = simCfg.Steps
		}
		shared, err := session.New(simCfg, session.Options{
			Store:      store,
			Logger:     logger,
			PatternDir: flagPatternDir,
			Buffer:     4,
		})
		if err != nil {
			return err
		}
		cfg.Shared = shared
		if mode, err := tui.ParseRenderMode(simCfg.Display.Mode); err == nil {
			cfg.Viewer.Mode = mode
		}
		cfg.Viewer.Cutoff = simCfg.Display.Cutoff
		cfg.Viewer.Layer = simCfg.Display.Layer
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting dyngrid SSH server on %s\n", cfg.Address)
	fmt.Printf("Connect with: ssh localhost -p %s\n", port(cfg.Address))
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}

// port returns the port part of a host:port address.
func port(addr string) string {
	if _, p, err := net.SplitHostPort(addr); err == nil {
		return p
	}
	return addr
}
