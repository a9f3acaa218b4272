// dyngrid runs grid-based cellular automata and dispersal models in the
// terminal.
//
// Usage:
//
//	dyngrid list               - List available models
//	dyngrid run <model>        - Run a model headless or with --tui
//	dyngrid menu               - Pick models interactively
//	dyngrid patterns           - List initial-state patterns
//	dyngrid runs [model]       - Show recorded runs
//	dyngrid serve              - Start SSH server for remote viewing
//
// Global flags:
//
//	--fps <rate>        - Frame rate for the viewer (0 = unpaced)
//	--seed <value>      - RNG seed for reproducible runs
//	--db <path>         - Run ledger path (default: ~/.dyngrid/runs.db)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/storage"

	// Import models to register them
	_ "github.com/vovakirdan/dyngrid/internal/models/briansbrain"
	_ "github.com/vovakirdan/dyngrid/internal/models/dispersal"
	_ "github.com/vovakirdan/dyngrid/internal/models/life"
	_ "github.com/vovakirdan/dyngrid/internal/models/predprey"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       uint64
	flagDBPath     string
	flagLogLevel   string
	flagPatternDir string

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "dyngrid",
	})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dyngrid",
	Short: "dyngrid - grid simulations in your terminal",
	Long: `dyngrid runs cellular automata, dispersal and predator-prey models
on N-dimensional grids and shows them in the terminal.

Available commands:
  list      - Show all available models
  run       - Run a model headless or in the viewer
  menu      - Interactive model picker
  patterns  - Show initial-state patterns
  runs      - View the run ledger
  serve     - Start SSH server for remote viewing

Examples:
  dyngrid list
  dyngrid run life --tui
  dyngrid run dispersal --steps 200 --record
  dyngrid runs life
  dyngrid serve --addr :2222`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Viewer frame rate (default from the model config)")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = config seed, or time based)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.dyngrid/runs.db", "Path to the run ledger")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagPatternDir, "patterns", "patterns", "Directory searched for pattern files")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
}

// applyGlobals applies --seed and --fps to a loaded config. A zero seed
// everywhere becomes a time-based one so every run is recorded with the
// seed that reproduces it.
func applyGlobals(cmd *cobra.Command, cfg *config.SimConfig) {
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS = flagFPS
	}
}

// openStore opens the run ledger, or returns nil with a warning when it
// cannot be opened and the caller can go on without it.
func openStore(required bool) (*storage.Store, error) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		if required {
			return nil, fmt.Errorf("opening run ledger: %w", err)
		}
		logger.Warn("could not open run ledger", "path", flagDBPath, "error", err)
		return nil, nil
	}
	return store, nil
}
