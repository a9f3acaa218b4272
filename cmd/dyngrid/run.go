package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/dyngrid/internal/config"
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/platform/tui"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/session"
)

var (
	flagConfig     string
	flagSteps      int
	flagReplicates int
	flagView       int
	flagWorkers    int
	flagBands      int
	flagSize       string
	flagOverflow   string
	flagRule       string
	flagPattern    string
	flagDensity    float64
	flagNoSkip     bool
	flagStopEmpty  bool
	flagRecord     bool
	flagPrint      bool
	flagTUI        bool
	flagMode       string
	flagLayer      string
	flagProgress   int
	flagDumpConfig bool
)

var runCmd = &cobra.Command{
	Use:   "run <model>",
	Short: "Run a model",
	Long: `Run the specified model.

Without --tui the run is headless: progress is logged and --print shows
the final frame. With --tui the grid is drawn in the terminal while it
runs. With several replicates viewers, the ledger and --stop-empty see
the per-cell mean over the replicates unless --view-replicate picks one.

Viewer controls:
  Space/P    - Pause / resume
  N          - Advance one step while paused
  +/-        - Change the frame rate
  R          - Run more steps after the run finished
  M          - Switch between block and braille rendering
  Tab        - Next grid layer
  Q/Ctrl+C   - Quit

Settings come from --config, ~/.dyngrid/configs/<model>.yaml,
./configs/<model>.yaml or the built-in defaults, in that order; flags
override them.

Examples:
  dyngrid run life --tui
  dyngrid run life --rule B36/S23 --pattern glider --size 32x32 --tui
  dyngrid run dispersal --steps 200 --replicates 4 --record
  dyngrid run predprey --steps 100 --print --layer prey
  dyngrid run life --dump-config > life.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&flagConfig, "config", "", "Path to custom model config YAML")
	f.IntVar(&flagSteps, "steps", 0, "Number of steps (default from config)")
	f.IntVar(&flagReplicates, "replicates", 0, "Number of replicates (default from config)")
	f.IntVar(&flagView, "view-replicate", -1, "Replicate to show and record (-1 = mean of all)")
	f.IntVar(&flagWorkers, "workers", 0, "Replicates stepped concurrently (0 = all)")
	f.IntVar(&flagBands, "bands", 0, "Row bands per rule pass (0 = single band)")
	f.StringVar(&flagSize, "size", "", "Grid shape, e.g. 64x128 or 16x16x16")
	f.StringVar(&flagOverflow, "overflow", "", "Boundary handling: wrap or remove")
	f.StringVar(&flagRule, "rule", "", "Model rule string, e.g. B3/S23")
	f.StringVar(&flagPattern, "pattern", "", "Initial pattern ID or YAML file")
	f.Float64Var(&flagDensity, "density", 0, "Random seeding density in [0, 1]")
	f.BoolVar(&flagNoSkip, "no-skip", false, "Disable block skipping")
	f.BoolVar(&flagStopEmpty, "stop-empty", false, "Stop once every grid is empty")
	f.BoolVar(&flagRecord, "record", false, "Record the run in the ledger")
	f.BoolVar(&flagPrint, "print", false, "Print the final frame (headless)")
	f.BoolVar(&flagTUI, "tui", false, "Show the run in the terminal viewer")
	f.StringVar(&flagMode, "mode", "", "Render mode: block or braille")
	f.StringVar(&flagLayer, "layer", "", "Grid layer to show")
	f.IntVar(&flagProgress, "progress", 0, "Log every N steps (default steps/10)")
	f.BoolVar(&flagDumpConfig, "dump-config", false, "Print the effective config as YAML and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	modelID := args[0]
	if !registry.Exists(modelID) {
		return fmt.Errorf("unknown model %q (run 'dyngrid list' to see available models)", modelID)
	}

	cfg, err := config.LoadSim(modelID, flagConfig)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, &cfg); err != nil {
		return err
	}
	applyGlobals(cmd, &cfg)
	if !flagTUI && !cmd.Flags().Changed("fps") {
		cfg.FPS = 0
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if flagDumpConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	opts := session.Options{
		Logger:     logger,
		StopEmpty:  flagStopEmpty,
		PatternDir: flagPatternDir,
	}
	if flagRecord {
		store, err := openStore(true)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagTUI {
		return runViewer(ctx, cfg, opts)
	}
	return runHeadless(ctx, cfg, opts)
}

// applyRunFlags overrides config values with the flags that were set.
func applyRunFlags(cmd *cobra.Command, cfg *config.SimConfig) error {
	f := cmd.Flags()
	if f.Changed("steps") {
		cfg.Steps = flagSteps
	}
	if f.Changed("replicates") {
		cfg.Replicates = flagReplicates
	}
	if f.Changed("view-replicate") {
		if flagView < 0 {
			cfg.View = nil
		} else {
			v := flagView
			cfg.View = &v
		}
	}
	if f.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if f.Changed("bands") {
		cfg.Bands = flagBands
	}
	if flagSize != "" {
		shape, err := parseSize(flagSize)
		if err != nil {
			return err
		}
		cfg.Shape = shape
	}
	if flagOverflow != "" {
		cfg.Overflow = flagOverflow
	}
	if flagRule != "" {
		cfg.Rule = flagRule
	}
	if f.Changed("pattern") {
		cfg.Init.Pattern = flagPattern
		if !f.Changed("density") {
			cfg.Init.Density = 0
		}
	}
	if f.Changed("density") {
		cfg.Init.Density = flagDensity
	}
	if flagNoSkip {
		skip := false
		cfg.BlockSkip = &skip
	}
	if flagMode != "" {
		cfg.Display.Mode = flagMode
	}
	if flagLayer != "" {
		cfg.Display.Layer = flagLayer
	}
	return nil
}

// parseSize parses "64x128" style shapes.
func parseSize(s string) ([]int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad size %q", s)
		}
		shape[i] = n
	}
	return shape, nil
}

func runViewer(ctx context.Context, cfg config.SimConfig, opts session.Options) error {
	sess, err := session.New(cfg, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}
	mode, err := tui.ParseRenderMode(cfg.Display.Mode)
	if err != nil {
		return err
	}

	return tui.Run(ctx, sess, tui.ViewerOptions{
		Steps:  cfg.Steps,
		Mode:   mode,
		Cutoff: cfg.Display.Cutoff,
		Layer:  cfg.Display.Layer,
		Width:  width,
		Height: height,
	})
}

func runHeadless(ctx context.Context, cfg config.SimConfig, opts session.Options) error {
	every := flagProgress
	if every <= 0 {
		every = max(cfg.Steps/10, 1)
	}

	frames := output.NewArray(1)
	progress := output.SinkFunc(func(s output.Snapshot) error {
		if s.Step%every != 0 || s.Final {
			return nil
		}
		kv := []any{"step", s.Step}
		for i, name := range s.Names {
			kv = append(kv, name, s.Population(i))
		}
		logger.Info("progress", kv...)
		return nil
	})
	opts.Sinks = append(opts.Sinks, progress, frames)

	sess, err := session.New(cfg, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	logger.Info("running",
		"model", cfg.Model,
		"shape", cfg.Shape,
		"steps", cfg.Steps,
		"replicates", cfg.Replicates,
		"seed", cfg.Seed,
		"run", sess.RunID(),
	)

	started := time.Now()
	err = sess.Run(ctx, cfg.Steps)
	elapsed := time.Since(started)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted", "step", sess.Timestep())
	case err != nil:
		return err
	case sess.Timestep() < cfg.Steps:
		logger.Info("stopped early", "step", sess.Timestep(), "elapsed", elapsed.Round(time.Millisecond))
	default:
		logger.Info("finished", "steps", sess.Timestep(), "elapsed", elapsed.Round(time.Millisecond))
	}

	if last, ok := frames.Latest(); flagPrint && ok {
		printFrame(last, cfg.Display)
	}
	return nil
}

// printFrame writes one layer of s as plain text.
func printFrame(s output.Snapshot, d config.DisplayConfig) {
	i := 0
	for k, name := range s.Names {
		if name == d.Layer {
			i = k
		}
	}
	mode, err := tui.ParseRenderMode(d.Mode)
	if err != nil {
		mode = tui.ModeBlock
	}

	p := tui.PlaneOf(s.Layers[i], s.Shape)
	p.Cutoff = d.Cutoff
	w, h := p.RuneSize(mode)
	screen := core.NewScreen(w, h)
	tui.DrawPlane(screen, core.NewRect(0, 0, w, h), p, mode)

	fmt.Printf("%s  step %d  pop %d  total %.4g\n", s.Names[i], s.Step, s.Population(i), s.Total(i))
	fmt.Println(screen.String())
}
