package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/dyngrid/internal/platform/tui"
	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

var (
	flagRunsLimit int
	flagRunsTUI   bool
	flagRunID     int64
)

var runsCmd = &cobra.Command{
	Use:   "runs [model]",
	Short: "Show recorded runs",
	Long: `Display the run ledger, newest first.

Runs are recorded with 'dyngrid run --record' and by the menu and SSH
server. --id shows the per-step populations of one run.

Examples:
  dyngrid runs
  dyngrid runs life --limit 5
  dyngrid runs --id 12
  dyngrid runs --tui`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Number of runs to show")
	runsCmd.Flags().BoolVar(&flagRunsTUI, "tui", false, "Browse runs in a table view")
	runsCmd.Flags().Int64Var(&flagRunID, "id", 0, "Show step statistics of one run")
}

func runRuns(_ *cobra.Command, args []string) error {
	model := ""
	if len(args) == 1 {
		model = args[0]
		if !registry.Exists(model) {
			return fmt.Errorf("unknown model %q (run 'dyngrid list' to see available models)", model)
		}
	}

	store, err := openStore(true)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagRunsTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		_, err := tui.RunRuns(store, model, width, height)
		return err
	}
	if flagRunID != 0 {
		return printRun(store, flagRunID)
	}

	runs, err := store.Runs(model, flagRunsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Use 'dyngrid run <model> --record' to record one.")
		return nil
	}

	fmt.Printf("  %-5s  %-12s  %-9s  %-7s  %-10s  %-16s  %s\n", "ID", "Model", "Status", "Steps", "Shape", "Started", "Time")
	fmt.Printf("  %-5s  %-12s  %-9s  %-7s  %-10s  %-16s  %s\n", "--", "-----", "------", "-----", "-----", "-------", "----")
	for _, r := range runs {
		fmt.Printf("  %-5d  %-12s  %-9s  %-7d  %-10s  %-16s  %s\n",
			r.ID, r.Model, r.Status, r.StepsRun, storage.FormatShape(r.Shape),
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Duration.Round(10*time.Millisecond))
	}

	stats, err := store.ModelStats()
	if err == nil {
		fmt.Println()
		for _, info := range registry.List() {
			if st, ok := stats[info.ID]; ok && (model == "" || model == info.ID) {
				fmt.Printf("%s: %d runs, %d steps, %.0f avg, %d failed\n",
					info.ID, st.RunsCount, st.TotalSteps, st.AvgSteps, st.Failed)
			}
		}
	}
	return nil
}

func printRun(store *storage.Store, id int64) error {
	r, err := store.RunByID(id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("run %d not found", id)
	}

	fmt.Printf("Run %d - %s (%s)\n", r.ID, r.Model, r.Status)
	fmt.Printf("  shape %s, overflow %s, seed %d, %d/%d steps, %d replicates\n",
		storage.FormatShape(r.Shape), r.Overflow, r.Seed, r.StepsRun, r.Steps, r.Replicates)
	if r.Rule != "" {
		fmt.Printf("  rule %s\n", r.Rule)
	}
	if r.Error != "" {
		fmt.Printf("  error: %s\n", r.Error)
	}
	fmt.Println()

	stats, err := store.StepStats(id, 0)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No step statistics recorded.")
		return nil
	}
	fmt.Printf("  %-6s  %-10s  %-10s  %s\n", "Step", "Grid", "Population", "Total")
	for _, st := range stats {
		fmt.Printf("  %-6d  %-10s  %-10d  %.4g\n", st.Step, st.Grid, st.Population, st.Total)
	}
	return nil
}
