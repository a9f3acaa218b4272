package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dyngrid/internal/patterns"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List initial-state patterns",
	Long: `Shows the built-in patterns and those found under --patterns.

A pattern is stamped in the middle of a model's first grid with
'dyngrid run <model> --pattern <id>'. A path to a YAML file works too.`,
	RunE: runPatterns,
}

func runPatterns(_ *cobra.Command, _ []string) error {
	printPatterns("Built-in patterns", patterns.Builtin())

	if _, err := os.Stat(flagPatternDir); err != nil {
		return nil
	}
	ps, err := patterns.NewLoader(flagPatternDir).LoadAll()
	if err != nil {
		return err
	}
	fmt.Println()
	printPatterns(fmt.Sprintf("Patterns in %s", flagPatternDir), ps)
	return nil
}

func printPatterns(title string, ps []*patterns.Pattern) {
	fmt.Println(title + ":")
	fmt.Println()
	if len(ps) == 0 {
		fmt.Println("  (none)")
		return
	}

	maxIDLen := 2
	for _, p := range ps {
		maxIDLen = max(maxIDLen, len(p.ID))
	}
	for _, p := range ps {
		fmt.Printf("  %-*s  %-10s  %s\n", maxIDLen, p.ID, storage.FormatShape(p.Size), p.Name)
	}
}
