package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dyngrid/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available models",
	Long:  `Shows a list of all models registered with dyngrid.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	models := registry.List()

	if len(models) == 0 {
		fmt.Println("No models available.")
		return
	}

	fmt.Println("Available models:")
	fmt.Println()

	// Calculate column widths
	maxIDLen, maxTitleLen := 2, 5
	for _, m := range models {
		maxIDLen = max(maxIDLen, len(m.ID))
		maxTitleLen = max(maxTitleLen, len(m.Title))
	}

	fmt.Printf("  %-*s  %-*s  %s\n", maxIDLen, "ID", maxTitleLen, "Title", "Layers")
	fmt.Printf("  %-*s  %-*s  %s\n", maxIDLen, "--", maxTitleLen, "-----", "------")

	for _, m := range models {
		fmt.Printf("  %-*s  %-*s  %s\n", maxIDLen, m.ID, maxTitleLen, m.Title, strings.Join(m.Layers, ", "))
		if m.Description != "" {
			fmt.Printf("  %-*s  %s\n", maxIDLen, "", m.Description)
		}
	}

	fmt.Println()
	fmt.Println("Run 'dyngrid run <id>' to run a model.")
}
