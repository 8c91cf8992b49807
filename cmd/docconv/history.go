// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/history"
	"github.com/pdiddy/docconv/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded operations",
	Long: `History lists operations recorded by the engine when history.enabled is
true. Entries hold formats, strategy, sizes, timing, and error kind; file names
and contents are never stored.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("operation", "", "filter by operation: convert, merge, split, compress")
	historyCmd.Flags().String("status", "", "filter by status: success, error")
	historyCmd.Flags().Int("limit", 50, "maximum entries to show")
	historyCmd.Flags().Bool("summary", false, "show per-operation totals instead of entries")
	historyCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		rows, err := store.Summarize(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %10s %8s\n", "OPERATION", "SUCCEEDED", "FAILED")
		for _, r := range rows {
			fmt.Printf("%-10s %10d %8d\n", r.Operation, r.Succeeded, r.Failed)
		}
		return nil
	}

	op, _ := cmd.Flags().GetString("operation")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), history.QueryOptions{
		Operation: types.Operation(op),
		Status:    types.Status(status),
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return history.WriteJSON(os.Stdout, entries)
	case "yaml":
		return history.WriteYAML(os.Stdout, entries)
	case "table":
		printHistory(entries)
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func printHistory(entries []types.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Println("No operations recorded.")
		return
	}
	fmt.Printf("%-20s %-9s %-6s %-6s %-8s %10s %10s  %s\n",
		"TIME", "OPERATION", "FROM", "TO", "STATUS", "IN", "OUT", "DURATION")
	for _, e := range entries {
		status := string(e.Status)
		if e.ErrorKind != "" {
			status += " (" + string(e.ErrorKind) + ")"
		}
		fmt.Printf("%-20s %-9s %-6s %-6s %-8s %10d %10d  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Operation,
			e.SourceFormat, e.TargetFormat, status,
			e.InputBytes, e.OutputBytes, e.Duration)
	}
}
