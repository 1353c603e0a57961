package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/activity"
	"github.com/msalah0e/ontoview/internal/ui"
)

func historyCmd() *cobra.Command {
	var count int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log", "activity"},
		Short:   "Show recently run commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := activity.Read(count)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Println("  No history recorded yet.")
				return nil
			}
			ui.Banner("history")
			printEntries(entries)
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")

	cmd.AddCommand(historySearchCmd(), historyClearCmd())
	return cmd
}

func historySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search history entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := activity.Search(args[0], 50)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return nil
			}
			ui.Banner("history search")
			printEntries(results)
			fmt.Printf("\n  %d results\n", len(results))
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := activity.Clear(); err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			ui.Good.Printf("  %s History cleared\n", ui.StatusIcon(true))
			return nil
		},
	}
}

func printEntries(entries []activity.Entry) {
	var rows [][]string
	for _, e := range entries {
		status := ui.StatusIcon(!e.Failed)
		rows = append(rows, []string{
			e.Timestamp.Local().Format("Jan 02 15:04"),
			e.Action,
			ui.Truncate(e.Target, 24),
			ui.Truncate(e.Details, 36),
			status,
		})
	}
	ui.Table([]string{"Time", "Action", "Target", "Details", ""}, rows)
}
