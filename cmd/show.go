package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/interact"
	"github.com/msalah0e/ontoview/internal/ui"
)

func showCmd() *cobra.Command {
	var jsonOutput bool
	var snippet bool

	cmd := &cobra.Command{
		Use:               "show <term>",
		Short:             "Show a node with its attributes and relations",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: nodeCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, _, err := loadModel(cfg)
			if err != nil {
				return err
			}

			n, tier := interact.New(m, nil, nil).Lookup(args[0])
			if tier == interact.TierNone {
				err := fmt.Errorf("no node matches %q", args[0])
				record("show", args[0], err, "")
				return err
			}
			record("show", n.ID, nil, tier.String())

			if jsonOutput {
				v, err := m.Describe(n.ID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}

			out, err := graph.RenderShow(m, n.ID, ui.Paint(ui.Brand), ui.Paint(ui.Subtle), ui.Paint(ui.Info))
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Print(out)
			if snippet && n.Snippet != "" {
				fmt.Println()
				for _, line := range strings.Split(n.Snippet, "\n") {
					fmt.Printf("  %s\n", ui.Subtle.Sprint(line))
				}
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the side-panel view as JSON")
	cmd.Flags().BoolVar(&snippet, "source", false, "Print the node's source markup")
	return cmd
}

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find nodes by label or id",
		Long: `Find nodes by label or id, ignoring case.

The first row is the node the viewer would select: an exact label match wins,
then an exact id match, then the first label containing the text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, _, err := loadModel(cfg)
			if err != nil {
				return err
			}

			text := args[0]
			best, tier := interact.New(m, nil, nil).Lookup(text)
			record("search", text, nil, tier.String())
			if tier == interact.TierNone {
				fmt.Println("  Node not found.")
				return nil
			}

			rows := [][]string{{best.Label, string(best.Kind), tier.String(), ui.Truncate(best.ID, 60)}}
			q := strings.ToLower(text)
			for _, n := range m.Nodes() {
				if n.ID == best.ID {
					continue
				}
				if limit > 0 && len(rows) >= limit {
					break
				}
				if strings.Contains(strings.ToLower(n.Label), q) || strings.Contains(strings.ToLower(n.ID), q) {
					rows = append(rows, []string{n.Label, string(n.Kind), "", ui.Truncate(n.ID, 60)})
				}
			}
			ui.Table([]string{"Label", "Kind", "Match", "ID"}, rows)
			fmt.Printf("\n  %d results\n", len(rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results")
	return cmd
}
