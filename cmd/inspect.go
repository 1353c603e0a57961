package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/ui"
)

func inspectCmd() *cobra.Command {
	var list bool
	var kind string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "inspect",
		Aliases: []string{"stats", "info"},
		Short:   "Show node and link counts for the ontology",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, name, err := loadModel(cfg)
			record("inspect", name, err, "")
			if err != nil {
				return err
			}
			st := m.GetStats()

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			ui.Banner(name)
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-14s", "Nodes"), st.Nodes)
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-14s", "Links"), st.Links)
			fmt.Printf("  %s  %d\n", ui.Brand.Sprintf("%-14s", "Properties"), st.Properties)
			fmt.Println()
			fmt.Printf("  %s  %d\n", ui.Kind(string(graph.KindClass))+"      ", st.Classes)
			fmt.Printf("  %s  %d\n", ui.Kind(string(graph.KindIndividual)), st.Individuals)
			fmt.Printf("  %s  %d\n", ui.Kind(string(graph.KindUnknown))+"    ", st.Unknown)

			if !list && kind == "" {
				return nil
			}

			nodes := m.Nodes()
			sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Label < nodes[j].Label })
			var rows [][]string
			for _, n := range nodes {
				if kind != "" && string(n.Kind) != kind {
					continue
				}
				rows = append(rows, []string{n.Label, string(n.Kind), strconv.Itoa(m.Degree(n.ID)), ui.Truncate(n.ID, 60)})
			}
			fmt.Println()
			if len(rows) == 0 {
				fmt.Printf("  No %s nodes\n", kind)
				return nil
			}
			ui.Table([]string{"Label", "Kind", "Degree", "ID"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List every node")
	cmd.Flags().StringVar(&kind, "kind", "", "List only nodes of this kind (Class, Individual, Unknown)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output counts as JSON")
	return cmd
}
