package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/ui"
)

func exportCmd() *cobra.Command {
	var format string
	var output string
	var open bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as JSON, Graphviz DOT or a standalone HTML viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, name, err := loadModel(cfg)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "json":
				data, err = m.ExportJSON()
				data = append(data, '\n')
			case "dot":
				data = []byte(m.ExportDOT())
			case "html":
				data = []byte(m.ExportHTML(graph.HTMLOptions{Title: name}))
			default:
				err = fmt.Errorf("unknown format %q (use json, dot, or html)", format)
			}
			if err == nil && open {
				if format != "html" {
					err = fmt.Errorf("--open needs --format html")
				} else if output == "" {
					output = filepath.Join(os.TempDir(), "ontoview-"+name+".html")
				}
			}
			if err == nil {
				err = write(output, data)
			}
			record("export", name, err, format)
			if err != nil {
				return err
			}

			if open {
				if err := openBrowser(output); err != nil {
					fmt.Printf("  HTML written to: %s\n", output)
					fmt.Println("  Open it in your browser to see the graph")
					return nil
				}
				st := m.GetStats()
				ui.Good.Printf("  %s Opened viewer (%d nodes, %d links)\n", ui.StatusIcon(true), st.Nodes, st.Links)
				ui.Subtle.Printf("  %s\n", output)
			} else if output != "" {
				ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json, dot, or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&open, "open", false, "Open the HTML viewer in a browser")
	return cmd
}

func openBrowser(target string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", target)
	case "linux":
		c = exec.Command("xdg-open", target)
	default:
		c = exec.Command("cmd", "/c", "start", target)
	}
	return c.Start()
}
