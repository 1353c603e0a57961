package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/docs"
	"github.com/msalah0e/ontoview/internal/ui"
)

func docsCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate a reference page for the ontology",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			markup, name, err := readOntology(cfg)
			if err != nil {
				return err
			}

			d, err := docs.Generate(markup)
			if err == nil {
				var out []byte
				out, err = d.Render(format)
				if err == nil {
					err = write(output, out)
				}
			}
			record("docs", name, err, format)
			if err != nil {
				return err
			}
			if output != "" {
				ui.Good.Printf("  %s Wrote %s (%d classes, %d properties, %d individuals)\n",
					ui.StatusIcon(true), output, len(d.Classes), len(d.ObjectProperties)+len(d.DataProperties), len(d.Individuals))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

// write sends data to path, or stdout when path is empty.
func write(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
