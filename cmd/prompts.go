package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/assist"
	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/ui"
)

func promptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prompts",
		Aliases: []string{"prompt"},
		Short:   "Show or override the assistant's system prompts",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("assistant prompts")

			var rows [][]string
			for _, t := range assist.Templates() {
				source := "built-in"
				if t.Override {
					source = "override"
				}
				vars := "-"
				if len(t.Variables) > 0 {
					vars = strings.Join(t.Variables, ", ")
				}
				rows = append(rows, []string{string(t.Mode), source, vars, ui.Truncate(strings.Join(strings.Fields(t.Content), " "), 50)})
			}
			ui.Table([]string{"Mode", "Source", "Variables", "Preview"}, rows)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:       "show <mode>",
			Short:     "Print the effective prompt for a mode",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(assist.ModeQuery), string(assist.ModeChat)},
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := assist.LoadTemplate(assist.Mode(args[0]))
				if err != nil {
					return err
				}
				fmt.Println(t.Content)
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <mode> <file>",
			Short:     "Override the prompt for a mode with the contents of a file",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{string(assist.ModeQuery), string(assist.ModeChat)},
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				if !strings.Contains(string(data), "{{ontology}}") {
					ui.Warn.Printf("  %s Prompt has no {{ontology}} placeholder; the document will not be sent\n", ui.WarnIcon())
				}
				err = assist.SaveTemplate(assist.Mode(args[0]), string(data))
				record("prompts set", args[0], err, args[1])
				if err != nil {
					return err
				}
				ui.Good.Printf("  %s Saved %s prompt\n", ui.StatusIcon(true), args[0])
				return nil
			},
		},
	)
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models the gemini backend can use",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			ui.Banner("assistant models")
			var rows [][]string
			for _, m := range assist.Models {
				mark := ""
				if found := assist.FindModel(cfg.Assistant.Model); found != nil && found.ID == m.ID {
					mark = "configured"
				}
				rows = append(rows, []string{m.ID, m.Name, assist.FormatContext(m.Context), mark})
			}
			ui.Table([]string{"ID", "Name", "Context", ""}, rows)
			fmt.Println()
			fmt.Printf("  Backend: %s\n", cfg.Assistant.Backend)
			if cfg.Assistant.Backend == "gemini" && os.Getenv(cfg.Assistant.APIKeyEnv) == "" {
				ui.Warn.Printf("  %s %s is not set\n", ui.WarnIcon(), cfg.Assistant.APIKeyEnv)
			}
		},
	}
}
