package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ui.Subtle.Printf("# %s\n", config.Path())
			if err := cfg.Validate(); err != nil {
				ui.Warn.Printf("# %s %v\n", ui.WarnIcon(), err)
			}
			return toml.NewEncoder(os.Stdout).Encode(cfg)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration if none exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := os.Stat(config.Path()); err == nil {
					fmt.Printf("  Config already exists at %s\n", config.Path())
					return nil
				}
				err := config.EnsureExists()
				record("config init", config.Path(), err, "")
				if err != nil {
					return err
				}
				ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), config.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(config.Path())
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := loadConfig(); err != nil {
					return err
				}
				ui.Good.Printf("  %s %s is valid\n", ui.StatusIcon(true), config.Path())
				return nil
			},
		},
	)
	return cmd
}
