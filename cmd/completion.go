package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msalah0e/ontoview/internal/config"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(ontoview completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(ontoview completion zsh)"

  # Fish
  ontoview completion fish | source

  # PowerShell
  ontoview completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}

// nodeCompletionFunc completes node labels from the current document.
func nodeCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	m, _, err := loadModel(config.Load())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var completions []string
	for _, n := range m.Nodes() {
		completions = append(completions, n.Label+"\t"+string(n.Kind))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
