package cli

import (
	"github.com/spf13/cobra"
)

const completionHelp = `Print a completion script for the given shell.

  bash:       source <(spaghetti completion bash)
  zsh:        spaghetti completion zsh > "${fpath[1]}/_spaghetti"
  fish:       spaghetti completion fish > ~/.config/fish/completions/spaghetti.fish
  powershell: spaghetti completion powershell | Out-String | Invoke-Expression

Package patterns complete as directories; --graph completes JSON files.`

// completionCommand prints shell completion scripts to the command's output.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion bash|zsh|fish|powershell",
		Short:                 "Generate shell completion scripts",
		Long:                  completionHelp,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completePackages completes package pattern arguments as directories.
func completePackages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// registerLoadCompletions wires completions for the flags of loadOpts.
func registerLoadCompletions(cmd *cobra.Command) {
	cmd.ValidArgsFunction = completePackages
	_ = cmd.RegisterFlagCompletionFunc("graph", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = cmd.RegisterFlagCompletionFunc("dir", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}
