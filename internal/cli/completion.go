package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. Besides subcommands and
// flags, the generated scripts complete unit paths declared in the project.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell. Unit arguments of install,
update and propagate complete to the units declared in the nearest app.toml.

  $ source <(hydrate completion bash)
  $ hydrate completion zsh > "${fpath[1]}/_hydrate"
  $ hydrate completion fish > ~/.config/fish/completions/hydrate.fish
  PS> hydrate completion powershell | Out-String | Invoke-Expression

Start a new shell afterwards for the change to take effect.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
