package cmd

import (
	"fmt"

	"github.com/jmcampanini/ghui/internal/shell"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init <shell>",
	Short: "Generate shell integration functions",
	Long: `Init outputs the ghpr shell function, which lists open pull requests in
fzf with their description as preview and checks out the selected one.

Add to your shell config:
  Fish:  ghui init fish | source
  Zsh:   eval "$(ghui init zsh)"
  Bash:  eval "$(ghui init bash)"`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: shell.Shells,
	RunE:      runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	output, err := shell.NewFunctionGenerator().Generate(args[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), output)
	return err
}
