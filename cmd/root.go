package cmd

import (
	"context"
	"os"
	"os/signal"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "n/a"

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "ghui",
	Short: "Browse GitHub pull requests and issues from the terminal",
	Long: `ghui lists pull requests and issues of a GitHub repository by driving the gh CLI.

The repository is taken from --repo or, when omitted, from the git repository
of the current directory. gh must be installed and authenticated.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			clog.SetLevel(clog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug output to stderr")
}

// Execute runs the root command. An interrupt cancels in-flight work.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
