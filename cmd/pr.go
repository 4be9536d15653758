package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmcampanini/ghui/internal/github"
	"github.com/jmcampanini/ghui/internal/queries"
	"github.com/spf13/cobra"
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Work with a single pull request",
}

var (
	prViewFzfFlag  bool
	prViewRepoFlag string

	prUpdateRebaseFlag bool
	prUpdateRepoFlag   string
)

var prViewCmd = &cobra.Command{
	Use:   "view <number>",
	Short: "Show the description of a pull request",
	Long: `Show the description of a pull request.

With --fzf, errors are printed to stdout instead of returning an error code,
making it suitable for use in fzf preview panes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPRView,
}

var prUpdateBranchCmd = &cobra.Command{
	Use:   "update-branch <number>",
	Short: "Update a pull request branch with its base branch",
	Long: `Update a pull request branch with the latest changes of its base branch.

The base branch is merged into the head branch, or with --rebase the head
branch is rebased onto it.`,
	Args: cobra.ExactArgs(1),
	RunE: runPRUpdateBranch,
}

func init() {
	prViewCmd.Flags().BoolVar(&prViewFzfFlag, "fzf", false, "Print errors to stdout instead of returning error (for fzf preview)")
	prViewCmd.Flags().StringVarP(&prViewRepoFlag, "repo", "R", "", "Repository as owner/name (default: current directory)")
	prCmd.AddCommand(prViewCmd)

	prUpdateBranchCmd.Flags().BoolVar(&prUpdateRebaseFlag, "rebase", false, "Rebase the head branch instead of merging the base branch")
	prUpdateBranchCmd.Flags().StringVarP(&prUpdateRepoFlag, "repo", "R", "", "Repository as owner/name (default: current directory)")
	prCmd.AddCommand(prUpdateBranchCmd)

	rootCmd.AddCommand(prCmd)
}

// parsePRNumber accepts "123" and "#123".
func parsePRNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid PR number: %s", s)
	}
	return n, nil
}

// handleViewError handles errors based on the --fzf flag.
// In fzf mode, prints error to stdout and returns nil.
func handleViewError(cmd *cobra.Command, err error) error {
	if prViewFzfFlag {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", err)
		return nil
	}
	return err
}

func runPRView(cmd *cobra.Command, args []string) error {
	number, err := parsePRNumber(args[0])
	if err != nil {
		return handleViewError(cmd, err)
	}

	var repo *github.RepoRef
	if prViewRepoFlag != "" {
		ref, err := github.ParseRepoRef(prViewRepoFlag)
		if err != nil {
			return handleViewError(cmd, err)
		}
		repo = &ref
	}

	a, err := newApp(cmd)
	if err != nil {
		return handleViewError(cmd, err)
	}

	body, err := a.queries.PullRequestDescription(number, repo).Get(cmd.Context())
	if err != nil {
		return handleViewError(cmd, fmt.Errorf("failed to get description of #%d: %w", number, err))
	}
	return outputDescription(cmd, body)
}

func outputDescription(cmd *cobra.Command, body string) error {
	if strings.TrimSpace(body) == "" {
		body = "No description provided."
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(body, "\n"))
	return err
}

func runPRUpdateBranch(cmd *cobra.Command, args []string) error {
	number, err := parsePRNumber(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	mode := github.UpdateModeMerge
	if prUpdateRebaseFlag {
		mode = github.UpdateModeRebase
	}
	return updateBranch(cmd, a.queries, prUpdateRepoFlag, number, mode)
}

func updateBranch(cmd *cobra.Command, q *queries.Client, repoFlag string, number int, mode github.UpdateMode) error {
	ctx := cmd.Context()

	repo, err := resolveRepo(ctx, q, repoFlag)
	if err != nil {
		return err
	}

	outcome := q.UpdateBranch(ctx, github.UpdateBranchRequest{Mode: mode, Number: number, Repo: repo})
	msg := outcome.Message()
	if outcome.Err != nil {
		return fmt.Errorf("%s: %w", msg, outcome.Err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}
