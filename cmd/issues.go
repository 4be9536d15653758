package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jmcampanini/ghui/internal/github"
	"github.com/jmcampanini/ghui/internal/queries"
	"github.com/spf13/cobra"
)

var (
	issuesFzfFlag  bool
	issuesRepoFlag string
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List open issues",
	Long: `List open issues of a repository. Pull requests are left out.

With --fzf, outputs tab-separated format suitable for fzf integration:
  <number>\t<searchable>\t<display>`,
	Args: cobra.NoArgs,
	RunE: runIssues,
}

func init() {
	issuesCmd.Flags().BoolVar(&issuesFzfFlag, "fzf", false, "Output in fzf-compatible format")
	issuesCmd.Flags().StringVarP(&issuesRepoFlag, "repo", "R", "", "Repository as owner/name (default: current directory)")
	rootCmd.AddCommand(issuesCmd)
}

func runIssues(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	issues, err := listIssues(cmd.Context(), a.queries, issuesRepoFlag)
	if err != nil {
		return err
	}

	if issuesFzfFlag {
		return outputIssueListFzf(cmd, issues)
	}
	return outputIssueListTable(cmd, issues)
}

func listIssues(ctx context.Context, q *queries.Client, repoFlag string) ([]github.Issue, error) {
	repo, err := resolveRepo(ctx, q, repoFlag)
	if err != nil {
		return nil, err
	}

	issues, err := q.Issues(github.IssueQuery{Repo: &repo}).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues of %s: %w", repo, err)
	}
	return issues, nil
}

func outputIssueListTable(cmd *cobra.Command, issues []github.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No open issues found.")
		return err
	}

	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{
			fmt.Sprintf("%d", issue.Number),
			truncateString(issue.Title, 60),
			issue.User.Login,
			humanize.Time(issue.CreatedAt),
		}
	}

	t := newTable("#", "Title", "Author", "Created").Rows(rows...)
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t)
	return err
}

func outputIssueListFzf(cmd *cobra.Command, issues []github.Issue) error {
	for _, issue := range issues {
		searchable := sanitizeFzfField(fmt.Sprintf("%d %s %s", issue.Number, issue.Title, issue.User.Login))
		display := sanitizeFzfField(fmt.Sprintf("#%d %s [%s]", issue.Number, issue.Title, issue.User.Login))

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", issue.Number, searchable, display)
		if err != nil {
			return err
		}
	}
	return nil
}
