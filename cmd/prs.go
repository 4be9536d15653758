package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/jmcampanini/ghui/internal/github"
	"github.com/jmcampanini/ghui/internal/queries"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	prsAuthorFlag string
	prsFzfFlag    bool
	prsRepoFlag   string
)

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List open pull requests",
	Long: `List open pull requests of a repository.

By default, outputs a formatted table with PR details.

With --fzf, outputs tab-separated format suitable for fzf integration:
  <number>\t<searchable>\t<display>

Example with fzf:
  ghui prs --fzf | fzf --delimiter '\t' --with-nth 3 --preview 'ghui pr view --fzf {1}'`,
	Args: cobra.NoArgs,
	RunE: runPRs,
}

func init() {
	prsCmd.Flags().StringVar(&prsAuthorFlag, "author", "", "Only show pull requests opened by this login")
	prsCmd.Flags().BoolVar(&prsFzfFlag, "fzf", false, "Output in fzf-compatible format")
	prsCmd.Flags().StringVarP(&prsRepoFlag, "repo", "R", "", "Repository as owner/name (default: current directory)")
	rootCmd.AddCommand(prsCmd)
}

func runPRs(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	prs, err := listPullRequests(cmd.Context(), a.queries, prsRepoFlag, prsAuthorFlag)
	if err != nil {
		return err
	}

	if prsFzfFlag {
		return outputPRListFzf(cmd, prs)
	}
	return outputPRListTable(cmd, prs)
}

func listPullRequests(ctx context.Context, q *queries.Client, repoFlag, author string) ([]github.PullRequest, error) {
	repo, err := resolveRepo(ctx, q, repoFlag)
	if err != nil {
		return nil, err
	}

	prs, err := q.PullRequests(github.PullRequestQuery{Author: author, Repo: &repo}).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests of %s: %w", repo, err)
	}
	return prs, nil
}

// prState returns "draft" for drafts and the lowercase state otherwise.
func prState(pr github.PullRequest) string {
	if pr.IsDraft {
		return "draft"
	}
	return strings.ToLower(pr.State)
}

// prHead returns the head repository of pull requests opened from a fork.
func prHead(pr github.PullRequest) string {
	if pr.IsCrossRepository() {
		return pr.HeadRepo.String()
	}
	return ""
}

// newTable returns a table with the style shared by every ghui listing.
func newTable(headers ...string) *table.Table {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle := cellStyle.Foreground(gray)
	evenRowStyle := cellStyle.Foreground(lightGray)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return evenRowStyle
			default:
				return oddRowStyle
			}
		}).
		Headers(headers...)
}

// outputPRListTable renders a lipgloss table to stdout.
func outputPRListTable(cmd *cobra.Command, prs []github.PullRequest) error {
	if len(prs) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No open pull requests found.")
		return err
	}

	rows := make([][]string, len(prs))
	for i, pr := range prs {
		rows[i] = []string{
			fmt.Sprintf("%d", pr.Number),
			truncateString(pr.Title, 50),
			pr.User.Login,
			prState(pr),
			truncateString(prHead(pr), 30),
			humanize.Time(pr.CreatedAt),
		}
	}

	t := newTable("#", "Title", "Author", "State", "Fork", "Created").Rows(rows...)
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t)
	return err
}

// outputPRListFzf renders fzf-compatible TSV format.
// Format: <number>\t<searchable>\t<display>
func outputPRListFzf(cmd *cobra.Command, prs []github.PullRequest) error {
	for _, pr := range prs {
		searchable := sanitizeFzfField(fmt.Sprintf("%d %s %s %s %s",
			pr.Number,
			pr.Title,
			pr.User.Login,
			prState(pr),
			prHead(pr),
		))

		display := sanitizeFzfField(fmt.Sprintf("#%d %s [%s]", pr.Number, pr.Title, pr.User.Login))
		if pr.IsDraft {
			display += " (draft)"
		}

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", pr.Number, strings.TrimSpace(searchable), display)
		if err != nil {
			return err
		}
	}
	return nil
}

// sanitizeFzfField replaces tabs and newlines with spaces to prevent fzf parsing issues.
func sanitizeFzfField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// truncateString truncates s to maxLen terminal columns, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}
