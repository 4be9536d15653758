package cmd

import (
	"context"
	"fmt"

	"github.com/jmcampanini/ghui/internal/github"
	"github.com/jmcampanini/ghui/internal/queries"
	"github.com/spf13/cobra"
)

var repoCmd = &cobra.Command{
	Use:   "repo [owner/name]",
	Short: "Show a repository and its default branch",
	Long: `Show the repository gh resolves for the current directory, or the
repository named by the argument, along with its default branch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepo,
}

func init() {
	rootCmd.AddCommand(repoCmd)
}

func runRepo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	var ref string
	if len(args) == 1 {
		ref = args[0]
	}
	repo, err := lookupRepository(cmd.Context(), a.queries, ref)
	if err != nil {
		return err
	}
	return outputRepository(cmd, repo)
}

func lookupRepository(ctx context.Context, q *queries.Client, ref string) (*github.Repository, error) {
	if ref != "" {
		if _, err := github.ParseRepoRef(ref); err != nil {
			return nil, err
		}
	}

	repo, err := q.CurrentRepository(ref).Get(ctx)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		if ref != "" {
			return nil, fmt.Errorf("repository %s not found", ref)
		}
		return nil, errNoRepository
	}
	return repo, nil
}

func outputRepository(cmd *cobra.Command, repo *github.Repository) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\ndefault branch: %s\n", repo.NameWithOwner, repo.DefaultBranchName)
	return err
}
