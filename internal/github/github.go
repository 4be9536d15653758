package github

import "context"

type GitHub interface {
	// Validate checks that the gh CLI can be executed.
	Validate(ctx context.Context) error

	// ListPullRequests returns every open pull request of the queried repository.
	// With no repository, gh infers it from the working directory and fails if it cannot.
	ListPullRequests(ctx context.Context, query PullRequestQuery) ([]PullRequest, error)

	// ListIssues returns open issues, excluding pull requests.
	ListIssues(ctx context.Context, query IssueQuery) ([]Issue, error)

	// GetPullRequestDescription returns the body of a pull request, or "" if it has none.
	GetPullRequestDescription(ctx context.Context, number int, repo *RepoRef) (string, error)

	// UpdatePullRequestBranch brings a pull request branch up to date with its base.
	// Permission failures are reported as *PermissionError.
	UpdatePullRequestBranch(ctx context.Context, req UpdateBranchRequest) error

	// GetRepository returns metadata for the named repository, or for the one in the
	// working directory when ref is empty. It returns nil on any failure.
	GetRepository(ctx context.Context, ref string) *Repository
}
