// Package queries exposes the GitHub operations as cached queries.
package queries

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/jmcampanini/ghui/internal/cache"
	"github.com/jmcampanini/ghui/internal/github"
)

const (
	opPullRequests = "pulls"
	opIssues       = "issues"
	opDescription  = "pull-description"
	opRepository   = "repository"
)

// TTLs holds how long each kind of result stays fresh.
type TTLs struct {
	PullRequests time.Duration
	Issues       time.Duration
	Description  time.Duration
	Repository   time.Duration
}

type Client struct {
	gh    github.GitHub
	log   *clog.Logger
	store *cache.Store
	ttls  TTLs
}

func New(store *cache.Store, gh github.GitHub, ttls TTLs) *Client {
	return &Client{
		gh:    gh,
		log:   clog.Default().WithPrefix("queries"),
		store: store,
		ttls:  ttls,
	}
}

// repoParam is "" for the repository of the working directory.
func repoParam(repo *github.RepoRef) cache.KeyParam {
	if repo == nil {
		return cache.Param("repo", "")
	}
	return cache.Param("repo", repo.String())
}

func (c *Client) PullRequests(query github.PullRequestQuery) *cache.Query[[]github.PullRequest] {
	key := cache.NewKey(opPullRequests, repoParam(query.Repo), cache.Param("author", query.Author))
	return cache.NewQuery(c.store, key, c.ttls.PullRequests, func(ctx context.Context) ([]github.PullRequest, error) {
		return c.gh.ListPullRequests(ctx, query)
	})
}

func (c *Client) Issues(query github.IssueQuery) *cache.Query[[]github.Issue] {
	key := cache.NewKey(opIssues, repoParam(query.Repo))
	return cache.NewQuery(c.store, key, c.ttls.Issues, func(ctx context.Context) ([]github.Issue, error) {
		return c.gh.ListIssues(ctx, query)
	})
}

func (c *Client) PullRequestDescription(number int, repo *github.RepoRef) *cache.Query[string] {
	key := cache.NewKey(opDescription, repoParam(repo), cache.Param("number", number))
	return cache.NewQuery(c.store, key, c.ttls.Description, func(ctx context.Context) (string, error) {
		return c.gh.GetPullRequestDescription(ctx, number, repo)
	})
}

// CurrentRepository resolves ref, or the repository of the working directory
// when ref is empty. The value is nil when no repository could be resolved.
func (c *Client) CurrentRepository(ref string) *cache.Query[*github.Repository] {
	key := cache.NewKey(opRepository, cache.Param("ref", ref))
	return cache.NewQuery(c.store, key, c.ttls.Repository, func(ctx context.Context) (*github.Repository, error) {
		return c.gh.GetRepository(ctx, ref), nil
	})
}

type UpdateResult int

const (
	UpdateSucceeded UpdateResult = iota
	UpdateDenied
	UpdateFailed
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateSucceeded:
		return "succeeded"
	case UpdateDenied:
		return "denied"
	case UpdateFailed:
		return "failed"
	}
	return "unknown"
}

// UpdateOutcome is the result of one branch update.
type UpdateOutcome struct {
	Request github.UpdateBranchRequest
	Result  UpdateResult
	Err     error
}

// Message returns a one-line summary suitable for a notification.
func (o UpdateOutcome) Message() string {
	mode := o.Request.Mode
	if mode == "" {
		mode = github.UpdateModeMerge
	}
	switch o.Result {
	case UpdateSucceeded:
		return fmt.Sprintf("%s#%d updated with %s", o.Request.Repo, o.Request.Number, mode)
	case UpdateDenied:
		return fmt.Sprintf("No permission to update %s#%d", o.Request.Repo, o.Request.Number)
	}
	return "Unable to update PR branch"
}

// UpdateBranch updates a pull request branch. Cached pull request lists and
// the description of the pull request are invalidated whatever the outcome.
func (c *Client) UpdateBranch(ctx context.Context, req github.UpdateBranchRequest) UpdateOutcome {
	err := c.gh.UpdatePullRequestBranch(ctx, req)
	c.invalidatePullRequest(req.Repo, req.Number)

	outcome := UpdateOutcome{Request: req, Result: UpdateSucceeded, Err: err}
	var permErr *github.PermissionError
	switch {
	case err == nil:
	case errors.As(err, &permErr):
		outcome.Result = UpdateDenied
	default:
		outcome.Result = UpdateFailed
	}
	return outcome
}

func (c *Client) invalidatePullRequest(repo github.RepoRef, number int) {
	// Keys without a repo refer to the working directory, which may be repo.
	sameRepo := func(k cache.Key) bool {
		r := k.Param("repo")
		return r == "" || r == repo.String()
	}
	n := c.store.InvalidateWhere(func(k cache.Key) bool {
		switch k.Operation() {
		case opPullRequests:
			return sameRepo(k)
		case opDescription:
			return sameRepo(k) && k.Param("number") == strconv.Itoa(number)
		}
		return false
	})
	c.log.Debug("Invalidated pull request queries", "repo", repo.String(), "number", number, "keys", n)
}
