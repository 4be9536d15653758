package github

import (
	"context"
	"fmt"
	"net/url"

	clog "github.com/charmbracelet/log"
	"github.com/jmcampanini/ghui/internal/cmdargs"
	"github.com/jmcampanini/ghui/internal/process"
)

// DefaultCommand is the gh invocation used when none is configured.
var DefaultCommand = []string{"gh"}

// GitHubCli provides GitHub operations by executing the gh CLI.
type GitHubCli struct {
	command []string // binary followed by any fixed leading arguments
	log     *clog.Logger
	runner  process.Runner
}

var _ GitHub = &GitHubCli{}

// New creates a GitHubCli that runs command through runner. command is the
// gh binary optionally followed by leading arguments (e.g. a wrapper such as
// "op run -- gh"); an empty command means DefaultCommand.
func New(runner process.Runner, command []string) GitHub {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &GitHubCli{
		command: append([]string(nil), command...),
		log:     clog.Default().WithPrefix("github"),
		runner:  runner,
	}
}

// newArgs returns a builder seeded with the fixed leading arguments.
func (g *GitHubCli) newArgs() cmdargs.Builder {
	return cmdargs.New().Add(g.command[1:]...)
}

func (g *GitHubCli) executeGhCommand(ctx context.Context, b cmdargs.Builder) (string, error) {
	args, err := b.Build()
	if err != nil {
		return "", err
	}
	return g.runner.Run(ctx, g.command[0], args)
}

func (g *GitHubCli) Validate(ctx context.Context) error {
	if _, err := g.executeGhCommand(ctx, g.newArgs().Add("--version")); err != nil {
		return fmt.Errorf("gh CLI is not available (install it from https://cli.github.com): %w", err)
	}
	return nil
}

// apiPath returns a REST path for the repository, using gh's {owner}/{repo}
// placeholders when repo is nil.
func apiPath(repo *RepoRef, resource string) string {
	if repo == nil {
		return "repos/{owner}/{repo}/" + resource
	}
	return fmt.Sprintf("repos/%s/%s/%s", url.PathEscape(repo.Owner), url.PathEscape(repo.Name), resource)
}

func repoFlag(repo RepoRef) []cmdargs.Value {
	return []cmdargs.Value{cmdargs.Arg("--repo"), cmdargs.Arg(repo.String())}
}

func (g *GitHubCli) ListPullRequests(ctx context.Context, query PullRequestQuery) ([]PullRequest, error) {
	b := g.newArgs().Add("api", apiPath(query.Repo, "pulls"), "--paginate")

	output, err := g.executeGhCommand(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}

	prs, err := DecodePullRequests([]byte(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pull requests: %w", err)
	}

	if query.Author == "" {
		return prs, nil
	}
	filtered := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		if pr.User.Login == query.Author {
			filtered = append(filtered, pr)
		}
	}
	return filtered, nil
}

func (g *GitHubCli) ListIssues(ctx context.Context, query IssueQuery) ([]Issue, error) {
	b := g.newArgs().Add("api", apiPath(query.Repo, "issues"), "--paginate")

	output, err := g.executeGhCommand(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	items, err := DecodeIssues([]byte(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse issues: %w", err)
	}

	// The issues endpoint also returns pull requests.
	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		if !item.IsPullRequest {
			issues = append(issues, item)
		}
	}
	g.log.Debug("Filtered issues", "received", len(items), "kept", len(issues))
	return issues, nil
}

func (g *GitHubCli) GetPullRequestDescription(ctx context.Context, number int, repo *RepoRef) (string, error) {
	b := g.newArgs().Add("pr", "view").Append(cmdargs.Int(number)).Add("--json", "body")
	b = cmdargs.Optional(b, repo, repoFlag)

	output, err := g.executeGhCommand(ctx, b)
	if err != nil {
		return "", fmt.Errorf("failed to get description of pull request #%d: %w", number, err)
	}

	body, err := DecodePullRequestBody([]byte(output))
	if err != nil {
		return "", fmt.Errorf("failed to parse description of pull request #%d: %w", number, err)
	}
	return body, nil
}

func (g *GitHubCli) UpdatePullRequestBranch(ctx context.Context, req UpdateBranchRequest) error {
	mode := req.Mode
	if mode == "" {
		mode = UpdateModeMerge
	}
	if !mode.IsValid() {
		return fmt.Errorf("unknown update mode: %s", mode)
	}

	b := g.newArgs().
		Add("pr", "update-branch").
		Append(cmdargs.Int(req.Number)).
		Append(repoFlag(req.Repo)...).
		AppendIf(mode == UpdateModeRebase, func() []cmdargs.Value {
			return []cmdargs.Value{cmdargs.Arg("--rebase")}
		})

	if _, err := g.executeGhCommand(ctx, b); err != nil {
		return fmt.Errorf("failed to update branch of %s#%d with %s: %w", req.Repo, req.Number, mode, classifyUpdateBranchError(err))
	}
	g.log.Info("Updated pull request branch", "repo", req.Repo.String(), "number", req.Number, "mode", mode)
	return nil
}

func (g *GitHubCli) GetRepository(ctx context.Context, ref string) *Repository {
	b := g.newArgs().
		Add("repo", "view").
		AppendIf(ref != "", func() []cmdargs.Value { return []cmdargs.Value{cmdargs.Arg(ref)} }).
		Add("--json", repositoryJsonFields)

	// Not being in a repository is a normal state, so every failure maps to
	// "no repository". The error is only kept for debugging.
	output, err := g.executeGhCommand(ctx, b)
	if err != nil {
		g.log.Debug("No repository resolved", "ref", ref, "error", err)
		return nil
	}

	repo, err := DecodeRepository([]byte(output))
	if err != nil {
		g.log.Debug("Unreadable repository metadata", "ref", ref, "error", err)
		return nil
	}
	return &repo
}
