package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jmcampanini/ghui/internal/cache"
	"github.com/jmcampanini/ghui/internal/config"
	"github.com/jmcampanini/ghui/internal/git"
	"github.com/jmcampanini/ghui/internal/github"
	"github.com/jmcampanini/ghui/internal/process"
	"github.com/jmcampanini/ghui/internal/queries"
	"github.com/spf13/cobra"
)

var errNoRepository = errors.New("no GitHub repository found; run ghui inside a clone or pass --repo owner/name")

// app holds what a command needs to talk to GitHub.
type app struct {
	cfg     config.Config
	queries *queries.Client
}

// loadConfig discovers and merges ghui.toml files around cwd.
func loadConfig(ctx context.Context, cwd string) (config.LoadResult, error) {
	loader := config.NewDefaultLoader()
	loc := config.Locations{
		Cwd:      cwd,
		Explicit: os.Getenv(config.EnvConfigFile),
	}

	// The git timeout is needed to locate the repository, so it can only come
	// from files found without git.
	early, err := loader.LoadLocations(loc)
	if err != nil {
		return config.LoadResult{}, fmt.Errorf("failed to load config: %w", err)
	}

	gitClient := git.New(process.NewExecRunner(cwd, early.Config.Git.Timeout), cwd)

	loc.WorktreeRoot, err = gitClient.GetWorktreeRoot(ctx)
	if err != nil {
		return config.LoadResult{}, fmt.Errorf("git error: %w", err)
	}
	if loc.WorktreeRoot == "" {
		return early, nil
	}

	loc.GitRoot, err = gitClient.GetMainWorktreePath(ctx)
	if err != nil {
		return config.LoadResult{}, fmt.Errorf("failed to get main worktree path: %w", err)
	}

	loc.HomeDir, err = os.UserHomeDir()
	if err != nil {
		return config.LoadResult{}, fmt.Errorf("failed to get user home directory: %w", err)
	}

	loadResult, err := loader.LoadLocations(loc)
	if err != nil {
		return config.LoadResult{}, fmt.Errorf("failed to load config: %w", err)
	}
	return loadResult, nil
}

func ttlsFromConfig(c config.CacheConfig) queries.TTLs {
	return queries.TTLs{
		PullRequests: c.PullRequestsTTL,
		Issues:       c.IssuesTTL,
		Description:  c.DescriptionTTL,
		Repository:   c.RepositoryTTL,
	}
}

// newApp loads the configuration, checks that gh runs and wires the cache.
// The cache janitor stops with the command's context.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	loadResult, err := loadConfig(ctx, cwd)
	if err != nil {
		return nil, err
	}
	cfg := loadResult.Config

	command, err := cfg.GH.CommandArgs()
	if err != nil {
		return nil, err
	}

	gh := github.New(process.NewExecRunner(cwd, cfg.GH.Timeout), command)
	if err := gh.Validate(ctx); err != nil {
		return nil, err
	}

	store := cache.NewStore()
	go store.RunJanitor(ctx, cfg.Cache.PruneInterval)

	return &app{
		cfg:     cfg,
		queries: queries.New(store, gh, ttlsFromConfig(cfg.Cache)),
	}, nil
}

// resolveRepo parses repoFlag, or resolves the repository of the working
// directory when it is empty.
func resolveRepo(ctx context.Context, q *queries.Client, repoFlag string) (github.RepoRef, error) {
	if repoFlag != "" {
		return github.ParseRepoRef(repoFlag)
	}

	repo, err := q.CurrentRepository("").Get(ctx)
	if err != nil {
		return github.RepoRef{}, err
	}
	if repo == nil {
		return github.RepoRef{}, errNoRepository
	}
	return repo.Ref(), nil
}
