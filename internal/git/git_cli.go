package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	clog "github.com/charmbracelet/log"
	"github.com/jmcampanini/ghui/internal/cmdargs"
	"github.com/jmcampanini/ghui/internal/process"
)

// GitCli answers repository questions by executing the git CLI.
type GitCli struct {
	log        *clog.Logger
	runner     process.Runner
	workingDir string
}

var _ Git = &GitCli{}

// New creates a GitCli. The runner must execute in workingDir, which is used
// to resolve relative paths printed by git.
func New(runner process.Runner, workingDir string) Git {
	return &GitCli{
		log:        clog.Default().WithPrefix("git"),
		runner:     runner,
		workingDir: workingDir,
	}
}

func (g *GitCli) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	built, err := cmdargs.New().Add(args...).Build()
	if err != nil {
		return "", err
	}

	g.log.Debug("Executing git command", "args", built, "workingDir", g.workingDir)
	output, err := g.runner.Run(ctx, "git", built)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (g *GitCli) GetMainWorktreePath(ctx context.Context) (string, error) {
	commonDir, err := g.executeGitCommand(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("failed to get git common dir: %w", err)
	}

	absCommonDir := commonDir
	if !filepath.IsAbs(commonDir) {
		absCommonDir = filepath.Join(g.workingDir, commonDir)
	}

	absCommonDir, err = filepath.Abs(absCommonDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	mainWorktree := filepath.Dir(filepath.Clean(absCommonDir))
	g.log.Debug("Resolved main worktree path", "commonDir", commonDir, "mainWorktree", mainWorktree)
	return mainWorktree, nil
}

func (g *GitCli) GetWorktreeRoot(ctx context.Context) (string, error) {
	output, err := g.executeGitCommand(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		if isNotARepository(err) {
			// Not in a git repo - this is a valid state, not an error
			return "", nil
		}
		return "", fmt.Errorf("git command failed: %w", err)
	}
	return output, nil
}

func isNotARepository(err error) bool {
	var execErr *process.ExecutionError
	return errors.As(err, &execErr) && strings.Contains(execErr.Stderr, "not a git repo")
}
