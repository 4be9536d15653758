package git

import "context"

// Git locates the repository around the working directory.
type Git interface {
	// GetMainWorktreePath returns the root of the main worktree, even when
	// called from a linked worktree.
	GetMainWorktreePath(ctx context.Context) (string, error)

	// GetWorktreeRoot returns the root of the current worktree, or "" when the
	// working directory is not inside a repository.
	GetWorktreeRoot(ctx context.Context) (string, error)
}
