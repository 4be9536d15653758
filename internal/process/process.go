// Package process runs external commands and captures their output.
package process

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmcampanini/ghui/internal/cmdargs"
)

// Runner executes one external command.
type Runner interface {
	// Run starts name with args and waits for it to exit.
	// On exit status zero it returns the captured standard output.
	// On a non-zero exit status it returns an *ExecutionError.
	Run(ctx context.Context, name string, args cmdargs.Args) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args cmdargs.Args) (string, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args cmdargs.Args) (string, error) {
	return f(ctx, name, args)
}

// ExecutionError reports a command that exited with a non-zero status.
type ExecutionError struct {
	// Command is the command line with secret arguments redacted.
	Command  string
	ExitCode int
	// Stderr is the captured standard error, verbatim.
	Stderr string
}

func (e *ExecutionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.ExitCode, msg)
}

// IsExecutionError reports whether err wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}

func commandLine(name string, args cmdargs.Args) string {
	if args.Len() == 0 {
		return name
	}
	return name + " " + args.String()
}
