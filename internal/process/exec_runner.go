package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cli/safeexec"
	"github.com/jmcampanini/ghui/internal/cmdargs"
	"golang.org/x/sync/errgroup"
)

// ExecRunner runs commands as child processes of the current process.
type ExecRunner struct {
	env        []string
	log        *clog.Logger
	lookPath   func(file string) (string, error)
	timeout    time.Duration
	workingDir string
}

var _ Runner = &ExecRunner{}

// NewExecRunner creates an ExecRunner that starts commands in workingDir.
// An empty workingDir uses the current directory. A zero timeout means
// commands may run for as long as they like.
func NewExecRunner(workingDir string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{
		env:        append(os.Environ(), "GH_PROMPT_DISABLED=1", "GIT_TERMINAL_PROMPT=0"),
		log:        clog.Default().WithPrefix("exec"),
		lookPath:   safeexec.LookPath,
		timeout:    timeout,
		workingDir: workingDir,
	}
}

// Run executes name with args. Standard output, standard error and the exit
// status are collected by three concurrent tasks; the result is produced once
// all of them have finished.
func (r *ExecRunner) Run(ctx context.Context, name string, args cmdargs.Args) (string, error) {
	display := commandLine(name, args)
	r.log.Debug("Executing command", "cmd", display, "workingDir", r.workingDir)

	path, err := r.lookPath(name)
	if err != nil {
		r.log.Warn("Command not found", "cmd", name, "error", err)
		return "", fmt.Errorf("%s not found: %w", name, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args.Strings()...)
	cmd.Dir = r.workingDir
	cmd.Env = r.env
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	startErr := cmd.Start()
	// The child holds its own copies of the write ends; ours must be closed
	// so the readers observe EOF when the child exits.
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if startErr != nil {
		_ = stdoutR.Close()
		_ = stderrR.Close()
		r.log.Warn("Command failed to start", "cmd", display, "error", startErr)
		return "", fmt.Errorf("failed to start %s: %w", display, startErr)
	}

	var stdout, stderr bytes.Buffer
	var waitErr error

	var g errgroup.Group
	g.Go(func() error { return drain(&stdout, stdoutR) })
	g.Go(func() error { return drain(&stderr, stderrR) })
	g.Go(func() error {
		waitErr = cmd.Wait()
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to read output of %s: %w", display, err)
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) && r.timeout > 0 {
				r.log.Warn("Command timed out", "cmd", display, "timeout", r.timeout)
				return "", fmt.Errorf("%s timed out after %s", display, r.timeout)
			}
			return "", fmt.Errorf("%s: %w", display, ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			r.log.Warn("Command failed", "cmd", display, "exitCode", exitErr.ExitCode(), "stderr", stderr.String())
			return "", &ExecutionError{
				Command:  display,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return "", fmt.Errorf("%s failed: %w", display, waitErr)
	}

	r.log.Debug("Command succeeded", "cmd", display, "outputLen", stdout.Len())
	return stdout.String(), nil
}

func drain(dst *bytes.Buffer, src *os.File) error {
	defer func() { _ = src.Close() }()
	_, err := io.Copy(dst, src)
	return err
}
