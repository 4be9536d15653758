package github

import (
	"errors"
	"regexp"

	"github.com/jmcampanini/ghui/internal/process"
)

// permissionDeniedPattern matches gh's diagnostic when the user may not push
// to the pull request branch. It depends on gh's exact wording.
var permissionDeniedPattern = regexp.MustCompile(`(?i)does not have the correct permissions`)

// PermissionError reports a branch update rejected for lack of permissions.
type PermissionError struct {
	Err *process.ExecutionError
}

func (e *PermissionError) Error() string {
	return "insufficient permissions to update branch: " + e.Err.Error()
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// classifyUpdateBranchError turns a permission failure into *PermissionError.
// Any other error is returned unchanged.
func classifyUpdateBranchError(err error) error {
	var execErr *process.ExecutionError
	if errors.As(err, &execErr) && permissionDeniedPattern.MatchString(execErr.Stderr) {
		return &PermissionError{Err: execErr}
	}
	return err
}
