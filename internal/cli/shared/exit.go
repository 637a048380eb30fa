package shared

import (
	"context"
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
)

// ExitError carries an exit code for an error that was already reported.
type ExitError struct {
	Code int
}

// NewExitError returns an ExitError with code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeout
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingPrerequisite
		}
	}
	return ExitFailed
}

// IsReported reports whether err only carries an exit code and needs no
// further output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
