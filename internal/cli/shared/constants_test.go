package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
)

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		constant int
		want     int
	}{
		"ExitSuccess":             {constant: ExitSuccess, want: 0},
		"ExitFailed":              {constant: ExitFailed, want: 1},
		"ExitInvalidArguments":    {constant: ExitInvalidArguments, want: 3},
		"ExitMissingPrerequisite": {constant: ExitMissingPrerequisite, want: 4},
		"ExitTimeout":             {constant: ExitTimeout, want: 5},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.constant)
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":               {err: nil, want: ExitSuccess},
		"plain error":       {err: errors.New("boom"), want: ExitFailed},
		"exit error":        {err: NewExitError(ExitInvalidArguments), want: ExitInvalidArguments},
		"wrapped exit":      {err: fmt.Errorf("show: %w", NewExitError(7)), want: 7},
		"argument":          {err: clierrors.InvalidProvider("x"), want: ExitInvalidArguments},
		"unsafe ref":        {err: clierrors.UnsafeRef("release tag", "a;b"), want: ExitInvalidArguments},
		"prerequisite":      {err: clierrors.MissingToken(), want: ExitMissingPrerequisite},
		"not a repository":  {err: clierrors.NotARepository("/tmp"), want: ExitMissingPrerequisite},
		"configuration":     {err: clierrors.MissingRepository(), want: ExitFailed},
		"timeout":           {err: clierrors.TimeoutError("5m0s"), want: ExitTimeout},
		"deadline exceeded": {err: fmt.Errorf("listing: %w", context.DeadlineExceeded), want: ExitTimeout},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestIsReported(t *testing.T) {
	t.Parallel()

	assert.True(t, IsReported(NewExitError(ExitInvalidArguments)))
	assert.False(t, IsReported(errors.New("boom")))
	assert.Equal(t, "exit code 3", NewExitError(3).Error())
}
