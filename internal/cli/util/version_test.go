package util

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariel-frischer/changelog-bot/internal/build"
)

// Tests that modify the global build variables cannot run in parallel.

func TestPrintPlainVersion(t *testing.T) {
	origVersion, origCommit := build.Version, build.Commit
	build.Version, build.Commit = "v1.4.0", "0123456789abcdef"
	defer func() { build.Version, build.Commit = origVersion, origCommit }()

	var buf bytes.Buffer
	printPlainVersion(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"changelog-bot v1.4.0",
		"commit: 0123456789abcdef",
		"built: " + build.BuildDate,
		"go: " + runtime.Version(),
		"platform: " + runtime.GOOS + "/" + runtime.GOARCH,
	}, lines)
}

func TestPrintPrettyVersion(t *testing.T) {
	origCommit := build.Commit
	build.Commit = "0123456789abcdef"
	defer func() { build.Commit = origCommit }()

	var buf bytes.Buffer
	printPrettyVersion(&buf, 100)

	out := buf.String()
	assert.Contains(t, out, "changelog-bot")
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef", "the commit is shortened")
	assert.Contains(t, out, runtime.Version())
}

func TestTruncateCommit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		commit string
		want   string
	}{
		"long hash":  {commit: "0123456789abcdef", want: "01234567"},
		"short hash": {commit: "abc", want: "abc"},
		"unknown":    {commit: "unknown", want: "unknown"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truncateCommit(tt.commit))
		})
	}
}

func TestVersionCmdMetadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "version", versionCmd.Use)
	assert.Contains(t, versionCmd.Aliases, "v")
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotEmpty(t, versionCmd.Example)
	assert.NotNil(t, versionCmd.Flags().Lookup("plain"))
}
