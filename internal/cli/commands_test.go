package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
)

const showDoc = `# Changelog

## [Unreleased]

## [v1.1.0] - 2024-05-01

### Added

- add login

## [v1.0.0] - 2024-04-01

### Fixed

- crash on null
`

// sandbox moves into a fresh directory with empty user config and no
// credentials in the environment.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		"GITHUB_TOKEN", "GH_TOKEN", "GITHUB_REPOSITORY", "REPO_FULL_NAME",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "CHANGELOG_BOT_APP_ID", "GITHUB_APP_ID",
	} {
		t.Setenv(name, "")
	}
	t.Chdir(dir)

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestShowCmd(t *testing.T) {
	tests := map[string]struct {
		args       []string
		wantCode   int
		wantOut    []string
		notOut     []string
		wantStderr []string
	}{
		"lists versions": {
			args:    []string{"show"},
			wantOut: []string{"Unreleased", "v1.1.0", "2024-05-01", "v1.0.0", "2024-04-01"},
		},
		"prints one section": {
			args:    []string{"show", "1.1.0", "--plain"},
			wantOut: []string{"Added", "add login"},
			notOut:  []string{"crash on null"},
		},
		"version match ignores case and prefix": {
			args:    []string{"show", "V1.0.0", "--plain"},
			wantOut: []string{"crash on null"},
		},
		"unknown version lists available ones": {
			args:       []string{"show", "9.9.9"},
			wantCode:   shared.ExitInvalidArguments,
			wantStderr: []string{`version "9.9.9" not found`, "Available versions:", "v1.1.0"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := sandbox(t)
			writeFile(t, filepath.Join(dir, "CHANGELOG.md"), showDoc)

			stdout, stderr, code := execute(t, tt.args...)
			assert.Equal(t, tt.wantCode, code, stderr)
			for _, s := range tt.wantOut {
				assert.Contains(t, stdout, s)
			}
			for _, s := range tt.notOut {
				assert.NotContains(t, stdout, s)
			}
			for _, s := range tt.wantStderr {
				assert.Contains(t, stderr, s)
			}
		})
	}
}

func TestShowCmd_ChangelogPathFlag(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "docs", "CHANGES.md"), showDoc)

	stdout, stderr, code := execute(t, "show", "--changelog-path", filepath.Join("docs", "CHANGES.md"))
	require.Equal(t, shared.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "v1.1.0")
}

func TestShowCmd_EmptyChangelog(t *testing.T) {
	sandbox(t)

	stdout, stderr, code := execute(t, "show")
	require.Equal(t, shared.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "No versions in CHANGELOG.md")
}

func TestDiffCmd(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, filepath.Join(dir, "old.md"), "# Changelog\n\n- a\n")
	writeFile(t, filepath.Join(dir, "new.md"), "# Changelog\n\n- a\n- b\n")

	stdout, stderr, code := execute(t, "diff", "--plain", "old.md", "new.md")
	require.Equal(t, shared.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "--- a/new.md")
	assert.Contains(t, stdout, "+++ b/new.md")
	assert.Contains(t, stdout, " - a")
	assert.Contains(t, stdout, "+- b")

	stdout, _, code = execute(t, "diff", "old.md", "old.md")
	require.Equal(t, shared.ExitSuccess, code)
	assert.Contains(t, stdout, "No differences.")
}

func TestScoreCmd(t *testing.T) {
	sandbox(t)

	stdout, stderr, code := execute(t, "score", "fix: crash on null", "hello")
	require.Equal(t, shared.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "fix: crash on null")
	assert.Contains(t, stdout, "=> Fixed")
	assert.Contains(t, stdout, "=> inconclusive")
}

func TestServerURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                               "https://github.com",
		"https://api.github.com":         "https://github.com",
		"https://ghe.example.com/api/v3": "https://ghe.example.com",
		"http://localhost:8080/api/v3/":  "http://localhost:8080",
		"::not a url::":                  "https://github.com",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, serverURL(in))
		})
	}
}
