package errors

import (
	"context"
	"fmt"
)

// NotARepository is returned when the repo path is not inside a git work tree.
func NotARepository(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", path),
		"Run changelog-bot from inside the repository",
		"Or point at it with --repo-path <dir>",
	)
}

// UnsafeRef is returned for a tag or ref that fails the ref allow-list.
func UnsafeRef(label, value string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unsafe %s: %q", label, value),
		"changelog-bot generate --release-tag v1.2.3",
		"Refs may contain letters, digits, '.', '_' and '-' only, or be a 7-40 character SHA",
	)
}

// MissingToken is returned when a pull request is requested without credentials.
func MissingToken() *CLIError {
	return NewPrerequisiteError(
		"no GitHub credentials for opening the changelog pull request",
		"Set GITHUB_TOKEN to a token with contents:write and pull_requests:write",
		"Or set CHANGELOG_BOT_APP_ID and CHANGELOG_BOT_APP_PRIVATE_KEY for a GitHub App",
		"Or run with --no-pr to only update the file",
	)
}

// MissingRepository is returned when owner/name cannot be determined.
func MissingRepository() *CLIError {
	return NewConfigError(
		"cannot determine the GitHub repository",
		"Set GITHUB_REPOSITORY or REPO_FULL_NAME to owner/name",
		"Or set 'repository' in .changelog-bot.yml",
		"Or add an 'origin' remote that points at GitHub",
	)
}

// InvalidProvider is returned for an unknown --provider value.
func InvalidProvider(name string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown provider: %s", name),
		"changelog-bot generate --provider openai|anthropic|command|none",
		"Use --provider none to skip the model and use the heuristic classifier",
	)
}

// ChangelogUnreadable is returned when the changelog exists but cannot be read.
func ChangelogUnreadable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot read %s", path),
		"Check file permissions: ls -la "+path,
		"Or choose another file with --changelog-path",
	)
}

// ChangelogUnwritable is returned when the updated changelog cannot be written.
func ChangelogUnwritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write %s", path),
		"Ensure the parent directory exists and is writable",
	)
}

// ProviderFailed is returned when a model provider cannot be constructed.
func ProviderFailed(provider string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("provider %s is not usable", provider),
		"Check the API key environment variable for the provider",
		"Or run with --provider none to use the heuristic classifier only",
	)
}

// ConfigInvalid wraps a configuration load or validation failure.
func ConfigInvalid(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Run 'changelog-bot config show' to see the effective values",
		"Run 'changelog-bot config keys' to list valid keys",
	)
}

// PublishFailed wraps a failure while pushing the branch or opening the PR.
func PublishFailed(step string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("publishing the changelog failed while %s", step),
		"The updated file was written; rerun with --no-pr to skip publishing",
		"Check that the token may push branches and open pull requests",
	)
}

// TimeoutError is returned when the run exceeds the configured timeout.
func TimeoutError(duration string) *CLIError {
	e := NewRuntimeError(
		fmt.Sprintf("run timed out after %s", duration),
		"Increase the timeout: CHANGELOG_BOT_TIMEOUT=600",
		"Or set timeout: 0 in .changelog-bot.yml to disable it",
	)
	e.Err = context.DeadlineExceeded
	return e
}
