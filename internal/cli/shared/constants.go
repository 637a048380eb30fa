// Package shared provides constants and helpers used across CLI subpackages.
package shared

// Exit codes for the changelog-bot CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailed indicates generation, writing or publishing failed
	ExitFailed = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingPrerequisite indicates a missing repository, token or tool
	ExitMissingPrerequisite = 4

	// ExitTimeout indicates the run exceeded its timeout
	ExitTimeout = 5
)

// Command group IDs for help output.
const (
	GroupGenerate      = "generate"
	GroupInspect       = "inspect"
	GroupConfiguration = "configuration"
)

// ConfigFlagName is the persistent flag that points at a config file.
const ConfigFlagName = "config"
