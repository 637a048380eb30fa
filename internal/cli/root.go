// Package cli implements the changelog-bot command line.
package cli

import (
	"io"
	"log"
	"os"
	"slices"

	"github.com/spf13/cobra"

	cliconfig "github.com/ariel-frischer/changelog-bot/internal/cli/config"
	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	"github.com/ariel-frischer/changelog-bot/internal/cli/util"
	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
	"github.com/ariel-frischer/changelog-bot/internal/git"
	"github.com/ariel-frischer/changelog-bot/internal/github"
	"github.com/ariel-frischer/changelog-bot/internal/llm"
	"github.com/ariel-frischer/changelog-bot/internal/pipeline"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "changelog-bot",
	Short: "Categorized, idempotent CHANGELOG updates from git history",
	Long: `changelog-bot writes the next version section of a Keep a Changelog file
from the repository history and opens a pull request with the change.

A section is built from the GitHub release notes when the release has any,
classified into Added, Fixed, Changed and the other categories. Otherwise a
model (OpenAI, Anthropic or a custom command) writes it from the git log,
and when no model is usable the commit subjects are grouped by their
conventional prefix. Re-running for the same version replaces the section.

Without a subcommand, 'generate' runs.

Source: https://github.com/ariel-frischer/changelog-bot`,
	Example: `  # Preview the next section without writing anything
  changelog-bot --dry-run

  # Update CHANGELOG.md for a tag and open a pull request
  changelog-bot generate --release-tag v1.2.0

  # Update the file only, without a model
  changelog-bot generate --provider none --no-pr

  # Show how a title would be categorized
  changelog-bot score "fix: crash when config is empty"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			enableDebugLogging(cmd.ErrOrStderr())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, shared.ConfigFlagName, "c", "", "Path to a config file (replaces .changelog-bot.yml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Print debug logging to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupGenerate, Title: "Changelog Commands:"},
		&cobra.Group{ID: shared.GroupInspect, Title: "Inspection Commands:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration Commands:"},
	)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	cliconfig.Register(rootCmd)
	util.Register(rootCmd)
}

// enableDebugLogging routes the debug hooks of every package to w.
func enableDebugLogging(w io.Writer) {
	logger := log.New(w, "", log.Ltime|log.Lmicroseconds).Printf
	git.SetDebugLogger(logger)
	github.SetDebugLogger(logger)
	llm.SetDebugLogger(logger)
	pipeline.SetDebugLogger(logger)
}

// Execute runs the command line in os.Args and returns the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(withDefaultCommand(args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err != nil && !shared.IsReported(err) {
		clierrors.Fprint(stderr, err)
	}
	return shared.ExitCode(err)
}

// withDefaultCommand prepends "generate" unless args name a subcommand or
// ask for help or completion.
func withDefaultCommand(args []string) []string {
	if len(args) > 0 {
		if slices.Contains([]string{"-h", "--help", "help", "completion", "__complete"}, args[0]) {
			return args
		}
		if cmd, _, err := rootCmd.Find(args); err == nil && cmd != rootCmd {
			return args
		}
	}
	return append([]string{generateCmd.Name()}, args...)
}

// argsWithUsage reports positional argument errors as argument errors.
func argsWithUsage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
		}
		return nil
	}
}
