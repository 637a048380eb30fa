package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
)

var diffPlain bool

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Show a line diff between two changelog files",
	Long: `Print the unified-style line diff of two files, the same transcript the
bot puts in dry-run output. Colors are disabled with --plain or when output
is not a terminal.`,
	Example: `  changelog-bot diff CHANGELOG.md /tmp/CHANGELOG.new.md
  changelog-bot diff --plain old.md new.md > changes.diff`,
	Args: argsWithUsage(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldDoc, err := changelog.Read(args[0])
		if err != nil {
			return clierrors.ChangelogUnreadable(args[0], err)
		}
		newDoc, err := changelog.Read(args[1])
		if err != nil {
			return clierrors.ChangelogUnreadable(args[1], err)
		}
		if oldDoc == newDoc {
			fmt.Fprintln(cmd.OutOrStdout(), "No differences.")
			return nil
		}
		diff := changelog.DiffNamed(args[1], oldDoc, newDoc)
		return changelog.FormatDiff(diff, cmd.OutOrStdout(), changelog.FormatOptions{
			Plain: diffPlain || color.NoColor,
		})
	},
}

func init() {
	diffCmd.GroupID = shared.GroupInspect
	diffCmd.Flags().BoolVar(&diffPlain, "plain", false, "Disable colors")
	rootCmd.AddCommand(diffCmd)
}
