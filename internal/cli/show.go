package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	"github.com/ariel-frischer/changelog-bot/internal/config"
	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
)

var (
	showChangelogPath string
	showPlain         bool
)

var showCmd = &cobra.Command{
	Use:   "show [version]",
	Short: "List the versions of the changelog or print one section",
	Long: `Without arguments, list every version heading of the changelog with its
date. With a version, print that section. Versions match without regard to
case or a leading "v", so 1.2.0, v1.2.0 and V1.2.0 are the same.`,
	Example: `  changelog-bot show
  changelog-bot show 1.2.0
  changelog-bot show unreleased --plain`,
	Args: argsWithUsage(cobra.MaximumNArgs(1)),
	RunE: runShow,
}

func init() {
	showCmd.GroupID = shared.GroupInspect
	showCmd.Flags().StringVar(&showChangelogPath, "changelog-path", "", "Changelog file (default from config: CHANGELOG.md)")
	showCmd.Flags().BoolVar(&showPlain, "plain", false, "Disable colors and icons")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path := showChangelogPath
	if path == "" {
		cfg, err := config.LoadWithOptions(config.LoadOptions{
			ConfigPath:    configPath,
			WarningWriter: cmd.ErrOrStderr(),
		})
		if err != nil {
			return clierrors.ConfigInvalid(err)
		}
		path = filepath.FromSlash(cfg.ChangelogPath)
	}
	doc, err := changelog.Read(path)
	if err != nil {
		return clierrors.ChangelogUnreadable(path, err)
	}

	if len(args) == 0 {
		versions := changelog.ListVersions(doc)
		if len(versions) == 0 {
			fmt.Fprintf(out, "No versions in %s\n", path)
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, v := range versions {
			date := v.Date
			if date == "" {
				date = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\n", v.Label, date)
		}
		return tw.Flush()
	}

	body, err := changelog.SectionBody(doc, args[0])
	if err != nil {
		var notFound *changelog.VersionNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "%s version %q not found in %s\n", color.RedString("Error:"), notFound.Version, path)
		if len(notFound.AvailableVersions) > 0 {
			fmt.Fprintln(errOut, "Available versions:")
			for _, v := range notFound.AvailableVersions {
				fmt.Fprintf(errOut, "  %s\n", v)
			}
		}
		return shared.NewExitError(shared.ExitInvalidArguments)
	}
	return changelog.FormatSection(body, out, changelog.FormatOptions{
		Plain:    showPlain || color.NoColor,
		MaxWidth: shared.GetTerminalWidth(),
	})
}
