// Package util provides utility commands that are not part of a run.
package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/build"
	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/changelog-bot"

const (
	boxWidth   = 44
	labelWidth = 10
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for changelog-bot",
	Example: `  # Show version info
  changelog-bot version

  # Plain output (for scripts)
  changelog-bot version --plain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionPlain || color.NoColor {
			printPlainVersion(cmd.OutOrStdout())
			return
		}
		printPrettyVersion(cmd.OutOrStdout(), shared.GetTerminalWidth())
	},
}

func init() {
	versionCmd.GroupID = shared.GroupInspect
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// Register adds the utility commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(versionCmd)
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer) {
	fmt.Fprintf(w, "changelog-bot %s\n", build.Version)
	fmt.Fprintf(w, "commit: %s\n", build.Commit)
	fmt.Fprintf(w, "built: %s\n", build.BuildDate)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printPrettyVersion prints the version info in a centered box
func printPrettyVersion(w io.Writer, termWidth int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	info := []struct {
		label string
		value string
	}{
		{"Version", build.Version},
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}

	width := boxWidth
	if termWidth < boxWidth+6 {
		width = max(termWidth-6, labelWidth+12)
	}
	pad := strings.Repeat(" ", max((termWidth-width)/2, 0))

	fmt.Fprintln(w)
	fmt.Fprintln(w, pad+cyan(centerText("changelog-bot", width)))
	fmt.Fprintln(w, pad+"┌"+strings.Repeat("─", width-2)+"┐")
	for _, item := range info {
		label := fmt.Sprintf("%*s", labelWidth, item.label)
		line := fmt.Sprintf("  %s    %s", yellow(label), white(item.value))
		// Pad by visible width; color codes do not count.
		visible := 2 + labelWidth + 4 + len(item.value)
		if fill := width - 2 - visible; fill > 0 {
			line += strings.Repeat(" ", fill)
		}
		fmt.Fprintln(w, pad+"│"+line+"│")
	}
	fmt.Fprintln(w, pad+"└"+strings.Repeat("─", width-2)+"┘")
	fmt.Fprintln(w)
}

func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
