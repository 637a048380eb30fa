package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/cli/shared"
	"github.com/ariel-frischer/changelog-bot/internal/config"
	clierrors "github.com/ariel-frischer/changelog-bot/internal/errors"
)

var scoreCmd = &cobra.Command{
	Use:   "score <title>...",
	Short: "Show how the keyword scorer rates PR titles",
	Long: `Score each title against the classifier rules and print the points per
category together with the winner. A title is inconclusive when no category
reaches min_score or the lead over the runner-up is below margin.

Rules and thresholds come from the loaded configuration, so this is the
quickest way to check a custom rules_file.`,
	Example: `  changelog-bot score "feat: add dark mode"
  changelog-bot score "bump lodash from 4.17.20 to 4.17.21" "fix typo in docs"`,
	Args: argsWithUsage(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithOptions(config.LoadOptions{
			ConfigPath:    configPath,
			WarningWriter: cmd.ErrOrStderr(),
		})
		if err != nil {
			return clierrors.ConfigInvalid(err)
		}
		scorer, err := newScorer(cfg)
		if err != nil {
			return clierrors.ConfigInvalid(err)
		}
		for i, title := range args {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			best, scores, ok := scorer.Classify(title)
			printScores(cmd.OutOrStdout(), title, scores, best, ok)
		}
		return nil
	},
}

func init() {
	scoreCmd.GroupID = shared.GroupInspect
	rootCmd.AddCommand(scoreCmd)
}

func printScores(w io.Writer, title string, scores map[changelog.Category]int, best changelog.Category, ok bool) {
	fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprint(title))
	width := 0
	for _, c := range changelog.Order {
		width = max(width, len(c))
	}
	for _, c := range changelog.Order {
		points := scores[c]
		line := fmt.Sprintf("  %-*s %3d %s", width, c, points, strings.Repeat("#", points))
		switch {
		case ok && c == best:
			line = color.GreenString("%s", line)
		case points == 0:
			line = color.HiBlackString("%s", line)
		}
		fmt.Fprintln(w, line)
	}
	if ok {
		fmt.Fprintf(w, "  => %s\n", color.GreenString("%s", best))
		return
	}
	fmt.Fprintf(w, "  => %s\n", color.YellowString("inconclusive"))
}
