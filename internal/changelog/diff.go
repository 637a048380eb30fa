package changelog

import "strings"

// DiffOp marks one line of a diff transcript.
type DiffOp byte

// Diff operations, rendered as the line prefix.
const (
	OpContext DiffOp = ' '
	OpAdd     DiffOp = '+'
	OpRemove  DiffOp = '-'
)

// DiffLine is one transcript line.
type DiffLine struct {
	Op   DiffOp
	Text string
}

// DefaultDiffName labels both sides of the preview header.
const DefaultDiffName = "CHANGELOG.md"

// Diff renders a unified-style preview of two documents labeled CHANGELOG.md.
func Diff(oldText, newText string) string {
	return DiffNamed(DefaultDiffName, oldText, newText)
}

// DiffNamed renders "--- a/<name>", "+++ b/<name>" and one prefixed line per
// transcript entry. It is a preview only; nothing parses it back.
func DiffNamed(name, oldText, newText string) string {
	lines := DiffLines(oldText, newText)
	out := make([]string, 0, len(lines)+2)
	out = append(out, "--- a/"+name, "+++ b/"+name)
	for _, l := range lines {
		out = append(out, string(l.Op)+l.Text)
	}
	return strings.Join(out, "\n")
}

// DiffLines computes a minimal line transcript from a longest common
// subsequence. When both sides could advance, a removal is preferred if
// skipping the old line keeps at least as long a common subsequence.
func DiffLines(oldText, newText string) []DiffLine {
	a, b := splitDiffLines(oldText), splitDiffLines(newText)

	switch {
	case oldText == newText:
		return tag(OpContext, a)
	case len(a) == 0:
		return tag(OpAdd, b)
	case len(b) == 0:
		return tag(OpRemove, a)
	}

	// Equal leading lines are context in the cursor walk as well, so keep
	// them out of the table.
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}

	return append(tag(OpContext, a[:prefix]), lcsTranscript(a[prefix:], b[prefix:])...)
}

func lcsTranscript(a, b []string) []DiffLine {
	n, m := len(a), len(b)
	// dp[i][j] is the LCS length of a[i:] and b[j:].
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}

	out := make([]DiffLine, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			out = append(out, DiffLine{OpContext, a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			out = append(out, DiffLine{OpRemove, a[i]})
			i++
		default:
			out = append(out, DiffLine{OpAdd, b[j]})
			j++
		}
	}
	out = append(out, tag(OpRemove, a[i:])...)
	return append(out, tag(OpAdd, b[j:])...)
}

// splitDiffLines treats the empty string as zero lines.
func splitDiffLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func tag(op DiffOp, lines []string) []DiffLine {
	out := make([]DiffLine, len(lines))
	for i, l := range lines {
		out[i] = DiffLine{Op: op, Text: l}
	}
	return out
}
