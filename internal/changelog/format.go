package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// CategoryStyle defines the color and icon for a changelog category.
type CategoryStyle struct {
	Color *color.Color
	Icon  string
}

// categoryStyles maps categories to their terminal styling.
var categoryStyles = map[Category]CategoryStyle{
	Breaking: {Color: color.New(color.FgRed, color.Bold), Icon: "!"},
	Added:    {Color: color.New(color.FgGreen), Icon: "✓"},
	Fixed:    {Color: color.New(color.FgYellow), Icon: "⚡"},
	Changed:  {Color: color.New(color.FgBlue), Icon: "~"},
	Docs:     {Color: color.New(color.FgCyan), Icon: "✎"},
	Test:     {Color: color.New(color.FgMagenta), Icon: "⚙"},
	Chore:    {Color: color.New(color.FgWhite), Icon: "·"},
	Reverted: {Color: color.New(color.FgRed), Icon: "↺"},
}

// StyleFor returns the style of c. Unknown categories render uncolored.
func StyleFor(c Category) CategoryStyle {
	if s, ok := categoryStyles[c]; ok {
		return s
	}
	return CategoryStyle{Color: color.New(color.Reset), Icon: "-"}
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

var (
	addedLine   = color.New(color.FgGreen)
	removedLine = color.New(color.FgRed)
	headerLine  = color.New(color.Bold)
)

// FormatDiff writes a diff preview with added lines in green and removed
// lines in red. The two header lines are bold.
func FormatDiff(diff string, w io.Writer, opts FormatOptions) error {
	for i, line := range strings.Split(diff, "\n") {
		out := line
		if !opts.Plain {
			switch {
			case i < 2 && (strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ")):
				out = headerLine.Sprint(line)
			case strings.HasPrefix(line, string(OpAdd)):
				out = addedLine.Sprint(line)
			case strings.HasPrefix(line, string(OpRemove)):
				out = removedLine.Sprint(line)
			}
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

// FormatSection writes a section body with colored category headings and
// bullets wrapped to the terminal width.
func FormatSection(body string, w io.Writer, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)
	style := StyleFor("")

	for _, line := range strings.Split(body, "\n") {
		if m := h3HeadingRe.FindStringSubmatch(line); m != nil {
			if err := writeCategoryHeader(m[1], &style, w, opts); err != nil {
				return err
			}
			continue
		}
		if err := writeEntry(line, style, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// writeCategoryHeader writes the heading line and switches style to the
// heading's category.
func writeCategoryHeader(heading string, style *CategoryStyle, w io.Writer, opts FormatOptions) error {
	c, ok := NormalizeCategory(heading)
	if !ok {
		c = Category(heading)
	}
	*style = StyleFor(c)

	if opts.Plain {
		_, err := fmt.Fprintf(w, "### %s\n", heading)
		return err
	}
	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s %s\n", colored(style.Icon), colored(heading))
	return err
}

// writeEntry writes one body line, wrapping bullets when colored.
func writeEntry(line string, style CategoryStyle, w io.Writer, opts FormatOptions, width int) error {
	m := bulletPartsRe.FindStringSubmatch(line)
	if opts.Plain || m == nil {
		_, err := fmt.Fprintln(w, line)
		return err
	}

	prefix := "  - "
	wrapped := wrapText(m[2], width-len(prefix), "    ")
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, style.Color.Sprint(wrapped))
	return err
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}

// TruncateText truncates text to maxLen bytes, adding an ellipsis if needed.
func TruncateText(text string, maxLen int) string {
	if maxLen <= 3 || len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
