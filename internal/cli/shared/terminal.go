package shared

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultTerminalWidth is used when the width cannot be determined.
const DefaultTerminalWidth = 80

// GetTerminalWidth returns the width of stdout, or DefaultTerminalWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// AsFile returns w as an *os.File when it is one.
func AsFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}
