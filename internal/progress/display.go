package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const spinnerDelay = 100 * time.Millisecond

// ProgressDisplay prints one line per stage. On a TTY the running stage is
// shown with a spinner that is replaced by the final status line.
type ProgressDisplay struct {
	caps    TerminalCapabilities
	symbols ProgressSymbols
	out     io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
	started time.Time
}

// NewProgressDisplay creates a display writing to out.
func NewProgressDisplay(caps TerminalCapabilities, out io.Writer) *ProgressDisplay {
	return &ProgressDisplay{
		caps:    caps,
		symbols: SelectSymbols(caps),
		out:     out,
	}
}

// StartStage shows info as running.
func (d *ProgressDisplay) StartStage(info StageInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.started = time.Now()
	if !d.caps.IsTTY {
		_, err := fmt.Fprintf(d.out, "%s...\n", info.label())
		return err
	}
	s := spinner.New(spinner.CharSets[d.symbols.SpinnerSet], spinnerDelay, spinner.WithWriter(d.out))
	s.Suffix = " " + info.label()
	s.Start()
	d.spinner = s
	return nil
}

// CompleteStage marks info as done.
func (d *ProgressDisplay) CompleteStage(info StageInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	return d.finish(d.symbols.Checkmark, color.FgGreen, info, "")
}

// FailStage marks info as failed with err.
func (d *ProgressDisplay) FailStage(info StageInfo, err error) error {
	if verr := info.Validate(); verr != nil {
		return verr
	}
	detail := ""
	if err != nil {
		detail = ": " + err.Error()
	}
	return d.finish(d.symbols.Failure, color.FgRed, info, detail)
}

// StopSpinner stops a running spinner without printing a status.
func (d *ProgressDisplay) StopSpinner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *ProgressDisplay) finish(symbol string, attr color.Attribute, info StageInfo, detail string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if d.caps.SupportsColor {
		symbol = color.New(attr).Sprint(symbol)
	}
	elapsed := ""
	if !d.started.IsZero() {
		elapsed = fmt.Sprintf(" (%s)", time.Since(d.started).Round(100*time.Millisecond))
		d.started = time.Time{}
	}
	_, err := fmt.Fprintf(d.out, "%s %s%s%s\n", symbol, info.label(), elapsed, detail)
	return err
}

func (d *ProgressDisplay) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
