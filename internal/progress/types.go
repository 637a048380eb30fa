// Package progress renders stage progress for long-running network steps:
// a spinner on terminals, plain lines everywhere else.
package progress

import "fmt"

// TerminalCapabilities describes what the output terminal can render.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// ProgressSymbols are the markers used for completed and failed stages.
type ProgressSymbols struct {
	Checkmark string
	Failure   string
	// SpinnerSet indexes spinner.CharSets.
	SpinnerSet int
}

// StageInfo identifies one stage of a run.
type StageInfo struct {
	Name        string
	Number      int
	TotalStages int
}

// Validate checks that the stage is displayable.
func (s StageInfo) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	if s.TotalStages < 0 || s.Number < 0 || (s.TotalStages > 0 && s.Number > s.TotalStages) {
		return fmt.Errorf("stage %q: number %d out of range 1..%d", s.Name, s.Number, s.TotalStages)
	}
	return nil
}

func (s StageInfo) label() string {
	if s.TotalStages == 0 {
		return s.Name
	}
	return fmt.Sprintf("[%d/%d] %s", s.Number, s.TotalStages, s.Name)
}
