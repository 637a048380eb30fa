package pipeline

import (
	"github.com/ariel-frischer/changelog-bot/internal/progress"
)

// Stage names, in run order.
const (
	stageRefs    = "Resolving release range"
	stageHistory = "Reading history"
	stageLookup  = "Looking up pull requests"
	stageCompose = "Composing section"
	stageMerge   = "Merging changelog"
	stageCount   = 5
)

// stageController reports stage progress. With a nil display every method is
// a no-op, and display errors never fail a run.
type stageController struct {
	display *progress.ProgressDisplay
	current progress.StageInfo
	n       int
}

func newStageController(display *progress.ProgressDisplay) *stageController {
	return &stageController{display: display}
}

func (s *stageController) start(name string) {
	s.n++
	s.current = progress.StageInfo{Name: name, Number: s.n, TotalStages: stageCount}
	if s.display == nil {
		return
	}
	if err := s.display.StartStage(s.current); err != nil {
		logDebug("[pipeline] starting stage display: %v", err)
	}
}

func (s *stageController) done() {
	if s.display == nil {
		return
	}
	if err := s.display.CompleteStage(s.current); err != nil {
		logDebug("[pipeline] completing stage display: %v", err)
	}
}

func (s *stageController) fail(err error) {
	if s.display == nil {
		return
	}
	_ = s.display.FailStage(s.current, err)
}
