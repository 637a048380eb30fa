package classify

import "github.com/ariel-frischer/changelog-bot/internal/changelog"

// Params holds the decision constants of the scorer.
type Params struct {
	// MinScore is the lowest top score that can win.
	MinScore int
	// Margin is how far the top score must lead the runner-up.
	Margin int
	// MaxScore clamps every category total.
	MaxScore int
	// Thresholds is the score a category needs before the tuner will promote
	// a title out of a weak bucket into it. Categories without an entry are
	// never promotion targets.
	Thresholds map[changelog.Category]int
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		MinScore: 4,
		Margin:   2,
		MaxScore: 12,
		Thresholds: map[changelog.Category]int{
			changelog.Fixed:    4,
			changelog.Changed:  4,
			changelog.Added:    4,
			changelog.Breaking: 6,
		},
	}
}

// Threshold returns the promotion threshold for c.
func (p Params) Threshold(c changelog.Category) (int, bool) {
	t, ok := p.Thresholds[c]
	return t, ok
}
