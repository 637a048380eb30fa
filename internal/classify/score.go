// Package classify scores free-text titles against the changelog categories
// and validates category maps returned by external classifiers.
//
// Scoring is a pure function of the title, the compiled Rules and the
// Params. A title wins a category only when its top score reaches
// Params.MinScore and leads the runner-up by at least Params.Margin;
// otherwise the result is inconclusive and the caller picks a fallback.
package classify

import (
	"strconv"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/title"
)

// Scores holds one total per category.
type Scores map[changelog.Category]int

// Scorer applies one rule table with one set of parameters.
type Scorer struct {
	rules  *Rules
	params Params
}

// NewScorer returns a scorer. A nil rules value is an empty table, so every
// title scores zero and is inconclusive.
func NewScorer(rules *Rules, params Params) *Scorer {
	if rules == nil {
		rules = &Rules{}
	}
	return &Scorer{rules: rules, params: params}
}

// Params returns the scorer's parameters.
func (s *Scorer) Params() Params {
	return s.params
}

// Score computes per-category totals for a raw title (conventional prefix
// included). Every vocabulary category is present in the result.
func (s *Scorer) Score(raw string) Scores {
	scores := make(Scores, len(changelog.Order))
	for _, c := range changelog.Order {
		scores[c] = 0
	}
	if strings.TrimSpace(raw) == "" {
		return scores
	}

	r := s.rules
	normalized := title.Normalize(raw)
	phrases := s.phrases(normalized)

	// Prefix family: highest weight per category.
	prefix := map[changelog.Category]int{}
	if r.breaking != "" && title.HasBreakingMarker(raw) {
		prefix[r.breaking] = r.breakingWeight
	}
	kind := title.Kind(raw)
	for _, p := range r.prefixes {
		for _, t := range p.types {
			if kind == t {
				prefix[p.category] = max(prefix[p.category], p.weight)
			}
		}
	}
	add(scores, prefix)

	add(scores, familyMax(r.strong, phrases))
	add(scores, familyMax(r.weak, phrases))

	if r.penalty > 0 && len(r.penaltyFor) > 0 && hasAny(phrases, r.negatives) {
		target := r.penaltyFor[0]
		for _, c := range r.penaltyFor[1:] {
			if scores[c] > scores[target] {
				target = c
			}
		}
		scores[target] = max(scores[target]-r.penalty, 0)
	}

	for _, combo := range r.combos {
		if combo.pattern.MatchString(normalized) {
			add(scores, combo.deltas)
		}
	}

	if r.bump != nil && r.bump.pattern.MatchString(normalized) {
		add(scores, r.bump.deltas)
		if m := r.bump.major; m != nil {
			if sub := m.pattern.FindStringSubmatch(normalized); sub != nil {
				from, errFrom := strconv.Atoi(sub[1])
				to, errTo := strconv.Atoi(sub[2])
				if errFrom == nil && errTo == nil && to > from {
					add(scores, m.deltas)
				}
			}
		}
	}

	for c, v := range scores {
		scores[c] = min(max(v, 0), s.params.MaxScore)
	}
	return scores
}

// Best picks the winning category under the minimum-score and margin rule.
// Ties go to the category that comes first in changelog.Order.
func (s *Scorer) Best(scores Scores) (changelog.Category, bool) {
	var top, second changelog.Category
	for _, c := range changelog.Order {
		switch {
		case top == "" || scores[c] > scores[top]:
			second = top
			top = c
		case second == "" || scores[c] > scores[second]:
			second = c
		}
	}
	if top == "" {
		return "", false
	}
	runnerUp := 0
	if second != "" {
		runnerUp = scores[second]
	}
	if scores[top] >= s.params.MinScore && scores[top]-runnerUp >= s.params.Margin {
		return top, true
	}
	return "", false
}

// Classify scores raw and returns the winning category, if any.
func (s *Scorer) Classify(raw string) (changelog.Category, Scores, bool) {
	scores := s.Score(raw)
	c, ok := s.Best(scores)
	return c, scores, ok
}

// Promotion returns the category a title may be promoted into: the winner
// must have a threshold in Params and reach it.
func (s *Scorer) Promotion(raw string) (changelog.Category, bool) {
	c, scores, ok := s.Classify(raw)
	if !ok {
		return "", false
	}
	threshold, ok := s.params.Threshold(c)
	if !ok || scores[c] < threshold {
		return "", false
	}
	return c, true
}

// phrases returns the words of normalized plus, for titles no longer than
// the n-gram limit, its bigrams and trigrams.
func (s *Scorer) phrases(normalized string) map[string]bool {
	words := strings.Fields(normalized)
	set := make(map[string]bool, len(words)*3)
	for _, w := range words {
		set[w] = true
	}
	if len(words) > s.rules.ngramMaxWords {
		return set
	}
	for i := 0; i+1 < len(words); i++ {
		set[words[i]+" "+words[i+1]] = true
	}
	for i := 0; i+2 < len(words); i++ {
		set[words[i]+" "+words[i+1]+" "+words[i+2]] = true
	}
	return set
}

func familyMax(index map[string][]keywordHit, phrases map[string]bool) map[changelog.Category]int {
	deltas := map[changelog.Category]int{}
	for phrase := range phrases {
		for _, hit := range index[phrase] {
			deltas[hit.category] = max(deltas[hit.category], hit.weight)
		}
	}
	return deltas
}

func hasAny(phrases map[string]bool, keywords []string) bool {
	for _, kw := range keywords {
		if phrases[kw] {
			return true
		}
	}
	return false
}

func add(scores Scores, deltas map[changelog.Category]int) {
	for c, d := range deltas {
		scores[c] += d
	}
}
