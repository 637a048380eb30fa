package classify

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
)

// ParseResult is the outcome of validating an external classifier response.
// When OK is false, Map is nil and Reason says why; callers use Fallback.
type ParseResult struct {
	Map    changelog.CategoryMap
	OK     bool
	Reason string
	// Dropped lists keys that were ignored: unknown categories or values
	// that were not arrays of strings.
	Dropped []string
}

// ParseCategoryMap validates a JSON object shaped like
// {"Added": ["..."], "Fixed": [...]}. Keys are mapped onto the vocabulary
// with changelog.NormalizeCategory. Entries whose value is not an array of
// strings are dropped. At least one valid entry is required.
func ParseCategoryMap(data []byte) ParseResult {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ParseResult{Reason: fmt.Sprintf("response is not a JSON object: %v", err)}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m := changelog.CategoryMap{}
	var dropped []string
	for _, k := range keys {
		c, ok := changelog.NormalizeCategory(k)
		if !ok {
			dropped = append(dropped, k)
			continue
		}
		var titles []string
		if err := json.Unmarshal(raw[k], &titles); err != nil || titles == nil {
			dropped = append(dropped, k)
			continue
		}
		for _, t := range titles {
			t = strings.TrimSpace(t)
			if t != "" && !slices.Contains(m[c], t) {
				m[c] = append(m[c], t)
			}
		}
		if _, ok := m[c]; !ok {
			m[c] = []string{}
		}
	}

	if len(m) == 0 {
		return ParseResult{Reason: "response has no category arrays", Dropped: dropped}
	}
	return ParseResult{Map: m, OK: true, Dropped: dropped}
}

// Fallback puts every title in Chore.
func Fallback(titles []string) changelog.CategoryMap {
	return changelog.CategoryMap{changelog.Chore: slices.Clone(titles)}
}

// FillMissing appends to Chore every title that m does not list anywhere.
func FillMissing(m changelog.CategoryMap, titles []string) changelog.CategoryMap {
	out := m.Clone()
	listed := map[string]bool{}
	for _, t := range out.Titles() {
		listed[t] = true
	}
	for _, t := range titles {
		if !listed[t] {
			out[changelog.Chore] = append(out[changelog.Chore], t)
			listed[t] = true
		}
	}
	return out
}
