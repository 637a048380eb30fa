package classify

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules is the compiled, immutable form of a rule table. Build it once with
// LoadRules or Default and share it between scorers.
type Rules struct {
	ngramMaxWords int

	breaking       changelog.Category
	breakingWeight int
	prefixes       []prefixRule

	strong     map[string][]keywordHit
	weak       map[string][]keywordHit
	negatives  []string
	penalty    int
	penaltyFor []changelog.Category

	combos []comboRule
	bump   *bumpRule
}

type prefixRule struct {
	category changelog.Category
	types    []string
	weight   int
}

type keywordHit struct {
	category changelog.Category
	weight   int
}

type comboRule struct {
	name    string
	pattern *regexp.Regexp
	deltas  map[changelog.Category]int
}

type bumpRule struct {
	pattern *regexp.Regexp
	deltas  map[changelog.Category]int
	major   *comboRule
}

// rulesFile mirrors rules.yaml.
type rulesFile struct {
	NgramMaxWords int `yaml:"ngram_max_words"`
	Prefix        struct {
		BreakingMarker struct {
			Category string `yaml:"category"`
			Weight   int    `yaml:"weight"`
		} `yaml:"breaking_marker"`
		Types []struct {
			Category string   `yaml:"category"`
			Types    []string `yaml:"types"`
			Weight   int      `yaml:"weight"`
		} `yaml:"types"`
	} `yaml:"prefix"`
	Strong struct {
		DefaultWeight int                       `yaml:"default_weight"`
		Keywords      map[string][]keywordEntry `yaml:"keywords"`
	} `yaml:"strong"`
	Weak struct {
		Weight   int                 `yaml:"weight"`
		Keywords map[string][]string `yaml:"keywords"`
	} `yaml:"weak"`
	Negative struct {
		Penalty  int      `yaml:"penalty"`
		Targets  []string `yaml:"targets"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"negative"`
	Combos []comboEntry `yaml:"combos"`
	Bump   *struct {
		Pattern string         `yaml:"pattern"`
		Deltas  map[string]int `yaml:"deltas"`
		Major   *comboEntry    `yaml:"major"`
	} `yaml:"bump"`
}

type comboEntry struct {
	Name    string         `yaml:"name"`
	Pattern string         `yaml:"pattern"`
	Deltas  map[string]int `yaml:"deltas"`
}

// keywordEntry is either a bare keyword or {keyword, weight}.
type keywordEntry struct {
	Keyword string `yaml:"keyword"`
	Weight  int    `yaml:"weight"`
}

func (k *keywordEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		k.Keyword = node.Value
		return nil
	}
	type plain keywordEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*k = keywordEntry(p)
	return nil
}

// LoadDefault compiles the embedded rule table. Each call builds a new
// table; callers compile it once at startup and share the result.
func LoadDefault() (*Rules, error) {
	r, err := LoadRules(defaultRulesYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded classifier rules: %w", err)
	}
	return r, nil
}

// LoadRulesFile reads and compiles a rule table from disk.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	r, err := LoadRules(data)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", path, err)
	}
	return r, nil
}

// LoadRules compiles a YAML rule table. Unknown categories and invalid
// patterns are errors.
func LoadRules(data []byte) (*Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	r := &Rules{
		ngramMaxWords: f.NgramMaxWords,
		strong:        make(map[string][]keywordHit),
		weak:          make(map[string][]keywordHit),
		penalty:       f.Negative.Penalty,
		negatives:     slices.Clone(f.Negative.Keywords),
	}

	if f.Prefix.BreakingMarker.Category != "" {
		c, err := category(f.Prefix.BreakingMarker.Category)
		if err != nil {
			return nil, fmt.Errorf("prefix.breaking_marker: %w", err)
		}
		r.breaking = c
		r.breakingWeight = f.Prefix.BreakingMarker.Weight
	}

	for i, p := range f.Prefix.Types {
		c, err := category(p.Category)
		if err != nil {
			return nil, fmt.Errorf("prefix.types[%d]: %w", i, err)
		}
		if len(p.Types) == 0 {
			return nil, fmt.Errorf("prefix.types[%d]: no types listed", i)
		}
		r.prefixes = append(r.prefixes, prefixRule{category: c, types: p.Types, weight: p.Weight})
	}

	for name, entries := range f.Strong.Keywords {
		c, err := category(name)
		if err != nil {
			return nil, fmt.Errorf("strong.keywords: %w", err)
		}
		for _, e := range entries {
			w := e.Weight
			if w == 0 {
				w = f.Strong.DefaultWeight
			}
			r.strong[e.Keyword] = append(r.strong[e.Keyword], keywordHit{category: c, weight: w})
		}
	}

	for name, keywords := range f.Weak.Keywords {
		c, err := category(name)
		if err != nil {
			return nil, fmt.Errorf("weak.keywords: %w", err)
		}
		for _, kw := range keywords {
			r.weak[kw] = append(r.weak[kw], keywordHit{category: c, weight: f.Weak.Weight})
		}
	}

	for _, name := range f.Negative.Targets {
		c, err := category(name)
		if err != nil {
			return nil, fmt.Errorf("negative.targets: %w", err)
		}
		r.penaltyFor = append(r.penaltyFor, c)
	}

	for i, e := range f.Combos {
		combo, err := compileCombo(e)
		if err != nil {
			return nil, fmt.Errorf("combos[%d]: %w", i, err)
		}
		r.combos = append(r.combos, *combo)
	}

	if f.Bump != nil {
		bump, err := compileCombo(comboEntry{Name: "bump", Pattern: f.Bump.Pattern, Deltas: f.Bump.Deltas})
		if err != nil {
			return nil, fmt.Errorf("bump: %w", err)
		}
		r.bump = &bumpRule{pattern: bump.pattern, deltas: bump.deltas}
		if f.Bump.Major != nil {
			major, err := compileCombo(*f.Bump.Major)
			if err != nil {
				return nil, fmt.Errorf("bump.major: %w", err)
			}
			if major.pattern.NumSubexp() < 2 {
				return nil, fmt.Errorf("bump.major: pattern must capture the from and to versions")
			}
			r.bump.major = major
		}
	}

	return r, nil
}

func compileCombo(e comboEntry) (*comboRule, error) {
	re, err := regexp.Compile("(?i)" + e.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", e.Pattern, err)
	}
	deltas := make(map[changelog.Category]int, len(e.Deltas))
	for name, d := range e.Deltas {
		c, err := category(name)
		if err != nil {
			return nil, err
		}
		deltas[c] = d
	}
	return &comboRule{name: e.Name, pattern: re, deltas: deltas}, nil
}

func category(name string) (changelog.Category, error) {
	for _, c := range changelog.Order {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}
