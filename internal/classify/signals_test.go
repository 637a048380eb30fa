package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
)

func TestIsImplicitFix(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  bool
	}{
		"tighten option type":      {input: "refactor: tighten option type", want: true},
		"d.ts correction":          {input: "chore: correct d.ts export", want: true},
		"typing mismatch":          {input: "Typing mismatch in config loader", want: true},
		"typo is not a type":       {input: "docs: fix typo in readme", want: false},
		"type without fix verb":    {input: "docs: update type definitions", want: false},
		"fix without type mention": {input: "fix: crash on null", want: false},
		"empty":                    {input: "", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsImplicitFix(tt.input))
		})
	}
}

func TestIsChangeLike(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  bool
	}{
		"improve":    {input: "perf: improve startup", want: true},
		"fine-tune":  {input: "chore: fine-tune retries", want: true},
		"streamline": {input: "Streamline release flow", want: true},
		"feature":    {input: "feat: add login", want: false},
		"empty":      {input: "", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsChangeLike(tt.input))
		})
	}
}

func TestIsDependencyUpdate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  bool
	}{
		"deps scope":               {input: "chore(deps): bump lodash", want: true},
		"deps-dev scope":           {input: "build(deps-dev): bump jest from 29 to 30", want: true},
		"bot mention":              {input: "Bump foo via Dependabot", want: true},
		"renovate":                 {input: "chore: configure renovate", want: true},
		"plural with action":       {input: "chore: update dependencies", want: true},
		"singular with version":    {input: "chore: bump dependency foo to 2.0", want: true},
		"singular without version": {input: "chore: bump dependency foo", want: false},
		"dependency injection":     {input: "feat: add dependency injection", want: false},
		"bullet line":              {input: "- chore(deps): pin esbuild", want: true},
		"plural without action":    {input: "docs: explain deps", want: false},
		"unrelated":                {input: "fix: crash on null", want: false},
		"empty":                    {input: "  ", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsDependencyUpdate(tt.input))
		})
	}
}

func TestTitlesForClassification(t *testing.T) {
	t.Parallel()

	items := []changelog.Item{
		{Title: "tighten option type", RawTitle: "refactor: tighten option type"},
		{Title: "improve startup time"},
		{Title: "faster parse", RawTitle: "perf: faster parse"},
		{Title: "crash on null input"},
		{Title: "add login option"},
		{Title: "update readme"},
		{},
		{Title: "crash", RawTitle: "fix: crash"},
	}

	got := TitlesForClassification(items, NewScorer(defaultRules(t), DefaultParams()))

	assert.Equal(t, []string{
		"fix: tighten option type",
		"refactor: improve startup time",
		"perf: faster parse",
		"fix: crash on null input",
		"feat: add login option",
		"update readme",
		"fix: crash",
	}, got)
}
