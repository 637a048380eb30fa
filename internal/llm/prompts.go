package llm

const releaseNotesSystemPrompt = `You are a release notes editor for a repository.
Follow "Keep a Changelog" + SemVer.
Read the provided commits and PRs, deduplicate them, and produce a clean, human-readable changelog section.
Output MUST be a SINGLE JSON object (no prose) with these keys:
- new_section_markdown (string): a complete Markdown section:
  - Header: "## [version] - date"
  - Subsections: zero or more of "### Breaking Changes", "### Added", "### Fixed", "### Changed", "### Docs", "### Test", "### Chore", "### Reverted"
  - Bullets: concise, imperative voice ("Add X", "Fix Y"), no commit hashes
- insert_after_anchor (string): exactly "## [Unreleased]"
- compare_link_line (string): leave empty
- unreleased_compare_update (string): leave empty
- pr_title (string), pr_body (string), labels (string[])

Rules:
- Use only the given commits, PRs or releaseBody. Do not invent items.
- Merge duplicates and group related changes under one subsection.
- Prefer user-facing impact; internal chores go under "Chore".
- Keep bullets under 88 characters.
- Never wrap the JSON in backticks or code fences.`

const classifySystemPrompt = `Classify each pull request title into one of the given categories. ` +
	`Return a JSON object whose keys are those categories and whose values are arrays of titles. ` +
	`Use only the provided categories.`

// outputSchema is the JSON Schema sent alongside generation prompts.
var outputSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"new_section_markdown":      map[string]any{"type": "string"},
		"insert_after_anchor":       map[string]any{"type": "string"},
		"compare_link_line":         map[string]any{"type": "string"},
		"unreleased_compare_update": map[string]any{"type": "string"},
		"pr_title":                  map[string]any{"type": "string"},
		"pr_body":                   map[string]any{"type": "string"},
		"labels":                    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": requiredOutputKeys,
}

var requiredOutputKeys = []string{"new_section_markdown", "pr_title", "pr_body"}

type classifyPrompt struct {
	Titles     []string `json:"titles"`
	Categories []string `json:"categories"`
}

type generatePrompt struct {
	Input
	RequiredJSONSchema map[string]any `json:"requiredJsonSchema"`
}
