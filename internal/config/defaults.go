package config

// GetDefaultConfigTemplate returns a fully commented project config template
// written by 'changelog-bot config init'.
func GetDefaultConfigTemplate() string {
	return `# changelog-bot configuration
# See 'changelog-bot config keys' for all options. Secrets (GITHUB_TOKEN,
# OPENAI_API_KEY, ANTHROPIC_API_KEY, CHANGELOG_BOT_APP_*) are read from the
# environment only.

changelog_path: CHANGELOG.md          # File to update
base_branch: main                     # Base of the changelog pull request

# Model provider
provider: openai                      # openai | anthropic | command | none
model: ""                             # Overrides openai_model / anthropic_model
openai_model: ""                      # Empty = gpt-4o-mini
anthropic_model: ""                   # Empty = claude-3-5-sonnet-20240620
# command: "my-classifier --json {{PROMPT}}"  # Required when provider is command

# GitHub
repository: ""                        # owner/name (empty = derive from origin remote)
api_base: https://api.github.com
timeout: 300                          # Whole-run timeout in seconds (0 = none)
lookup_limit: 200                     # Max commits looked up for PR associations
lookup_concurrency: 8                 # Parallel GitHub lookups

# Prompt budgets
changelog_preview_limit: 60000        # Characters of the existing changelog sent to the model
truncate_limit: 4000                  # Release body / git log size on the retry

# Pull request
pr:
  labels: [changelog, release]
  branch_prefix: chore/changelog-v
  title_prefix: "docs(changelog): "

# Heuristic classifier
classifier:
  min_score: 4                        # Lowest winning score
  margin: 2                           # Lead required over the runner-up
  max_score: 12                       # Per-category clamp
  thresholds:                         # Promotion thresholds per category
    fixed: 4
    changed: 4
    added: 4
    breaking: 6
  rules_file: ""                      # YAML rule table replacing the built-in one
`
}

// GetDefaults returns the default configuration values.
func GetDefaults() map[string]any {
	return map[string]any{
		"changelog_path": "CHANGELOG.md",
		"base_branch":    "main",
		"provider":       "openai",
		"api_base":       "https://api.github.com",
		"timeout":        300,
		// lookup_limit caps commit→PR association calls so large ranges do not
		// exhaust the GitHub rate limit.
		"lookup_limit":            200,
		"lookup_concurrency":      8,
		"changelog_preview_limit": 60000,
		"truncate_limit":          4000,
		"pr": map[string]any{
			"labels":        []string{"changelog", "release"},
			"branch_prefix": "chore/changelog-v",
			"title_prefix":  "docs(changelog): ",
		},
		"classifier": map[string]any{
			"min_score": 4,
			"margin":    2,
			"max_score": 12,
			"thresholds": map[string]any{
				"fixed":    4,
				"changed":  4,
				"added":    4,
				"breaking": 6,
			},
			"rules_file": "",
		},
	}
}
