// Package config provides layered configuration for changelog-bot using koanf.
// Values are loaded with priority: CHANGELOG_BOT_* environment variables >
// well-known variables (GITHUB_REPOSITORY, GITHUB_API_BASE, OPENAI_MODEL, ...)
// > project config (.changelog-bot.yml, or .changelog-bot.json) > user config
// (~/.config/changelog-bot/config.yml) > defaults. Command-line flags are
// applied on top by the CLI.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/changelog-bot/internal/changelog"
	"github.com/ariel-frischer/changelog-bot/internal/classify"
)

// EnvPrefix namespaces the tool's own environment variables.
const EnvPrefix = "CHANGELOG_BOT_"

// Configuration is the effective, non-secret configuration of one run.
type Configuration struct {
	ChangelogPath string `koanf:"changelog_path" yaml:"changelog_path" validate:"required"`
	BaseBranch    string `koanf:"base_branch" yaml:"base_branch" validate:"required"`

	// Provider selects the model backend: openai | anthropic | command | none.
	Provider string `koanf:"provider" yaml:"provider" validate:"oneof=openai anthropic command none"`
	// Model overrides the provider-specific model when set.
	Model          string `koanf:"model" yaml:"model"`
	OpenAIModel    string `koanf:"openai_model" yaml:"openai_model"`
	AnthropicModel string `koanf:"anthropic_model" yaml:"anthropic_model"`
	OpenAIBase     string `koanf:"openai_base_url" yaml:"openai_base_url" validate:"omitempty,url"`
	AnthropicBase  string `koanf:"anthropic_base_url" yaml:"anthropic_base_url" validate:"omitempty,url"`
	// Command is the custom classifier template; it must contain {{PROMPT}}.
	Command string `koanf:"command" yaml:"command"`

	// Repository is owner/name. Empty means "derive from the origin remote".
	Repository string `koanf:"repository" yaml:"repository"`
	APIBase    string `koanf:"api_base" yaml:"api_base" validate:"omitempty,url"`
	// Timeout bounds the whole run in seconds; 0 disables it.
	Timeout int `koanf:"timeout" yaml:"timeout" validate:"min=0"`

	LookupLimit           int `koanf:"lookup_limit" yaml:"lookup_limit" validate:"min=1"`
	LookupConcurrency     int `koanf:"lookup_concurrency" yaml:"lookup_concurrency" validate:"min=1,max=64"`
	ChangelogPreviewLimit int `koanf:"changelog_preview_limit" yaml:"changelog_preview_limit" validate:"min=0"`
	TruncateLimit         int `koanf:"truncate_limit" yaml:"truncate_limit" validate:"min=1"`

	PR         PRConfig         `koanf:"pr" yaml:"pr"`
	Classifier ClassifierConfig `koanf:"classifier" yaml:"classifier"`
}

// PRConfig shapes the pull request that carries the changelog update.
type PRConfig struct {
	Labels       []string `koanf:"labels" yaml:"labels"`
	BranchPrefix string   `koanf:"branch_prefix" yaml:"branch_prefix" validate:"required"`
	TitlePrefix  string   `koanf:"title_prefix" yaml:"title_prefix"`
}

// ClassifierConfig overrides the scorer's decision constants.
type ClassifierConfig struct {
	MinScore   int            `koanf:"min_score" yaml:"min_score" validate:"min=0"`
	Margin     int            `koanf:"margin" yaml:"margin" validate:"min=0"`
	MaxScore   int            `koanf:"max_score" yaml:"max_score" validate:"min=1"`
	Thresholds map[string]int `koanf:"thresholds" yaml:"thresholds"`
	// RulesFile replaces the embedded rule table when set.
	RulesFile string `koanf:"rules_file" yaml:"rules_file"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectDir holds the project config file (default: current directory).
	ProjectDir string
	// ConfigPath, when set, replaces the project config lookup.
	ConfigPath string
	// UserConfigPath overrides the user config location.
	UserConfigPath string
	// Getenv reads well-known variables (default: os.Getenv).
	Getenv func(string) string
	// WarningWriter receives warnings (default: os.Stderr).
	WarningWriter io.Writer
}

// Load loads configuration for the project in projectDir.
func Load(projectDir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: projectDir})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	warningWriter := opts.WarningWriter
	if warningWriter == nil {
		warningWriter = os.Stderr
	}

	loadDefaults(k)

	if err := loadUserConfig(k, opts.UserConfigPath); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(k, opts, warningWriter); err != nil {
		return nil, err
	}
	loadWellKnownEnv(k, getenv)
	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values.
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		_ = k.Set(key, value)
	}
}

func loadUserConfig(k *koanf.Koanf, override string) error {
	path := override
	if path == "" {
		path, _ = UserConfigPath()
	}
	if !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project config. YAML wins over JSON when both
// exist, and the JSON file is reported as ignored.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions, warningWriter io.Writer) error {
	if opts.ConfigPath != "" {
		if !fileExists(opts.ConfigPath) {
			return fmt.Errorf("config file %s does not exist", opts.ConfigPath)
		}
		if strings.HasSuffix(opts.ConfigPath, ".json") {
			return loadJSONConfig(k, opts.ConfigPath)
		}
		return loadYAMLConfig(k, opts.ConfigPath, "project")
	}

	yamlPath := ProjectConfigPath(opts.ProjectDir)
	jsonPath := ProjectJSONConfigPath(opts.ProjectDir)
	yamlExists := fileExists(yamlPath)
	jsonExists := fileExists(jsonPath)

	switch {
	case yamlExists:
		if err := loadYAMLConfig(k, yamlPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if jsonExists {
			fmt.Fprintf(warningWriter, "Warning: %s ignored because %s exists\n", jsonPath, yamlPath)
			fmt.Fprintf(warningWriter, "  Run 'changelog-bot config migrate' to remove the JSON file.\n\n")
		}
	case jsonExists:
		if err := loadJSONConfig(k, jsonPath); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file.
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

func loadJSONConfig(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load JSON config %s: %w", path, err)
	}
	return nil
}

// wellKnownEnv maps variables shared with other tooling onto config keys.
// Earlier entries win when several map to the same key.
var wellKnownEnv = []struct {
	name string
	key  string
}{
	{"REPO_FULL_NAME", "repository"},
	{"GITHUB_REPOSITORY", "repository"},
	{"GITHUB_API_BASE", "api_base"},
	{"GITHUB_API_URL", "api_base"},
	{"OPENAI_MODEL", "openai_model"},
	{"ANTHROPIC_MODEL", "anthropic_model"},
	{"OPENAI_BASE_URL", "openai_base_url"},
	{"ANTHROPIC_BASE_URL", "anthropic_base_url"},
}

func loadWellKnownEnv(k *koanf.Koanf, getenv func(string) string) {
	set := map[string]bool{}
	for _, e := range wellKnownEnv {
		if set[e.key] {
			continue
		}
		if v := strings.TrimSpace(getenv(e.name)); v != "" {
			_ = k.Set(e.key, v)
			set[e.key] = true
		}
	}
}

// loadEnvironmentConfig loads CHANGELOG_BOT_* overrides.
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// envTransform converts CHANGELOG_BOT_PR__LABELS=a,b into pr.labels=[a b].
// A double underscore separates nesting levels. Credential variables are
// skipped; they are read by LoadCredentials only.
func envTransform(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if strings.HasPrefix(key, "app_") {
		return "", nil
	}
	key = strings.ReplaceAll(key, "__", ".")
	if key == "pr.labels" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// finalizeConfig unmarshals and validates.
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	cfg.Classifier.RulesFile = expandHomePath(cfg.Classifier.RulesFile)
	return &cfg, nil
}

// fileExists returns true if the file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// ModelFor returns the model for provider: Model when set, else the
// provider-specific model (which may be empty, meaning the adapter default).
func (c *Configuration) ModelFor(provider string) string {
	if c.Model != "" {
		return c.Model
	}
	switch provider {
	case "openai":
		return c.OpenAIModel
	case "anthropic":
		return c.AnthropicModel
	}
	return ""
}

// RunTimeout returns Timeout as a duration.
func (c *Configuration) RunTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ClassifierParams merges the classifier overrides into the default params.
// Unknown threshold categories are an error.
func (c *Configuration) ClassifierParams() (classify.Params, error) {
	p := classify.DefaultParams()
	p.MinScore = c.Classifier.MinScore
	p.Margin = c.Classifier.Margin
	p.MaxScore = c.Classifier.MaxScore
	for name, v := range c.Classifier.Thresholds {
		cat, ok := changelog.NormalizeCategory(name)
		if !ok {
			return classify.Params{}, fmt.Errorf("classifier.thresholds: unknown category %q", name)
		}
		p.Thresholds[cat] = v
	}
	return p, nil
}

// ClassifierRules returns the rule table: the configured file, or the
// embedded default.
func (c *Configuration) ClassifierRules() (*classify.Rules, error) {
	if c.Classifier.RulesFile == "" {
		return classify.LoadDefault()
	}
	return classify.LoadRulesFile(c.Classifier.RulesFile)
}

// Credentials are secrets read only from the environment, never from files.
type Credentials struct {
	GitHubToken       string
	AppID             string
	AppPrivateKey     string
	AppInstallationID string
	OpenAIKey         string
	AnthropicKey      string
}

// LoadCredentials reads secrets from the environment. The CHANGELOG_BOT_APP_*
// names win over the GITHUB_APP_* names.
func LoadCredentials(getenv func(string) string) Credentials {
	if getenv == nil {
		getenv = os.Getenv
	}
	first := func(names ...string) string {
		for _, n := range names {
			if v := strings.TrimSpace(getenv(n)); v != "" {
				return v
			}
		}
		return ""
	}
	return Credentials{
		GitHubToken:       first("GITHUB_TOKEN", "GH_TOKEN"),
		AppID:             first(EnvPrefix+"APP_ID", "GITHUB_APP_ID"),
		AppPrivateKey:     first(EnvPrefix+"APP_PRIVATE_KEY", "GITHUB_APP_PRIVATE_KEY"),
		AppInstallationID: first(EnvPrefix+"APP_INSTALLATION_ID", "GITHUB_APP_INSTALLATION_ID"),
		OpenAIKey:         first("OPENAI_API_KEY"),
		AnthropicKey:      first("ANTHROPIC_API_KEY"),
	}
}
