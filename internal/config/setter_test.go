package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseKeyPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path    string
		want    []string
		wantErr bool
	}{
		"single key":    {path: "provider", want: []string{"provider"}},
		"nested key":    {path: "pr.labels", want: []string{"pr", "labels"}},
		"empty string":  {path: "", wantErr: true},
		"empty segment": {path: "pr..labels", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseKeyPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyKeyPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetNestedValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		initialYAML  string
		keyPath      []string
		value        any
		expectedYAML string
	}{
		"set top-level string": {
			keyPath:      []string{"provider"},
			value:        "none",
			expectedYAML: "provider: none\n",
		},
		"set top-level int": {
			keyPath:      []string{"timeout"},
			value:        60,
			expectedYAML: "timeout: 60\n",
		},
		"set nested list": {
			keyPath:      []string{"pr", "labels"},
			value:        []string{"a", "b"},
			expectedYAML: "pr:\n    labels:\n        - a\n        - b\n",
		},
		"update existing value": {
			initialYAML:  "provider: openai\n",
			keyPath:      []string{"provider"},
			value:        "anthropic",
			expectedYAML: "provider: anthropic\n",
		},
		"add to existing": {
			initialYAML:  "provider: openai\n",
			keyPath:      []string{"base_branch"},
			value:        "trunk",
			expectedYAML: "provider: openai\nbase_branch: trunk\n",
		},
		"update nested in existing": {
			initialYAML:  "classifier:\n    margin: 2\n",
			keyPath:      []string{"classifier", "min_score"},
			value:        5,
			expectedYAML: "classifier:\n    margin: 2\n    min_score: 5\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var root yaml.Node
			if tt.initialYAML != "" {
				require.NoError(t, yaml.Unmarshal([]byte(tt.initialYAML), &root))
			}

			require.NoError(t, SetNestedValue(&root, tt.keyPath, tt.value))

			out, err := yaml.Marshal(&root)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedYAML, string(out))
		})
	}
}

func TestSetNestedValue_ScalarInPath(t *testing.T) {
	t.Parallel()

	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("pr: oops\n"), &root))
	err := SetNestedValue(&root, []string{"pr", "labels"}, []string{"a"})
	assert.ErrorContains(t, err, "pr is not a mapping")
}

func TestGetNestedValue(t *testing.T) {
	t.Parallel()

	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("provider: none\npr:\n  title_prefix: x\n"), &root))

	assert.Equal(t, "none", GetNestedValue(&root, []string{"provider"}).Value)
	assert.Equal(t, "x", GetNestedValue(&root, []string{"pr", "title_prefix"}).Value)
	assert.Nil(t, GetNestedValue(&root, []string{"missing"}))
	assert.Nil(t, GetNestedValue(&root, []string{"provider", "deeper"}))
	assert.Nil(t, GetNestedValue(&root, nil))
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		initialContent string
		key            string
		value          string
		wantContains   []string
		errContain     string
	}{
		"set new value": {
			key:          "lookup_limit",
			value:        "50",
			wantContains: []string{"lookup_limit: 50"},
		},
		"set nested list": {
			key:          "pr.labels",
			value:        "docs, release",
			wantContains: []string{"pr:", "- docs", "- release"},
		},
		"update existing value and keep comments": {
			initialContent: "# project settings\nprovider: openai # default\n",
			key:            "provider",
			value:          "none",
			wantContains:   []string{"# project settings", "provider: none"},
		},
		"invalid key": {
			key:        "unknown.key",
			value:      "value",
			errContain: "unknown configuration key",
		},
		"invalid integer": {
			key:        "timeout",
			value:      "soon",
			errContain: "invalid integer",
		},
		"invalid enum": {
			key:        "provider",
			value:      "gemini",
			errContain: "valid options: openai, anthropic, command, none",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			configPath := filepath.Join(t.TempDir(), "nested", ProjectConfigName)
			if tt.initialContent != "" {
				writeFile(t, configPath, tt.initialContent)
			}

			err := SetConfigValue(configPath, tt.key, tt.value)
			if tt.errContain != "" {
				assert.ErrorContains(t, err, tt.errContain)
				return
			}
			require.NoError(t, err)

			content, err := os.ReadFile(configPath)
			require.NoError(t, err)
			for _, want := range tt.wantContains {
				assert.Contains(t, string(content), want)
			}
		})
	}
}

// A value written by SetConfigValue must load back through the normal path.
func TestSetConfigValue_RoundTripsThroughLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, SetConfigValue(ProjectConfigPath(dir), "pr.title_prefix", "docs: "))
	require.NoError(t, SetConfigValue(ProjectConfigPath(dir), "classifier.margin", "3"))

	cfg, _, err := loadIn(t, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "docs: ", cfg.PR.TitlePrefix)
	assert.Equal(t, 3, cfg.Classifier.Margin)
}
