package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeInt ConfigValueType = iota
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "pr.labels")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       any             // Default value
}

// KnownKeys is the registry of settable configuration keys.
var KnownKeys = map[string]ConfigKeySchema{
	"changelog_path": {
		Path: "changelog_path", Type: TypeString,
		Description: "Changelog file to update", Default: "CHANGELOG.md",
	},
	"base_branch": {
		Path: "base_branch", Type: TypeString,
		Description: "Base branch of the changelog pull request", Default: "main",
	},
	"provider": {
		Path: "provider", Type: TypeEnum,
		AllowedValues: []string{"openai", "anthropic", "command", "none"},
		Description:   "Model provider", Default: "openai",
	},
	"model": {
		Path: "model", Type: TypeString,
		Description: "Model override for the selected provider", Default: "",
	},
	"openai_model": {
		Path: "openai_model", Type: TypeString,
		Description: "OpenAI model (empty = gpt-4o-mini)", Default: "",
	},
	"anthropic_model": {
		Path: "anthropic_model", Type: TypeString,
		Description: "Anthropic model (empty = claude-3-5-sonnet-20240620)", Default: "",
	},
	"openai_base_url": {
		Path: "openai_base_url", Type: TypeString,
		Description: "OpenAI-compatible API base URL", Default: "",
	},
	"anthropic_base_url": {
		Path: "anthropic_base_url", Type: TypeString,
		Description: "Anthropic API base URL", Default: "",
	},
	"command": {
		Path: "command", Type: TypeString,
		Description: "Custom classifier command containing {{PROMPT}}", Default: "",
	},
	"repository": {
		Path: "repository", Type: TypeString,
		Description: "owner/name; empty derives it from the origin remote", Default: "",
	},
	"api_base": {
		Path: "api_base", Type: TypeString,
		Description: "GitHub API base URL", Default: "https://api.github.com",
	},
	"timeout": {
		Path: "timeout", Type: TypeInt,
		Description: "Whole-run timeout in seconds (0 = none)", Default: 300,
	},
	"lookup_limit": {
		Path: "lookup_limit", Type: TypeInt,
		Description: "Maximum commits looked up for PR associations", Default: 200,
	},
	"lookup_concurrency": {
		Path: "lookup_concurrency", Type: TypeInt,
		Description: "Parallel GitHub lookups", Default: 8,
	},
	"changelog_preview_limit": {
		Path: "changelog_preview_limit", Type: TypeInt,
		Description: "Characters of the existing changelog sent to the model", Default: 60000,
	},
	"truncate_limit": {
		Path: "truncate_limit", Type: TypeInt,
		Description: "Release body and git log size on the generation retry", Default: 4000,
	},
	"pr.labels": {
		Path: "pr.labels", Type: TypeList,
		Description: "Labels applied to the pull request (comma separated)", Default: []string{"changelog", "release"},
	},
	"pr.branch_prefix": {
		Path: "pr.branch_prefix", Type: TypeString,
		Description: "Branch name prefix; the version is appended", Default: "chore/changelog-v",
	},
	"pr.title_prefix": {
		Path: "pr.title_prefix", Type: TypeString,
		Description: "Prefix of the fallback pull request title", Default: "docs(changelog): ",
	},
	"classifier.min_score": {
		Path: "classifier.min_score", Type: TypeInt,
		Description: "Lowest top score that can win", Default: 4,
	},
	"classifier.margin": {
		Path: "classifier.margin", Type: TypeInt,
		Description: "Lead the top score needs over the runner-up", Default: 2,
	},
	"classifier.max_score": {
		Path: "classifier.max_score", Type: TypeInt,
		Description: "Per-category score clamp", Default: 12,
	},
	"classifier.rules_file": {
		Path: "classifier.rules_file", Type: TypeString,
		Description: "YAML rule table replacing the built-in one", Default: "",
	},
}

// SortedKeys returns the registry keys in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string // Original string input from user
	Parsed any    // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	switch schema.Type {
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
		}
		return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
	case TypeEnum:
		for _, allowed := range schema.AllowedValues {
			if value == allowed {
				return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
			}
		}
		return ParsedValue{}, fmt.Errorf(
			"invalid value: %q (valid options: %s)",
			value,
			strings.Join(schema.AllowedValues, ", "),
		)
	case TypeList:
		list := splitList(value)
		if list == nil {
			list = []string{}
		}
		return ParsedValue{Raw: value, Parsed: list, Type: TypeList}, nil
	default:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	}
}
