package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// SchemaError means a generator response is missing required string keys or
// has keys of the wrong type.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "model output does not match schema: " + strings.Join(e.Problems, "; ")
}

// DecodeOutput validates a generator JSON object. new_section_markdown,
// pr_title and pr_body must be strings; the optional keys must be strings
// (or a string array for labels) when present.
func DecodeOutput(data []byte) (Output, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Output{}, &SchemaError{Problems: []string{"not a JSON object"}}
	}

	var problems []string
	str := func(key string, required bool) string {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			if required {
				problems = append(problems, key+" is missing")
			}
			return ""
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			problems = append(problems, key+" is not a string")
		}
		return s
	}

	out := Output{
		NewSectionMarkdown:      str("new_section_markdown", true),
		InsertAfterAnchor:       str("insert_after_anchor", false),
		CompareLinkLine:         str("compare_link_line", false),
		UnreleasedCompareUpdate: str("unreleased_compare_update", false),
		PRTitle:                 str("pr_title", true),
		PRBody:                  str("pr_body", true),
	}
	if v, ok := raw["labels"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &out.Labels); err != nil {
			problems = append(problems, "labels is not an array of strings")
		}
	}
	if len(problems) > 0 {
		return Output{}, &SchemaError{Problems: problems}
	}
	return out, nil
}

// parseOutput extracts and validates a generator response.
func parseOutput(provider, text string) (Output, error) {
	if strings.TrimSpace(text) == "" {
		return Output{}, &EmptyResponseError{Provider: provider}
	}
	data, err := ExtractJSONObject(text)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", provider, err)
	}
	return DecodeOutput(data)
}

var h2Re = regexp.MustCompile(`^##\s`)

// SanitizeOutput replaces an anchor that is not an H2 heading with
// UnreleasedAnchor.
func SanitizeOutput(out Output) Output {
	if !h2Re.MatchString(out.InsertAfterAnchor) {
		out.InsertAfterAnchor = UnreleasedAnchor
	}
	out.Labels = slices.Clone(out.Labels)
	return out
}

// Truncate shortens s to at most limit bytes without splitting a UTF-8 rune.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// GenerateWithRetry calls gen once with in and, when the response fails
// schema validation, once more with the release body and git log truncated
// to limit. Transport and provider errors are returned without a retry.
func GenerateWithRetry(ctx context.Context, gen Generator, in Input, limit int) (Output, error) {
	out, err := gen.Generate(ctx, in)
	if err == nil {
		return out, nil
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		return Output{}, err
	}
	logDebug("[llm] output failed validation, retrying with truncated input: %v", err)

	retry := in
	retry.ReleaseBody = Truncate(in.ReleaseBody, limit)
	retry.GitLog = Truncate(in.GitLog, limit)
	out, err = gen.Generate(ctx, retry)
	if err != nil {
		return Output{}, fmt.Errorf("after retry: %w", err)
	}
	return out, nil
}
