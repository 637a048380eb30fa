package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject means no JSON object could be recovered from model text.
var ErrNoJSONObject = errors.New("no JSON object found in model output")

// ExtractJSONObject recovers a JSON object from model output that may wrap
// it in prose. It tries the whole text, then the span between the first '{'
// and the last '}', then a balanced-brace scan that ignores braces inside
// string literals. The scan prefers the outermost object that parses.
func ExtractJSONObject(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if isJSONObject(trimmed) {
		return []byte(trimmed), nil
	}

	first := strings.IndexByte(trimmed, '{')
	last := strings.LastIndexByte(trimmed, '}')
	if first == -1 || last <= first {
		return nil, ErrNoJSONObject
	}
	if span := trimmed[first : last+1]; isJSONObject(span) {
		return []byte(span), nil
	}

	if obj := scanBalanced(trimmed); obj != "" {
		return []byte(obj), nil
	}
	return nil, ErrNoJSONObject
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

func scanBalanced(text string) string {
	var (
		starts   []int
		inString bool
		escaped  bool
		nested   string
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			// Quotes in surrounding prose do not open strings.
			if len(starts) > 0 {
				inString = true
			}
		case '{':
			starts = append(starts, i)
		case '}':
			if len(starts) == 0 {
				continue
			}
			start := starts[len(starts)-1]
			starts = starts[:len(starts)-1]
			candidate := text[start : i+1]
			if !json.Valid([]byte(candidate)) {
				continue
			}
			if len(starts) == 0 {
				return candidate
			}
			nested = candidate
		}
	}
	return nested
}
