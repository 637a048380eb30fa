package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultAnthropicBase is the Anthropic API root.
	DefaultAnthropicBase = "https://api.anthropic.com/v1"
	// DefaultAnthropicModel is used when no model is configured.
	DefaultAnthropicModel = "claude-3-5-sonnet-20240620"

	anthropicVersion = "2023-06-01"
	categoriesTool   = "return_categories"
)

// Anthropic classifies through a forced tool call and generates with the
// Messages API.
type Anthropic struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

// NewAnthropic returns an Anthropic adapter with defaults filled in.
func NewAnthropic(apiKey, model, baseURL string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if baseURL == "" {
		baseURL = DefaultAnthropicBase
	}
	return &Anthropic{APIKey: apiKey, Model: model, BaseURL: strings.TrimRight(baseURL, "/"), HTTP: defaultHTTPClient()}
}

// Name returns "anthropic".
func (a *Anthropic) Name() string { return ProviderAnthropic }

func (a *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.APIKey,
		"anthropic-version": anthropicVersion,
	}
}

type messagesResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
}

// Classify forces the return_categories tool so the answer arrives as
// structured tool input. A plain text answer is accepted as well.
func (a *Anthropic) Classify(ctx context.Context, titles, categories []string) (string, error) {
	prompt, err := json.Marshal(classifyPrompt{Titles: titles, Categories: categories})
	if err != nil {
		return "", fmt.Errorf("encoding prompt: %w", err)
	}
	properties := make(map[string]any, len(categories))
	for _, c := range categories {
		properties[c] = map[string]any{"type": "array", "items": map[string]string{"type": "string"}}
	}
	payload := map[string]any{
		"model":       a.Model,
		"max_tokens":  classifyMaxTokens,
		"temperature": 0,
		"system":      classifySystemPrompt,
		"messages":    []chatMessage{{Role: "user", Content: string(prompt)}},
		"tools": []map[string]any{{
			"name":        categoriesTool,
			"description": "Return a JSON object mapping each category to an array of titles.",
			"input_schema": map[string]any{
				"type":                 "object",
				"properties":           properties,
				"additionalProperties": false,
			},
		}},
		"tool_choice": map[string]string{"type": "tool", "name": categoriesTool},
	}

	var resp messagesResponse
	if err := postJSON(ctx, a.HTTP, "Anthropic", a.BaseURL+"/messages", a.headers(), payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", &EmptyResponseError{Provider: "Anthropic"}
	}
	first := resp.Content[0]
	if first.Type == "tool_use" && len(first.Input) > 0 {
		return string(first.Input), nil
	}
	if first.Text == "" {
		return "", &EmptyResponseError{Provider: "Anthropic"}
	}
	return first.Text, nil
}

// Generate asks for a complete changelog section as a JSON object.
func (a *Anthropic) Generate(ctx context.Context, in Input) (Output, error) {
	user, err := json.Marshal(generatePrompt{Input: in, RequiredJSONSchema: outputSchema})
	if err != nil {
		return Output{}, fmt.Errorf("encoding prompt: %w", err)
	}
	payload := map[string]any{
		"model":       a.Model,
		"max_tokens":  generateMaxTokens,
		"temperature": temperature,
		"system":      releaseNotesSystemPrompt,
		"messages":    []chatMessage{{Role: "user", Content: string(user)}},
	}

	var resp messagesResponse
	if err := postJSON(ctx, a.HTTP, "Anthropic", a.BaseURL+"/messages", a.headers(), payload, &resp); err != nil {
		return Output{}, err
	}
	var text string
	if len(resp.Content) > 0 {
		text = resp.Content[0].Text
	}
	return parseOutput("Anthropic", text)
}
