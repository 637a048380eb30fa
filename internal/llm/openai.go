package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultOpenAIBase is the OpenAI API root.
	DefaultOpenAIBase = "https://api.openai.com/v1"
	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAI classifies with Chat Completions in JSON mode and generates with
// the Responses API.
type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

// NewOpenAI returns an OpenAI adapter with defaults filled in.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBase
	}
	return &OpenAI{APIKey: apiKey, Model: model, BaseURL: strings.TrimRight(baseURL, "/"), HTTP: defaultHTTPClient()}
}

// Name returns "openai".
func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + o.APIKey}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks for a JSON object of category arrays.
func (o *OpenAI) Classify(ctx context.Context, titles, categories []string) (string, error) {
	prompt, err := json.Marshal(classifyPrompt{Titles: titles, Categories: categories})
	if err != nil {
		return "", fmt.Errorf("encoding prompt: %w", err)
	}
	payload := map[string]any{
		"model":       o.Model,
		"temperature": 0,
		"max_tokens":  classifyMaxTokens,
		"messages": []chatMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: string(prompt)},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	var resp chatResponse
	if err := postJSON(ctx, o.HTTP, "OpenAI", o.BaseURL+"/chat/completions", o.headers(), payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", &EmptyResponseError{Provider: "OpenAI"}
	}
	return *resp.Choices[0].Message.Content, nil
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (r responsesResponse) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	for _, o := range r.Output {
		for _, c := range o.Content {
			if c.Text != "" {
				return c.Text
			}
		}
	}
	return ""
}

// Generate asks the Responses API for a complete changelog section.
func (o *OpenAI) Generate(ctx context.Context, in Input) (Output, error) {
	user, err := json.Marshal(generatePrompt{Input: in, RequiredJSONSchema: outputSchema})
	if err != nil {
		return Output{}, fmt.Errorf("encoding prompt: %w", err)
	}
	payload := map[string]any{
		"model": o.Model,
		"input": []chatMessage{
			{Role: "system", Content: releaseNotesSystemPrompt},
			{Role: "user", Content: string(user)},
		},
		"max_output_tokens": generateMaxTokens,
	}
	if IsReasoningModel(o.Model) {
		payload["reasoning"] = map[string]string{"effort": reasoningEffort}
	} else {
		payload["temperature"] = temperature
	}

	var resp responsesResponse
	if err := postJSON(ctx, o.HTTP, "OpenAI", o.BaseURL+"/responses", o.headers(), payload, &resp); err != nil {
		return Output{}, err
	}
	return parseOutput("OpenAI", resp.text())
}
