// Package llm adapts language model providers to the two jobs the changelog
// pipeline delegates: classifying titles into categories and generating a
// complete changelog section. Every response is treated as untrusted text;
// callers validate it and fall back to deterministic output.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderCommand   = "command"
	ProviderNone      = "none"
)

// ProviderNames lists the accepted provider names in help order.
var ProviderNames = []string{ProviderOpenAI, ProviderAnthropic, ProviderCommand, ProviderNone}

const (
	// UnreleasedAnchor is where generated sections are inserted by default.
	UnreleasedAnchor = "## [Unreleased]"

	classifyMaxTokens = 1000
	generateMaxTokens = 1400
	temperature       = 0.2
	reasoningEffort   = "medium"
)

// debugLogger is an optional hook for debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger installs a debug logging hook.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Classifier sorts titles into categories. The returned text should hold a
// JSON object mapping category names to title arrays; it is not validated here.
type Classifier interface {
	Classify(ctx context.Context, titles, categories []string) (string, error)
}

// Generator produces a full changelog section from repository context.
type Generator interface {
	Generate(ctx context.Context, in Input) (Output, error)
}

// Provider is a named model backend that can both classify and generate.
type Provider interface {
	Classifier
	Generator
	Name() string
}

// Input is the context handed to a Generator.
type Input struct {
	Repo             string `json:"repo"`
	Version          string `json:"version"`
	Date             string `json:"date"`
	ReleaseTag       string `json:"releaseTag"`
	PrevTag          string `json:"prevTag"`
	ReleaseBody      string `json:"releaseBody"`
	GitLog           string `json:"gitLog"`
	MergedPRs        string `json:"mergedPRs"`
	ChangelogPreview string `json:"changelogPreview"`
	Language         string `json:"language"`
}

// Output is a validated generator response.
type Output struct {
	NewSectionMarkdown      string   `json:"new_section_markdown"`
	InsertAfterAnchor       string   `json:"insert_after_anchor,omitempty"`
	CompareLinkLine         string   `json:"compare_link_line,omitempty"`
	UnreleasedCompareUpdate string   `json:"unreleased_compare_update,omitempty"`
	PRTitle                 string   `json:"pr_title"`
	PRBody                  string   `json:"pr_body"`
	Labels                  []string `json:"labels,omitempty"`
}

// EmptyResponseError means the provider answered without usable text.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("%s returned an empty response", e.Provider)
}

// StatusError is a non-2xx response from a provider API.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, body)
}

var reasoningModelRe = regexp.MustCompile(`(?i)gpt-5|o3|o4|reason|thinking`)

// IsReasoningModel reports whether model takes a reasoning effort instead
// of a temperature.
func IsReasoningModel(model string) bool {
	return reasoningModelRe.MatchString(model)
}
