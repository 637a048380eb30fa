// Package github talks to the GitHub REST API: release notes, pull request
// metadata, commit to PR associations, PR creation and App installation
// tokens.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIBase is the public GitHub REST endpoint.
	DefaultAPIBase = "https://api.github.com"

	acceptHeader = "application/vnd.github+json"
	apiVersion   = "2022-11-28"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 30 * time.Second
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

// APIError is a non-2xx response from the API.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("GitHub API %d for %s: %s", e.Status, e.URL, body)
}

// Client is a minimal GitHub REST client scoped to one repository.
type Client struct {
	BaseURL string
	Token   string
	Repo    Repo
	HTTP    *http.Client
}

// NewClient returns a client for repo. An empty baseURL means DefaultAPIBase.
func NewClient(baseURL, token string, repo Repo) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Repo:    repo,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) repoPath(format string, args ...any) string {
	return fmt.Sprintf("/repos/%s/%s", c.Repo.Owner, c.Repo.Name) + fmt.Sprintf(format, args...)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// do sends a request with the standard headers and decodes a JSON response
// into out (when out is non-nil). bearer overrides the client token.
func (c *Client) do(ctx context.Context, method, path, bearer string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.Token
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	logDebug("[github] %s %s", method, url)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, URL: url, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response from %s: %w", url, err)
	}
	return nil
}
