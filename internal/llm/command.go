package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// PromptPlaceholder marks where a command template receives the prompt.
const PromptPlaceholder = "{{PROMPT}}"

// Command runs an arbitrary CLI as the model. The prompt is a JSON document
// passed as a single argument in place of {{PROMPT}}; the answer is read
// from stdout.
type Command struct {
	template string
	Timeout  time.Duration
}

// NewCommand validates that template contains the placeholder.
func NewCommand(template string) (*Command, error) {
	if !strings.Contains(template, PromptPlaceholder) {
		return nil, fmt.Errorf("command template must contain %s placeholder", PromptPlaceholder)
	}
	return &Command{template: template}, nil
}

// Name returns "command".
func (c *Command) Name() string { return ProviderCommand }

// Validate checks that the template parses and its program is on PATH.
func (c *Command) Validate() error {
	parts, err := c.expandTemplate("test")
	if err != nil {
		return fmt.Errorf("command provider: invalid template: %w", err)
	}
	if len(parts) == 0 {
		return errors.New("command provider: template produces no command")
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return fmt.Errorf("command provider: %q not found in PATH", parts[0])
	}
	return nil
}

// expandTemplate substitutes the quoted prompt and splits the result into argv.
func (c *Command) expandTemplate(prompt string) ([]string, error) {
	expanded := strings.ReplaceAll(c.template, PromptPlaceholder, quoteForShlex(prompt))
	return shlex.Split(expanded)
}

// quoteForShlex wraps s in single quotes so it survives splitting as one
// argument. 'don't' becomes 'don'\”t'.
func quoteForShlex(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type commandPrompt struct {
	Task               string         `json:"task"`
	Instructions       string         `json:"instructions"`
	Titles             []string       `json:"titles,omitempty"`
	Categories         []string       `json:"categories,omitempty"`
	Input              *Input         `json:"input,omitempty"`
	RequiredJSONSchema map[string]any `json:"requiredJsonSchema,omitempty"`
}

// Classify sends {"task":"classify",...} and returns stdout.
func (c *Command) Classify(ctx context.Context, titles, categories []string) (string, error) {
	out, err := c.run(ctx, commandPrompt{
		Task:         "classify",
		Instructions: classifySystemPrompt,
		Titles:       titles,
		Categories:   categories,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &EmptyResponseError{Provider: "command"}
	}
	return out, nil
}

// Generate sends {"task":"generate",...} and parses stdout as the output object.
func (c *Command) Generate(ctx context.Context, in Input) (Output, error) {
	out, err := c.run(ctx, commandPrompt{
		Task:               "generate",
		Instructions:       releaseNotesSystemPrompt,
		Input:              &in,
		RequiredJSONSchema: outputSchema,
	})
	if err != nil {
		return Output{}, err
	}
	return parseOutput("command", out)
}

func (c *Command) run(ctx context.Context, prompt commandPrompt) (string, error) {
	data, err := json.Marshal(prompt)
	if err != nil {
		return "", fmt.Errorf("encoding prompt: %w", err)
	}
	args, err := c.expandTemplate(string(data))
	if err != nil {
		return "", fmt.Errorf("expanding template: %w", err)
	}
	if len(args) == 0 {
		return "", errors.New("template expansion produced no command")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logDebug("[llm] running command provider %s (%s task)", args[0], prompt.Task)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("executing command provider: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("command provider exited with code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("executing command provider: %w", err)
	}
	logDebug("[llm] command provider finished in %s", time.Since(start).Round(time.Millisecond))
	return stdout.String(), nil
}
