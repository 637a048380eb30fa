package llm

import (
	"fmt"
	"slices"
)

// Options selects and configures a Provider.
type Options struct {
	Provider     string
	Model        string
	Command      string
	OpenAIKey    string
	AnthropicKey string
	// Base URLs override the public API roots.
	OpenAIBase    string
	AnthropicBase string
}

// MissingKeyError means the selected provider has no API key.
type MissingKeyError struct {
	Provider string
	EnvVar   string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("Missing API key for provider: %s (set %s)", e.Provider, e.EnvVar)
}

// New returns the configured provider. ProviderNone yields a nil Provider
// and no error.
func New(opts Options) (Provider, error) {
	switch opts.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderOpenAI, "":
		if opts.OpenAIKey == "" {
			return nil, &MissingKeyError{Provider: ProviderOpenAI, EnvVar: "OPENAI_API_KEY"}
		}
		return NewOpenAI(opts.OpenAIKey, opts.Model, opts.OpenAIBase), nil
	case ProviderAnthropic:
		if opts.AnthropicKey == "" {
			return nil, &MissingKeyError{Provider: ProviderAnthropic, EnvVar: "ANTHROPIC_API_KEY"}
		}
		return NewAnthropic(opts.AnthropicKey, opts.Model, opts.AnthropicBase), nil
	case ProviderCommand:
		cmd, err := NewCommand(opts.Command)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (valid: %v)", opts.Provider, ProviderNames)
	}
}

// ValidProvider reports whether name is an accepted provider.
func ValidProvider(name string) bool {
	return slices.Contains(ProviderNames, name)
}
