package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON generates JSON content using the specified model tier
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the provider model name for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// ErrNoText is returned when a response carries no text parts.
var ErrNoText = errors.New("no text in response")

// Error reports a failed model call.
type Error struct {
	Provider Provider
	Model    string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s model %s: %v", e.Provider, e.Model, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s", config.Provider)
	}

	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// modelFor resolves the model of a tier or fails the call.
func modelFor(config *Config, tier ModelTier) (string, error) {
	name := config.GetModel(tier)
	if name == "" {
		return "", &Error{Provider: config.Provider, Cause: fmt.Errorf("no model configured for tier %s", tier)}
	}
	return name, nil
}

// withTimeout applies the per-call timeout.
func withTimeout(ctx context.Context, config *Config) (context.Context, context.CancelFunc) {
	if config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, config.Timeout)
}
