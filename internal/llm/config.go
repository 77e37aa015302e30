// Package llm provides model configuration and a provider-neutral client used
// by the query interpreter for structured extraction and short classifications.
package llm

import (
	"maps"
	"strings"
	"time"
)

// ModelTier selects a model by how much work a call asks of it.
type ModelTier string

const (
	// TierLite serves classification and short extraction.
	TierLite ModelTier = "lite"
	// TierStandard serves longer structured output.
	TierStandard ModelTier = "standard"
)

// Provider names an LLM vendor.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

var providerModels = map[Provider]map[ModelTier]string{
	ProviderGemini: {
		TierLite:     "gemini-2.5-flash-lite",
		TierStandard: "gemini-2.5-flash",
	},
	ProviderAnthropic: {
		TierLite:     "claude-3-5-haiku-latest",
		TierStandard: "claude-sonnet-4-0",
	},
}

const (
	// DefaultSystem frames every call as job-search query handling.
	DefaultSystem = "You help interpret job market search requests. " +
		"Answer only what is asked, never invent job titles or locations the user did not mention."
	// DefaultTimeout bounds one model call.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens caps replies; interpreter calls are short.
	DefaultMaxTokens = 1024
)

// Config selects the provider, its models and per-call limits.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// MaxTokens caps the response length for providers that require it.
	MaxTokens int64
	// System is sent as the system instruction of every call.
	System string
	// Timeout bounds a single call; zero leaves only the caller's deadline.
	Timeout time.Duration
}

// ConfigFor returns defaults for a provider name. Unknown or empty names
// select Gemini.
func ConfigFor(name string) *Config {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := providerModels[p]; !ok {
		p = ProviderGemini
	}
	return &Config{
		Provider:  p,
		Models:    maps.Clone(providerModels[p]),
		MaxTokens: DefaultMaxTokens,
		System:    DefaultSystem,
		Timeout:   DefaultTimeout,
	}
}

// DefaultConfig is the Gemini configuration.
func DefaultConfig() *Config { return ConfigFor(string(ProviderGemini)) }

// DefaultAnthropicConfig is the Anthropic configuration.
func DefaultAnthropicConfig() *Config { return ConfigFor(string(ProviderAnthropic)) }

// GetModel returns the model for tier, falling back to the lite model when
// the tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if m, ok := c.Models[tier]; ok {
		return m
	}
	return c.Models[TierLite]
}

// WithModel returns a copy of c with tier mapped to model.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = maps.Clone(c.Models)
	if out.Models == nil {
		out.Models = make(map[ModelTier]string)
	}
	out.Models[tier] = model
	return &out
}
