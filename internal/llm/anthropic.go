package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

const jsonOnlyInstruction = "Respond with a single JSON value and nothing else."

// AnthropicClient implements Client for the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(config *Config, apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, &Error{Provider: ProviderAnthropic, Cause: errors.New("API key is required")}
	}
	return &AnthropicClient{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		config: config,
	}, nil
}

func (c *AnthropicClient) generate(ctx context.Context, prompt string, tier ModelTier, jsonOut bool) (string, error) {
	modelName, err := modelFor(c.config, tier)
	if err != nil {
		return "", err
	}
	maxTokens := c.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system := systemPrompt(c.config.System, jsonOut); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	ctx, cancel := withTimeout(ctx, c.config)
	defer cancel()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", &Error{Provider: ProviderAnthropic, Model: modelName, Cause: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &Error{Provider: ProviderAnthropic, Model: modelName, Cause: ErrNoText}
	}
	return sb.String(), nil
}

// systemPrompt appends the JSON-only instruction, which Messages has no
// response format option for.
func systemPrompt(base string, jsonOut bool) string {
	if !jsonOut {
		return base
	}
	if base == "" {
		return jsonOnlyInstruction
	}
	return base + "\n\n" + jsonOnlyInstruction
}

// GenerateContent generates text content using the specified model tier
func (c *AnthropicClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, false)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *AnthropicClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no long-lived resources.
func (c *AnthropicClient) Close() error {
	return nil
}
