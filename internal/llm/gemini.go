package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &Error{Provider: ProviderGemini, Cause: err}
	}
	return &GeminiClient{client: client, config: config}, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, tier ModelTier, jsonOut bool) (string, error) {
	name, err := modelFor(c.config, tier)
	if err != nil {
		return "", err
	}
	model := c.client.GenerativeModel(name)
	model.SetTemperature(0.1)
	if c.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.config.MaxTokens))
	}
	if c.config.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(c.config.System))
	}
	if jsonOut {
		model.ResponseMIMEType = "application/json"
	}

	ctx, cancel := withTimeout(ctx, c.config)
	defer cancel()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &Error{Provider: ProviderGemini, Model: name, Cause: err}
	}
	text, err := responseText(resp)
	if err != nil {
		return "", &Error{Provider: ProviderGemini, Model: name, Cause: err}
	}
	return text, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, false)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoText
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoText
	}
	return sb.String(), nil
}
