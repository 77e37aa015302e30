package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultAnthropicConfig(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestNewClient_Anthropic(t *testing.T) {
	client, err := NewClient(context.Background(), DefaultAnthropicConfig(), "key")
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, client)
	assert.Equal(t, "claude-sonnet-4-0", client.GetModel(TierStandard))
	assert.NoError(t, client.Close())
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Provider: ProviderGemini, Model: "gemini-2.5-flash", Cause: ErrNoText}
	assert.True(t, errors.Is(err, ErrNoText))
	assert.Equal(t, "gemini model gemini-2.5-flash: no text in response", err.Error())
}

func TestModelFor_MissingTier(t *testing.T) {
	_, err := modelFor(&Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}, TierLite)
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ProviderGemini, llmErr.Provider)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), &Config{Timeout: time.Minute})
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	ctx2, cancel2 := withTimeout(context.Background(), &Config{})
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.False(t, ok)
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, "base", systemPrompt("base", false))
	assert.Equal(t, jsonOnlyInstruction, systemPrompt("", true))
	assert.Equal(t, "base\n\n"+jsonOnlyInstruction, systemPrompt("base", true))
}

func TestResponseText(t *testing.T) {
	_, err := responseText(nil)
	assert.ErrorIs(t, err, ErrNoText)

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
	}}}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
}
