package interpreter

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jonathan/comp-collector/internal/llm"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	args := m.Called(ctx, prompt, tier)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	args := m.Called(ctx, prompt, tier)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) GetModel(tier llm.ModelTier) string {
	return "mock-" + string(tier)
}

func (m *mockLLM) Close() error {
	return nil
}

var _ llm.Client = (*mockLLM)(nil)
