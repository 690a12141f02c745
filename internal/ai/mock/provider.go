package mock

import (
	"context"

	"github.com/OpenAgentsInc/commander-sub000/internal/ai"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
)

// MockProvider satisfies models.InferenceProvider for testing.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, model string, messages []models.ChatMessage) (models.Completion, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, model string, messages []models.ChatMessage) (models.Completion, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, model, messages)
	}
	return models.Completion{}, nil
}

// NewMockProvider returns a MockProvider with a sensible default response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, model string, messages []models.ChatMessage) (models.Completion, error) {
			return models.Completion{
				Content: "Mock completion for testing",
				Model:   model,
				Usage:   models.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ string, _ []models.ChatMessage) (models.Completion, error) {
			return models.Completion{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ string, _ []models.ChatMessage) (models.Completion, error) {
			<-ctx.Done()
			return models.Completion{}, ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements InferenceProvider.
var _ models.InferenceProvider = (*MockProvider)(nil)
