package ai

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
)

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, req models.ReviewRequest, progress func(models.ProgressEvent)) (models.CompletionEnvelope, error) {
	args := m.Called(ctx, req, progress)
	return args.Get(0).(models.CompletionEnvelope), args.Error(1)
}

func (m *MockCompletionClient) GetModelName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCompletionClient) GetProviderName() string {
	args := m.Called()
	return args.String(0)
}

type MockTokenCounter struct {
	mock.Mock
}

func (m *MockTokenCounter) CountTokens(ctx context.Context, content string) (int, error) {
	args := m.Called(ctx, content)
	return args.Int(0), args.Error(1)
}
