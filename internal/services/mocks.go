package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
)

type (
	MockMetadataFetcher struct {
		mock.Mock
	}

	MockDiffFetcher struct {
		mock.Mock
	}
)

func (m *MockMetadataFetcher) FetchMetadata(ctx context.Context, ref models.PullRequestRef) (models.PullRequestMetadata, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(models.PullRequestMetadata), args.Error(1)
}

func (m *MockDiffFetcher) FetchDiff(ctx context.Context, ref models.PullRequestRef) (models.UnifiedDiff, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(models.UnifiedDiff), args.Error(1)
}
