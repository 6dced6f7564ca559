package review

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
)

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Review(ctx context.Context, ref models.PullRequestRef, progress func(models.ProgressEvent)) (models.ReviewReport, error) {
	args := m.Called(ctx, ref, progress)
	return args.Get(0).(models.ReviewReport), args.Error(1)
}
