package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
)

const fiveLineDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1 +1 @@
+if err != nil { return err }`

var demoRef = models.PullRequestRef{Owner: "octo", Repo: "demo", Number: 7}

func envelope(t *testing.T, payload string) models.CompletionEnvelope {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]interface{}{"text": payload}},
				},
			},
		},
		"usageMetadata": map[string]interface{}{
			"promptTokenCount":     100,
			"candidatesTokenCount": 50,
			"totalTokenCount":      150,
		},
	})
	require.NoError(t, err)
	return models.CompletionEnvelope{Body: body, StatusCode: 200, Attempts: 1}
}

type reviewMocks struct {
	meta       *MockMetadataFetcher
	diff       *MockDiffFetcher
	completion *ai.MockCompletionClient
}

func newReviewMocks() reviewMocks {
	m := reviewMocks{
		meta:       new(MockMetadataFetcher),
		diff:       new(MockDiffFetcher),
		completion: new(ai.MockCompletionClient),
	}
	m.completion.On("GetModelName").Return("gemini-2.5-flash").Maybe()
	return m
}

func (m reviewMocks) service(opts ...ReviewOption) *ReviewService {
	base := []ReviewOption{
		WithMetadataFetcher(m.meta),
		WithDiffFetcher(m.diff),
		WithCompletionClient(m.completion),
		WithReviewConfig(config.Default()),
	}
	return NewReviewService(append(base, opts...)...)
}

func TestReviewService_Review_EndToEnd(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newReviewMocks()

	m.meta.On("FetchMetadata", mock.Anything, demoRef).
		Return(models.PullRequestMetadata{Title: "Fix bug", Body: "Closes #3"}, nil)
	m.diff.On("FetchDiff", mock.Anything, demoRef).
		Return(models.UnifiedDiff(fiveLineDiff), nil)
	m.completion.On("Complete", mock.Anything, mock.MatchedBy(func(req models.ReviewRequest) bool {
		return req.Title == "Fix bug" && req.Body == "Closes #3" && string(req.Diff) == fiveLineDiff
	}), mock.Anything).Return(envelope(t, `{
		"summary": "Solid fix with one gap",
		"review_report": [{"file_path": "main.go", "severity": "MAJOR", "description": "error is swallowed", "fix_suggestion_code": "return fmt.Errorf(\"x: %w\", err)"}]
	}`), nil)

	var events []models.ProgressEventType
	service := m.service(WithCostEstimator(ai.NewCostEstimator(nil, nil, "gemini-2.5-flash", 0)))

	// Act
	report, err := service.Review(ctx, demoRef, func(e models.ProgressEvent) {
		events = append(events, e.Type)
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Solid fix with one gap", report.Summary)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, models.SeverityMajor, report.Issues[0].Severity)
	assert.False(t, report.HasCorrectedCode())

	groups := models.GroupBySeverity(report.Issues)
	assert.Len(t, groups.Major, 1)
	assert.Empty(t, groups.Critical)
	assert.Empty(t, groups.Minor)

	require.NotNil(t, report.Usage)
	assert.Equal(t, "gemini-2.5-flash", report.Usage.Model)
	assert.Greater(t, report.Usage.CostUSD, 0.0)

	assert.Equal(t, []models.ProgressEventType{
		models.ProgressFetchingMetadata,
		models.ProgressFetchingDiff,
		models.ProgressBuildingPrompt,
		models.ProgressRequestingReview,
		models.ProgressNormalizing,
	}, events)

	m.meta.AssertExpectations(t)
	m.diff.AssertExpectations(t)
	m.completion.AssertExpectations(t)
}

func TestReviewService_Review_InvalidRef(t *testing.T) {
	tests := []struct {
		name  string
		ref   models.PullRequestRef
		field string
	}{
		{"missing owner", models.PullRequestRef{Repo: "demo", Number: 7}, "owner"},
		{"blank repo", models.PullRequestRef{Owner: "octo", Repo: "  ", Number: 7}, "repo"},
		{"zero number", models.PullRequestRef{Owner: "octo", Repo: "demo"}, "number"},
		{"negative number", models.PullRequestRef{Owner: "octo", Repo: "demo", Number: -1}, "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newReviewMocks()

			_, err := m.service().Review(context.Background(), tt.ref, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, domainErrors.ErrInvalidPullRequestRef)
			var appErr *domainErrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Context["field"])

			m.meta.AssertNotCalled(t, "FetchMetadata", mock.Anything, mock.Anything)
			m.diff.AssertNotCalled(t, "FetchDiff", mock.Anything, mock.Anything)
			m.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReviewService_Review_MetadataError(t *testing.T) {
	m := newReviewMocks()
	m.meta.On("FetchMetadata", mock.Anything, demoRef).
		Return(models.PullRequestMetadata{}, errors.New("connection reset"))

	_, err := m.service().Review(context.Background(), demoRef, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrRemoteFetch)
	assert.Contains(t, err.Error(), "connection reset")
	m.diff.AssertNotCalled(t, "FetchDiff", mock.Anything, mock.Anything)
	m.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_Review_DiffError(t *testing.T) {
	m := newReviewMocks()
	m.meta.On("FetchMetadata", mock.Anything, demoRef).
		Return(models.PullRequestMetadata{Title: "t"}, nil)
	m.diff.On("FetchDiff", mock.Anything, demoRef).
		Return(models.UnifiedDiff(""), domainErrors.ErrGitHubTokenMissing)

	_, err := m.service().Review(context.Background(), demoRef, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrGitHubTokenMissing)
	m.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_Review_CompletionError(t *testing.T) {
	m := newReviewMocks()
	m.meta.On("FetchMetadata", mock.Anything, demoRef).Return(models.PullRequestMetadata{}, nil)
	m.diff.On("FetchDiff", mock.Anything, demoRef).Return(models.UnifiedDiff(""), nil)
	exhausted := domainErrors.ErrRemoteCallExhausted.WithContext("attempts", 5)
	m.completion.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(models.CompletionEnvelope{}, exhausted)

	_, err := m.service().Review(context.Background(), demoRef, nil)

	assert.ErrorIs(t, err, domainErrors.ErrRemoteCallExhausted)
}

func TestReviewService_Review_MalformedPayload(t *testing.T) {
	m := newReviewMocks()
	m.meta.On("FetchMetadata", mock.Anything, demoRef).Return(models.PullRequestMetadata{}, nil)
	m.diff.On("FetchDiff", mock.Anything, demoRef).Return(models.UnifiedDiff(""), nil)
	env := envelope(t, "not json")
	m.completion.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(env, nil)

	_, err := m.service().Review(context.Background(), demoRef, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrMalformedPayload)
	var appErr *domainErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, string(env.Body), appErr.Diagnostic)
}

func TestReviewService_Review_Estimate(t *testing.T) {
	t.Run("estimate is reported through progress", func(t *testing.T) {
		m := newReviewMocks()
		m.meta.On("FetchMetadata", mock.Anything, demoRef).Return(models.PullRequestMetadata{}, nil)
		m.diff.On("FetchDiff", mock.Anything, demoRef).Return(models.UnifiedDiff(""), nil)
		m.completion.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(envelope(t, `{"summary":"ok"}`), nil)

		counter := new(ai.MockTokenCounter)
		counter.On("CountTokens", mock.Anything, mock.Anything).Return(1234, nil)
		service := m.service(WithCostEstimator(ai.NewCostEstimator(counter, nil, "gemini-2.5-flash", 0)))

		var estimate map[string]interface{}
		_, err := service.Review(context.Background(), demoRef, func(e models.ProgressEvent) {
			if e.Type == models.ProgressEstimating && e.Data != nil {
				estimate = e.Data
			}
		})

		require.NoError(t, err)
		require.NotNil(t, estimate)
		assert.Equal(t, 1234, estimate["input_tokens"])
		counter.AssertExpectations(t)
	})

	t.Run("estimate failure is not fatal", func(t *testing.T) {
		m := newReviewMocks()
		m.meta.On("FetchMetadata", mock.Anything, demoRef).Return(models.PullRequestMetadata{}, nil)
		m.diff.On("FetchDiff", mock.Anything, demoRef).Return(models.UnifiedDiff(""), nil)
		m.completion.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return(envelope(t, `{"summary":"ok"}`), nil)

		counter := new(ai.MockTokenCounter)
		counter.On("CountTokens", mock.Anything, mock.Anything).Return(0, errors.New("quota"))
		service := m.service(WithCostEstimator(ai.NewCostEstimator(counter, nil, "gemini-2.5-flash", 0)))

		report, err := service.Review(context.Background(), demoRef, nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", report.Summary)
	})
}

func TestReviewService_Review_MissingDependency(t *testing.T) {
	service := NewReviewService()

	_, err := service.Review(context.Background(), demoRef, nil)

	require.Error(t, err)
	var appErr *domainErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domainErrors.TypeInternal, appErr.Type)
}
