package review

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/models"
)

func init() {
	color.NoColor = true
}

var demoRef = models.PullRequestRef{Owner: "octo", Repo: "demo", Number: 7}

func demoReport() models.ReviewReport {
	return models.ReviewReport{
		Summary: "Adds a nil check.",
		Issues: []models.Issue{
			{FilePath: "main.go", Severity: models.SeverityMajor, Description: "Missing error check", FixSuggestion: "if err != nil { return err }"},
		},
		Usage: &models.TokenUsage{InputTokens: 120, OutputTokens: 40, TotalTokens: 160, CostUSD: 0.0002},
	}
}

type harness struct {
	service  *MockReviewService
	trans    *i18n.Translations
	cfg      *config.Config
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	estimate config.EstimateMode
}

func setupReviewTest(t *testing.T) *harness {
	trans, err := i18n.NewTranslations("en", "../../i18n/locales")
	require.NoError(t, err)

	return &harness{
		service: new(MockReviewService),
		trans:   trans,
		cfg:     config.Default(),
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
	}
}

func (h *harness) run(args []string, opts ...Option) error {
	provider := func(ctx context.Context, estimate config.EstimateMode) (ReviewService, error) {
		h.estimate = estimate
		return h.service, nil
	}
	opts = append([]Option{
		WithWriters(h.stdout, h.stderr),
		WithTerminalCheck(func() bool { return false }),
	}, opts...)
	cmd := NewReviewCommand(provider, opts...).CreateCommand(h.trans, h.cfg)
	return cmd.Run(context.Background(), append([]string{"review"}, args...))
}

func TestReviewCommand(t *testing.T) {
	t.Run("should review a pull request given by flags", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(demoReport(), nil)

		// Act
		err := h.run([]string{"--owner", "octo", "--repo", "demo", "--pr", "7"})

		// Assert
		require.NoError(t, err)
		out := h.stdout.String()
		assert.Contains(t, out, "Adds a nil check.")
		assert.Contains(t, out, "Major (1)")
		assert.Contains(t, out, "main.go")
		assert.Contains(t, h.stderr.String(), "160")
		assert.Equal(t, config.EstimateOff, h.estimate)
		h.service.AssertExpectations(t)
	})

	t.Run("should resolve the reference from a pull request URL", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(demoReport(), nil)

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7"})

		// Assert
		require.NoError(t, err)
		h.service.AssertExpectations(t)
	})

	t.Run("should combine a repository URL with --pr", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(demoReport(), nil)

		// Act
		err := h.run([]string{"--repo-url", "git@github.com:octo/demo.git", "--pr", "7"})

		// Assert
		require.NoError(t, err)
		h.service.AssertExpectations(t)
	})

	t.Run("should fail without prompting when stdin is not a terminal", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		prompted := false
		prompt := func(ref models.PullRequestRef, _ *i18n.Translations) (models.PullRequestRef, error) {
			prompted = true
			return ref, nil
		}

		// Act
		err := h.run([]string{"--owner", "octo", "--repo", "demo"}, WithPrompt(prompt))

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainErrors.ErrInvalidPullRequestRef))
		assert.False(t, prompted)
		assert.Contains(t, h.stderr.String(), "Field: number")
		h.service.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should prompt for missing fields on a terminal", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(demoReport(), nil)
		var got models.PullRequestRef
		prompt := func(ref models.PullRequestRef, _ *i18n.Translations) (models.PullRequestRef, error) {
			got = ref
			ref.Number = 7
			return ref, nil
		}

		// Act
		err := h.run([]string{"--owner", "octo", "--repo", "demo"},
			WithPrompt(prompt),
			WithTerminalCheck(func() bool { return true }))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.PullRequestRef{Owner: "octo", Repo: "demo"}, got)
		h.service.AssertExpectations(t)
	})

	t.Run("should surface a cancelled prompt", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		prompt := func(models.PullRequestRef, *i18n.Translations) (models.PullRequestRef, error) {
			return models.PullRequestRef{}, errors.New("prompt cancelled: user aborted")
		}

		// Act
		err := h.run(nil, WithPrompt(prompt), WithTerminalCheck(func() bool { return true }))

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt cancelled")
	})

	t.Run("should reject an unknown format before calling the service", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7", "--format", "pdf"})

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainErrors.ErrUnsupportedFormat))
		h.service.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should reject an unknown estimate mode", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7", "--estimate", "always"})

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainErrors.ErrInvalidConfig))
	})

	t.Run("should pass the estimate flag to the provider", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(demoReport(), nil)

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7", "--estimate", "LOCAL"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, config.EstimateLocal, h.estimate)
	})

	t.Run("should fail when the provider returns an error", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		provider := func(ctx context.Context, estimate config.EstimateMode) (ReviewService, error) {
			return nil, domainErrors.ErrGitHubTokenMissing
		}
		cmd := NewReviewCommand(provider, WithWriters(h.stdout, h.stderr)).CreateCommand(h.trans, h.cfg)

		// Act
		err := cmd.Run(context.Background(), []string{"review", "--url", "https://github.com/octo/demo/pull/7"})

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainErrors.ErrGitHubTokenMissing))
		assert.Contains(t, h.stderr.String(), "GitHub token is missing")
	})

	t.Run("should print the raw response when the review cannot be decoded", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		malformed := domainErrors.ErrMalformedPayload.WithDiagnostic(`{"candidates":[{"content":{"parts":[{"text":"not json"}]}}]}`)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(models.ReviewReport{}, malformed)

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7"})

		// Assert
		require.Error(t, err)
		assert.Contains(t, h.stderr.String(), "not json")
		assert.Empty(t, h.stdout.String())
	})

	t.Run("should render JSON into the output file", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).Return(demoReport(), nil)
		path := filepath.Join(t.TempDir(), "review.json")

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7", "--format", "json", "--output", path})

		// Assert
		require.NoError(t, err)
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Contains(t, string(data), `"summary": "Adds a nil check."`)
		assert.Empty(t, h.stdout.String())
		assert.Contains(t, h.stderr.String(), path)
	})

	t.Run("should report progress events without failing", func(t *testing.T) {
		// Arrange
		h := setupReviewTest(t)
		h.service.On("Review", mock.Anything, demoRef, mock.Anything).
			Run(func(args mock.Arguments) {
				progress := args.Get(2).(func(models.ProgressEvent))
				progress(models.ProgressEvent{Type: models.ProgressFetchingMetadata})
				progress(models.ProgressEvent{Type: models.ProgressEstimating, Data: map[string]interface{}{
					"input_tokens": 1200, "output_tokens": 2000, "estimated_cost": 0.0054, "model": "gemini-2.5-flash",
				}})
				progress(models.ProgressEvent{Type: models.ProgressRequestingReview, Data: map[string]interface{}{"model": "gemini-2.5-flash"}})
				progress(models.ProgressEvent{Type: models.ProgressRetrying, Message: "status 503", Data: map[string]interface{}{
					"attempt": 1, "max_attempts": 5, "delay": "2s", "final": false,
				}})
			}).
			Return(demoReport(), nil)

		// Act
		err := h.run([]string{"--url", "https://github.com/octo/demo/pull/7"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, h.stderr.String(), "1200")
	})
}
