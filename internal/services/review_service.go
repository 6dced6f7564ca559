package services

import (
	"context"
	"errors"
	"time"

	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/vcs"
)

// ReviewService fetches a pull request, asks the model for a review and
// normalizes the answer. It stops at the first failing step.
type ReviewService struct {
	metadata   vcs.MetadataFetcher
	diff       vcs.DiffFetcher
	completion ai.CompletionClient
	estimator  *ai.CostEstimator
	language   string
}

type ReviewOption func(*ReviewService)

func WithMetadataFetcher(f vcs.MetadataFetcher) ReviewOption {
	return func(s *ReviewService) {
		s.metadata = f
	}
}

func WithDiffFetcher(f vcs.DiffFetcher) ReviewOption {
	return func(s *ReviewService) {
		s.diff = f
	}
}

// WithPullRequestReader sets both fetchers from one provider.
func WithPullRequestReader(r vcs.PullRequestReader) ReviewOption {
	return func(s *ReviewService) {
		s.metadata = r
		s.diff = r
	}
}

func WithCompletionClient(c ai.CompletionClient) ReviewOption {
	return func(s *ReviewService) {
		s.completion = c
	}
}

func WithCostEstimator(e *ai.CostEstimator) ReviewOption {
	return func(s *ReviewService) {
		s.estimator = e
	}
}

func WithReviewConfig(cfg *config.Config) ReviewOption {
	return func(s *ReviewService) {
		if cfg != nil {
			s.language = cfg.Language
		}
	}
}

func NewReviewService(opts ...ReviewOption) *ReviewService {
	s := &ReviewService{language: config.LangEN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Review runs validate, metadata, diff, prompt, estimate, completion and
// normalization in that order. progress may be nil.
func (s *ReviewService) Review(ctx context.Context, ref models.PullRequestRef, progress func(models.ProgressEvent)) (models.ReviewReport, error) {
	emit := func(t models.ProgressEventType, data map[string]interface{}) {
		if progress != nil {
			progress(models.ProgressEvent{Type: t, Data: data})
		}
	}

	if err := ref.Validate(); err != nil {
		return models.ReviewReport{}, err
	}

	ctx = logger.With(ctx, "owner", ref.Owner, "repo", ref.Repo, "pr_number", ref.Number)
	log := logger.FromContext(ctx)

	if s.metadata == nil || s.diff == nil || s.completion == nil {
		return models.ReviewReport{}, domainErrors.NewAppError(domainErrors.TypeInternal, "review service is missing a dependency", nil)
	}

	log.Info("starting review")

	emit(models.ProgressFetchingMetadata, nil)
	meta, err := s.metadata.FetchMetadata(ctx, ref)
	if err != nil {
		return models.ReviewReport{}, asRemoteFetch(err, "metadata")
	}

	emit(models.ProgressFetchingDiff, nil)
	diff, err := s.diff.FetchDiff(ctx, ref)
	if err != nil {
		return models.ReviewReport{}, asRemoteFetch(err, "diff")
	}

	log.Debug("pull request fetched",
		"title", meta.Title,
		"body_length", len(meta.Body),
		"diff_size", len(diff))

	emit(models.ProgressBuildingPrompt, nil)
	req, err := ai.BuildReviewRequest(s.language, meta, diff)
	if err != nil {
		return models.ReviewReport{}, err
	}

	if s.estimator != nil && s.estimator.CanEstimate() {
		emit(models.ProgressEstimating, nil)
		estimate, err := s.estimator.Estimate(ctx, req.Prompt)
		if err != nil {
			log.Warn("could not estimate review cost", "error", err)
		} else {
			emit(models.ProgressEstimating, map[string]interface{}{
				"input_tokens":   estimate.InputTokens,
				"output_tokens":  estimate.OutputTokens,
				"estimated_cost": estimate.EstimatedCost,
				"model":          estimate.Model,
			})
		}
	}

	emit(models.ProgressRequestingReview, map[string]interface{}{"model": s.completion.GetModelName()})
	start := time.Now()
	env, err := s.completion.Complete(ctx, req, progress)
	if err != nil {
		return models.ReviewReport{}, err
	}

	emit(models.ProgressNormalizing, nil)
	report, err := ai.NormalizeReview(env)
	if err != nil {
		log.Warn("review response could not be normalized", "error", err)
		return models.ReviewReport{}, err
	}

	if s.estimator != nil {
		s.estimator.ApplyUsage(report.Usage, time.Since(start))
	}

	log.Info("review completed",
		"issues", len(report.Issues),
		"attempts", env.Attempts,
		"duration_ms", time.Since(start).Milliseconds())

	return report, nil
}

// asRemoteFetch keeps domain errors from the fetchers and wraps anything else.
func asRemoteFetch(err error, operation string) error {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domainErrors.ErrRemoteFetch.WithError(err).WithContext("operation", operation)
}
