package vcs

import (
	"context"

	"github.com/thomas-vilte/matereview/internal/models"
)

// MetadataFetcher reads the title and body of a pull request.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, ref models.PullRequestRef) (models.PullRequestMetadata, error)
}

// DiffFetcher reads the unified diff of a pull request, verbatim.
type DiffFetcher interface {
	FetchDiff(ctx context.Context, ref models.PullRequestRef) (models.UnifiedDiff, error)
}

// PullRequestReader is implemented by providers that serve both reads.
type PullRequestReader interface {
	MetadataFetcher
	DiffFetcher
}
