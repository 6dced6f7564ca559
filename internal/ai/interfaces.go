package ai

import (
	"context"

	"github.com/thomas-vilte/matereview/internal/models"
)

// CompletionClient sends a review request to a generative model and returns
// the raw provider envelope.
type CompletionClient interface {
	// Complete retries transient failures internally. progress, when not nil,
	// receives one ProgressRetrying event per failed attempt.
	Complete(ctx context.Context, req models.ReviewRequest, progress func(models.ProgressEvent)) (models.CompletionEnvelope, error)

	// GetModelName returns the name of the current model (e.g.: "gemini-2.5-flash")
	GetModelName() string

	// GetProviderName returns the name of the provider (e.g.: "gemini")
	GetProviderName() string
}

// TokenCounter counts the tokens of a prompt without making the actual model call.
type TokenCounter interface {
	CountTokens(ctx context.Context, content string) (int, error)
}
