package ai

import (
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
)

const jsonMIMEType = "application/json"

// BuildReviewRequest renders the review prompt. Title, body and diff are
// embedded verbatim, with no truncation and no escaping.
func BuildReviewRequest(lang string, meta models.PullRequestMetadata, diff models.UnifiedDiff) (models.ReviewRequest, error) {
	prompt, err := RenderPrompt("review", GetReviewPromptTemplate(lang), PromptData{
		Title: meta.Title,
		Body:  meta.Body,
		Diff:  string(diff),
	})
	if err != nil {
		return models.ReviewRequest{}, domainErrors.ErrBuildPrompt.WithError(err)
	}

	return models.ReviewRequest{
		Title:            meta.Title,
		Body:             meta.Body,
		Diff:             diff,
		Prompt:           prompt,
		ResponseMIMEType: jsonMIMEType,
		ResponseSchema:   ReviewResponseSchema(),
	}, nil
}
