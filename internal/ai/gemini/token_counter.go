package gemini

import (
	"context"
	"strings"

	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"google.golang.org/genai"
)

var _ ai.TokenCounter = (*TokenCounter)(nil)

// TokenCounter asks the Gemini countTokens endpoint how big a prompt is.
type TokenCounter struct {
	client *genai.Client
	model  string
}

func NewTokenCounter(ctx context.Context, cfg *config.Config) (*TokenCounter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, domainErrors.ErrGeminiAPIKeyMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimRight(cfg.GeminiAPIURL, "/") + "/",
		},
	})
	if err != nil {
		return nil, domainErrors.NewAppError(domainErrors.TypeAI, "error creating AI client", err)
	}

	return &TokenCounter{client: client, model: cfg.Model}, nil
}

func (t *TokenCounter) CountTokens(ctx context.Context, content string) (int, error) {
	resp, err := t.client.Models.CountTokens(ctx, t.model, genai.Text(content), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}
