package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
)

const providerName = "gemini"

var _ ai.CompletionClient = (*CompletionClient)(nil)

// CompletionClient calls the Gemini generateContent REST endpoint.
type CompletionClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	retrier    *ai.Retrier
}

type Option func(*CompletionClient)

func WithHTTPClient(c *http.Client) Option {
	return func(cc *CompletionClient) {
		if c != nil {
			cc.httpClient = c
		}
	}
}

func WithRetrier(r *ai.Retrier) Option {
	return func(cc *CompletionClient) {
		if r != nil {
			cc.retrier = r
		}
	}
}

func WithBaseURL(u string) Option {
	return func(cc *CompletionClient) {
		if u != "" {
			cc.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewCompletionClient never fails on a missing key; Complete reports it so
// other commands keep working without Gemini credentials.
func NewCompletionClient(cfg *config.Config, opts ...Option) *CompletionClient {
	timeout := cfg.CompletionTimeout
	if timeout < config.MinCompletionTimeout {
		timeout = config.MinCompletionTimeout
	}

	c := &CompletionClient{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.GeminiAPIURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retrier: ai.NewRetrier(
			ai.WithMaxAttempts(cfg.MaxAttempts),
			ai.WithInitialBackoff(cfg.InitialBackoff),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CompletionClient) GetModelName() string {
	return c.model
}

func (c *CompletionClient) GetProviderName() string {
	return providerName
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   *models.Schema `json:"responseSchema,omitempty"`
}

// statusError is a non-2xx answer from the API.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini API error (status %d): %s", e.StatusCode, e.Body)
}

// Complete posts the prompt and returns the JSON envelope as received.
// Network failures, timeouts and non-2xx statuses are retried.
func (c *CompletionClient) Complete(ctx context.Context, req models.ReviewRequest, progress func(models.ProgressEvent)) (models.CompletionEnvelope, error) {
	log := logger.FromContext(ctx)

	if c.apiKey == "" {
		return models.CompletionEnvelope{}, domainErrors.ErrGeminiAPIKeyMissing
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: req.Prompt}},
		}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: req.ResponseMIMEType,
			ResponseSchema:   req.ResponseSchema,
		},
	})
	if err != nil {
		return models.CompletionEnvelope{}, domainErrors.NewAppError(domainErrors.TypeInternal, "error marshaling Gemini request", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	log.Debug("sending review request",
		"model", c.model,
		"prompt_length", len(req.Prompt))

	start := time.Now()
	var envelope models.CompletionEnvelope

	outcome, err := c.retrier.Do(ctx, func(ctx context.Context, attempt int) error {
		body, status, err := c.post(ctx, endpoint, payload)
		if err != nil {
			return err
		}
		if !json.Valid(body) {
			return backoff.Permanent(domainErrors.ErrMalformedEnvelope.
				WithContext("status", status).
				WithDiagnostic(string(body)))
		}
		envelope = models.CompletionEnvelope{Body: body, StatusCode: status, Attempts: attempt}
		return nil
	}, func(e ai.RetryEvent) {
		if progress == nil {
			return
		}
		progress(models.ProgressEvent{
			Type:    models.ProgressRetrying,
			Message: e.Err.Error(),
			Data: map[string]interface{}{
				"attempt":      e.Attempt,
				"max_attempts": e.MaxAttempts,
				"delay":        e.Delay,
				"final":        e.Final,
			},
		})
	})

	if err != nil {
		if outcome.State == ai.StateExhausted {
			return models.CompletionEnvelope{}, domainErrors.ErrRemoteCallExhausted.
				WithError(err).
				WithContext("attempts", outcome.Attempts)
		}
		return models.CompletionEnvelope{}, err
	}

	log.Debug("review response received",
		"model", c.model,
		"attempts", outcome.Attempts,
		"status", envelope.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	return envelope, nil
}

func (c *CompletionClient) post(ctx context.Context, endpoint string, payload []byte) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, backoff.Permanent(domainErrors.ErrBuildRequest.WithError(redactKey(err, c.apiKey)))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("sending request: %w", redactKey(err, c.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &statusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, resp.StatusCode, nil
}

// redactKey strips the API key from transport errors, which quote the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), url.QueryEscape(key)) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED"))
}
