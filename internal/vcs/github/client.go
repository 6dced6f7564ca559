package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/google/go-github/v80/github"
	"github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/vcs"
	"golang.org/x/oauth2"
)

var _ vcs.PullRequestReader = (*GitHubClient)(nil)

type PullRequestsService interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	GetRaw(ctx context.Context, owner, repo string, number int, opts github.RawOptions) (string, *github.Response, error)
}

// GitHubClient reads pull requests over the REST API. It never retries: a
// failed read surfaces as ErrRemoteFetch.
type GitHubClient struct {
	prService PullRequestsService
	token     string
}

// NewGitHubClient wires go-github on top of the secondary rate limit
// middleware and the token transport. A missing token is reported when a
// read is attempted, not here.
func NewGitHubClient(cfg *config.Config) (*GitHubClient, error) {
	client := github.NewClient(newHTTPClient(cfg.GitHubToken))

	if cfg.GitHubAPIURL != "" {
		baseURL := cfg.GitHubAPIURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, domainErrors.ErrInvalidConfig.WithError(err).
				WithContext("field", config.KeyGitHubAPIURL)
		}
		client.BaseURL = u
	}

	return &GitHubClient{
		prService: client.PullRequests,
		token:     cfg.GitHubToken,
	}, nil
}

// NewGitHubClientWithServices is used by tests to inject service doubles.
func NewGitHubClientWithServices(prService PullRequestsService, token string) *GitHubClient {
	return &GitHubClient{
		prService: prService,
		token:     token,
	}
}

// newHTTPClient sends "Authorization: token <credential>" on every request.
// Secondary rate limits are reported, never slept on: the 403 reaches
// go-github and the read fails once.
func newHTTPClient(token string) *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "token"})
		base = &oauth2.Transport{Source: ts, Base: base}
	}
	return github_ratelimit.NewClient(base,
		github_secondary_ratelimit.WithNoSleep(onSecondaryLimit),
	)
}

func onSecondaryLimit(cc *github_secondary_ratelimit.CallbackContext) {
	ctx := context.Background()
	if cc.Request != nil {
		ctx = cc.Request.Context()
	}
	args := []any{}
	if cc.ResetTime != nil {
		args = append(args, "reset_at", cc.ResetTime.Format(time.RFC3339))
	}
	logger.FromContext(ctx).Warn("github secondary rate limit hit", args...)
}

func (ghc *GitHubClient) FetchMetadata(ctx context.Context, ref models.PullRequestRef) (models.PullRequestMetadata, error) {
	log := logger.FromContext(ctx)

	if ghc.token == "" {
		return models.PullRequestMetadata{}, domainErrors.ErrGitHubTokenMissing.
			WithContext("operation", "get pull request")
	}

	log.Debug("fetching github pull request",
		"owner", ref.Owner,
		"repo", ref.Repo,
		"pr_number", ref.Number)

	start := time.Now()
	pr, resp, err := ghc.prService.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return models.PullRequestMetadata{}, ghc.fetchError(ctx, "get pull request", ref, resp, err)
	}

	log.Debug("github pull request fetched",
		"pr_number", ref.Number,
		"duration_ms", time.Since(start).Milliseconds())

	return models.PullRequestMetadata{
		Title: pr.GetTitle(),
		Body:  pr.GetBody(),
	}, nil
}

func (ghc *GitHubClient) FetchDiff(ctx context.Context, ref models.PullRequestRef) (models.UnifiedDiff, error) {
	log := logger.FromContext(ctx)

	if ghc.token == "" {
		return "", domainErrors.ErrGitHubTokenMissing.
			WithContext("operation", "get pull request diff")
	}

	log.Debug("fetching github pull request diff",
		"owner", ref.Owner,
		"repo", ref.Repo,
		"pr_number", ref.Number)

	start := time.Now()
	diff, resp, err := ghc.prService.GetRaw(ctx, ref.Owner, ref.Repo, ref.Number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", ghc.fetchError(ctx, "get pull request diff", ref, resp, err)
	}

	log.Debug("github pull request diff fetched",
		"pr_number", ref.Number,
		"size", len(diff),
		"duration_ms", time.Since(start).Milliseconds())

	return models.UnifiedDiff(diff), nil
}

func (ghc *GitHubClient) fetchError(ctx context.Context, operation string, ref models.PullRequestRef, resp *github.Response, err error) error {
	appErr := domainErrors.ErrRemoteFetch.
		WithError(err).
		WithContext("operation", operation).
		WithContext("repo", ref.FullName()).
		WithContext("pr_number", ref.Number)

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
		appErr = appErr.WithContext("status", status)
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr), status == http.StatusTooManyRequests:
		appErr = appErr.WithSuggestion(domainErrors.SuggestionGitHubRateLimit)
	case status == http.StatusUnauthorized:
		appErr = appErr.WithSuggestion(domainErrors.SuggestionGitHubTokenInvalid)
	case status == http.StatusNotFound:
		appErr = appErr.WithSuggestion(domainErrors.SuggestionRepositoryNotFound)
	}

	logger.FromContext(ctx).Error(fmt.Sprintf("failed to %s", operation),
		"error", err,
		"owner", ref.Owner,
		"repo", ref.Repo,
		"pr_number", ref.Number,
		"status", status)

	return appErr
}
