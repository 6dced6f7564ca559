package vcs

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gitsight/go-vcsurl"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
)

// ParsePullRequestURL turns https://github.com/<owner>/<repo>/pull/<n> into a ref.
func ParsePullRequestURL(raw string) (models.PullRequestRef, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return models.PullRequestRef{}, domainErrors.ErrInvalidPullRequestURL.WithError(err).WithContext("url", raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || (parts[2] != "pull" && parts[2] != "pulls") {
		return models.PullRequestRef{}, domainErrors.ErrInvalidPullRequestURL.WithContext("url", raw)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return models.PullRequestRef{}, domainErrors.ErrInvalidPullRequestURL.WithError(err).WithContext("url", raw)
	}

	ref := models.PullRequestRef{Owner: parts[0], Repo: parts[1], Number: number}
	if err := ref.Validate(); err != nil {
		return models.PullRequestRef{}, err
	}
	return ref, nil
}

// ParseRepository accepts owner/repo or any clone URL of a GitHub repository
// and returns its owner and name.
func ParseRepository(raw string) (owner, repo string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", domainErrors.ErrInvalidRepositoryURL.WithContext("url", raw)
	}

	if isSlug(raw) {
		parts := strings.SplitN(raw, "/", 2)
		return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
	}

	info, err := vcsurl.Parse(raw)
	if err != nil {
		return "", "", domainErrors.ErrInvalidRepositoryURL.WithError(err).WithContext("url", raw)
	}
	if info.Host != vcsurl.GitHub {
		return "", "", domainErrors.ErrInvalidRepositoryURL.
			WithContext("url", raw).
			WithContext("host", string(info.Host)).
			WithSuggestion("Only github.com repositories are supported")
	}
	if info.Username == "" || info.Name == "" {
		return "", "", domainErrors.ErrInvalidRepositoryURL.WithContext("url", raw)
	}
	return info.Username, info.Name, nil
}

func isSlug(raw string) bool {
	if strings.Contains(raw, ":") || strings.HasPrefix(raw, "github.com/") {
		return false
	}
	parts := strings.Split(raw, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
