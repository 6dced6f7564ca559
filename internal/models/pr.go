package models

import (
	"fmt"
	"strings"

	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
)

// PullRequestRef identifies the pull request to review.
type PullRequestRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// Validate checks that every part of the reference is present. It runs before
// any network call is issued.
func (r PullRequestRef) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return domainErrors.ErrInvalidPullRequestRef.WithContext("field", "owner")
	}
	if strings.TrimSpace(r.Repo) == "" {
		return domainErrors.ErrInvalidPullRequestRef.WithContext("field", "repo")
	}
	if r.Number < 1 {
		return domainErrors.ErrInvalidPullRequestRef.
			WithContext("field", "number").
			WithContext("number", r.Number)
	}
	return nil
}

// FullName returns "owner/repo".
func (r PullRequestRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// PullRequestMetadata is the subset of the pull request the review needs.
// Absent fields are empty strings.
type PullRequestMetadata struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UnifiedDiff is the raw diff text of a pull request. It may be empty.
type UnifiedDiff string
