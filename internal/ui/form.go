package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/models"
)

var (
	errRequired      = errors.New("this field is required")
	errInvalidNumber = errors.New("PR number must be an integer >= 1")
)

// ValidateRequired rejects empty or blank input.
func ValidateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errRequired
	}
	return nil
}

// ValidatePRNumber accepts an integer >= 1.
func ValidatePRNumber(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errInvalidNumber
	}
	return nil
}

// PromptPullRequest asks for the parts of ref that are still missing,
// prefilled with whatever was already given on the command line.
func PromptPullRequest(ref models.PullRequestRef, t *i18n.Translations) (models.PullRequestRef, error) {
	owner := ref.Owner
	repo := ref.Repo
	number := ""
	if ref.Number > 0 {
		number = strconv.Itoa(ref.Number)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(t.GetMessage("form.title", 0, nil)),

			huh.NewInput().
				Title(t.GetMessage("form.owner", 0, nil)).
				Value(&owner).
				Validate(ValidateRequired),

			huh.NewInput().
				Title(t.GetMessage("form.repo", 0, nil)).
				Value(&repo).
				Validate(ValidateRequired),

			huh.NewInput().
				Title(t.GetMessage("form.pr_number", 0, nil)).
				Value(&number).
				Validate(ValidatePRNumber),
		),
	)

	if err := form.Run(); err != nil {
		return models.PullRequestRef{}, fmt.Errorf("prompt cancelled: %w", err)
	}

	n, _ := strconv.Atoi(strings.TrimSpace(number))
	return models.PullRequestRef{
		Owner:  strings.TrimSpace(owner),
		Repo:   strings.TrimSpace(repo),
		Number: n,
	}, nil
}
