package ai

import (
	"encoding/json"
	"errors"

	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/tidwall/gjson"
)

// DefaultSummary replaces a summary the model left out.
const DefaultSummary = "No summary provided."

const payloadPath = "candidates.0.content.parts.0.text"

// reviewPayload distinguishes absent fields from empty ones.
type reviewPayload struct {
	Summary           *string         `json:"summary"`
	Issues            *[]issuePayload `json:"review_report"`
	FullCorrectedCode *string         `json:"full_corrected_code"`
}

type issuePayload struct {
	FilePath      *string `json:"file_path"`
	Severity      *string `json:"severity"`
	Description   *string `json:"description"`
	FixSuggestion *string `json:"fix_suggestion_code"`
}

// NormalizeReview turns a raw provider envelope into a ReviewReport.
// Both failure modes carry the raw envelope as diagnostic.
func NormalizeReview(env models.CompletionEnvelope) (models.ReviewReport, error) {
	raw := env.String()

	text := gjson.GetBytes(env.Body, payloadPath)
	if !text.Exists() || text.Type != gjson.String {
		return models.ReviewReport{}, domainErrors.ErrMalformedEnvelope.
			WithContext("path", payloadPath).
			WithDiagnostic(raw)
	}

	payload, err := decodePayload(text.String())
	if err != nil {
		return models.ReviewReport{}, domainErrors.ErrMalformedPayload.
			WithError(err).
			WithDiagnostic(raw)
	}

	report := payload.toReport()
	report.Usage = extractUsage(env.Body)
	return report, nil
}

func decodePayload(text string) (reviewPayload, error) {
	var p reviewPayload
	err := json.Unmarshal([]byte(text), &p)
	if err == nil && isJSONObject(text) {
		return p, nil
	}

	repaired, ok := ExtractJSON(text)
	if !ok {
		if err == nil {
			err = errNotAnObject
		}
		return reviewPayload{}, err
	}

	// A block pulled out of surrounding prose only counts when it looks
	// like a review.
	if !hasReviewKeys(repaired) {
		return reviewPayload{}, errNoReviewFields
	}

	var fixed reviewPayload
	if rerr := json.Unmarshal([]byte(repaired), &fixed); rerr != nil {
		return reviewPayload{}, rerr
	}
	return fixed, nil
}

var (
	errNotAnObject    = errors.New("review payload is not a JSON object")
	errNoReviewFields = errors.New("embedded JSON has none of the review fields")
)

var reviewKeys = []string{"summary", "review_report", "full_corrected_code"}

func hasReviewKeys(obj string) bool {
	for _, r := range gjson.GetMany(obj, reviewKeys...) {
		if r.Exists() {
			return true
		}
	}
	return false
}

func (p reviewPayload) toReport() models.ReviewReport {
	report := models.ReviewReport{
		Summary: DefaultSummary,
		Issues:  []models.Issue{},
	}
	if p.Summary != nil {
		report.Summary = *p.Summary
	}
	if p.FullCorrectedCode != nil {
		report.FullCorrectedCode = *p.FullCorrectedCode
	}
	if p.Issues != nil {
		for _, ip := range *p.Issues {
			report.Issues = append(report.Issues, models.Issue{
				FilePath:      deref(ip.FilePath),
				Severity:      models.Severity(deref(ip.Severity)),
				Description:   deref(ip.Description),
				FixSuggestion: deref(ip.FixSuggestion),
			})
		}
	}
	return report
}

func extractUsage(body []byte) *models.TokenUsage {
	meta := gjson.GetBytes(body, "usageMetadata")
	if !meta.Exists() || !meta.IsObject() {
		return nil
	}
	return &models.TokenUsage{
		InputTokens:  int(meta.Get("promptTokenCount").Int()),
		OutputTokens: int(meta.Get("candidatesTokenCount").Int()),
		TotalTokens:  int(meta.Get("totalTokenCount").Int()),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
