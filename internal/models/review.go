package models

import "encoding/json"

// Severity classifies an issue. Values coming from the model are kept verbatim,
// so a Severity may hold something other than the three known constants.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Schema is the subset of the Gemini response schema used to constrain the
// model output.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ReviewRequest is built once per review and never mutated afterwards.
type ReviewRequest struct {
	Title            string
	Body             string
	Diff             UnifiedDiff
	Prompt           string
	ResponseMIMEType string
	ResponseSchema   *Schema
}

// CompletionEnvelope is the undecoded provider response.
type CompletionEnvelope struct {
	Body       json.RawMessage
	StatusCode int
	Attempts   int
}

func (e CompletionEnvelope) String() string {
	return string(e.Body)
}

// Issue is a single finding reported by the reviewer.
type Issue struct {
	FilePath      string   `json:"file_path"`
	Severity      Severity `json:"severity"`
	Description   string   `json:"description"`
	FixSuggestion string   `json:"fix_suggestion_code"`
}

// ReviewReport is the normalized review.
type ReviewReport struct {
	Summary           string      `json:"summary"`
	Issues            []Issue     `json:"review_report"`
	FullCorrectedCode string      `json:"full_corrected_code,omitempty"`
	Usage             *TokenUsage `json:"usage,omitempty"`
}

// HasCorrectedCode reports whether the model proposed a full corrected file.
func (r ReviewReport) HasCorrectedCode() bool {
	return r.FullCorrectedCode != ""
}

// SeverityGroups partitions issues by exact severity match. Issues whose
// severity is not one of the known values end up in Unclassified.
type SeverityGroups struct {
	Critical     []Issue
	Major        []Issue
	Minor        []Issue
	Unclassified []Issue
}

// Total returns the number of grouped issues, unclassified included.
func (g SeverityGroups) Total() int {
	return len(g.Critical) + len(g.Major) + len(g.Minor) + len(g.Unclassified)
}

// GroupBySeverity keeps the relative order of issues inside each group.
func GroupBySeverity(issues []Issue) SeverityGroups {
	var g SeverityGroups
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			g.Critical = append(g.Critical, issue)
		case SeverityMajor:
			g.Major = append(g.Major, issue)
		case SeverityMinor:
			g.Minor = append(g.Minor, issue)
		default:
			g.Unclassified = append(g.Unclassified, issue)
		}
	}
	return g
}
