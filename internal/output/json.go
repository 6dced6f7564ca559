package output

import (
	"encoding/json"
	"io"

	"github.com/thomas-vilte/matereview/internal/models"
)

// JSONWriter emits the report with the same keys the model was asked for,
// plus counts per severity.
type JSONWriter struct{}

type jsonReport struct {
	models.ReviewReport
	Counts map[string]int `json:"counts"`
}

func (j *JSONWriter) Write(w io.Writer, report models.ReviewReport) error {
	if report.Issues == nil {
		report.Issues = []models.Issue{}
	}

	g := models.GroupBySeverity(report.Issues)
	out := jsonReport{
		ReviewReport: report,
		Counts: map[string]int{
			string(GroupCritical):     len(g.Critical),
			string(GroupMajor):        len(g.Major),
			string(GroupMinor):        len(g.Minor),
			string(GroupUnclassified): len(g.Unclassified),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
