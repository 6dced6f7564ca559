package output

import (
	"fmt"

	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/models"
)

// Group is one of the severity sections of a report.
type Group string

const (
	GroupCritical     Group = "critical"
	GroupMajor        Group = "major"
	GroupMinor        Group = "minor"
	GroupUnclassified Group = "unclassified"
)

// Labels holds the user-facing strings of a rendered report.
type Labels struct {
	Title         string
	Summary       string
	NoIssues      string
	CorrectedCode string
	Fix           string
	Heading       func(g Group, count int) string
}

var defaultHeadings = map[Group]string{
	GroupCritical:     "Critical",
	GroupMajor:        "Major",
	GroupMinor:        "Minor",
	GroupUnclassified: "Unclassified",
}

func DefaultLabels() Labels {
	return Labels{
		Title:         "Code Review",
		Summary:       "Summary",
		NoIssues:      "No issues found",
		CorrectedCode: "Full corrected code",
		Fix:           "Suggested fix",
		Heading: func(g Group, count int) string {
			return fmt.Sprintf("%s (%d)", defaultHeadings[g], count)
		},
	}
}

// LabelsFromTranslations resolves every label through the message catalog.
func LabelsFromTranslations(t *i18n.Translations) Labels {
	if t == nil {
		return DefaultLabels()
	}
	return Labels{
		Title:         t.GetMessage("report.title", 0, nil),
		Summary:       t.GetMessage("report.summary", 0, nil),
		NoIssues:      t.GetMessage("report.no_issues", 0, nil),
		CorrectedCode: t.GetMessage("report.corrected_code", 0, nil),
		Fix:           t.GetMessage("report.fix", 0, nil),
		Heading: func(g Group, count int) string {
			return t.GetMessage("report."+string(g), count, map[string]interface{}{"Count": count})
		},
	}
}

type section struct {
	group  Group
	issues []models.Issue
}

// sections returns the known groups in severity order, followed by the
// unclassified group when it has issues.
func sections(issues []models.Issue) []section {
	g := models.GroupBySeverity(issues)
	out := []section{
		{GroupCritical, g.Critical},
		{GroupMajor, g.Major},
		{GroupMinor, g.Minor},
	}
	if len(g.Unclassified) > 0 {
		out = append(out, section{GroupUnclassified, g.Unclassified})
	}
	return out
}
