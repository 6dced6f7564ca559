package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/models"
)

func init() {
	color.NoColor = true
}

func demoReport() models.ReviewReport {
	return models.ReviewReport{
		Summary: "Solid fix with one gap",
		Issues: []models.Issue{{
			FilePath:      "main.go",
			Severity:      models.SeverityMajor,
			Description:   "error is swallowed",
			FixSuggestion: "return err",
		}},
	}
}

func mixedReport() models.ReviewReport {
	return models.ReviewReport{
		Summary: "several problems",
		Issues: []models.Issue{
			{FilePath: "a.go", Severity: models.SeverityCritical, Description: "first critical"},
			{FilePath: "b.go", Severity: models.SeverityMinor, Description: "minor one"},
			{FilePath: "c.go", Severity: models.SeverityMajor, Description: "major one"},
			{FilePath: "d.go", Severity: models.SeverityCritical, Description: "second critical"},
			{FilePath: "e.go", Severity: "BLOCKER", Description: "odd severity"},
		},
		FullCorrectedCode: "package main\n\nfunc main() {}",
	}
}

func render(t *testing.T, format string, report models.ReviewReport) string {
	t.Helper()
	w, err := NewWriter(format, DefaultLabels())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, report))
	return buf.String()
}

func TestWriters_DemoReport(t *testing.T) {
	for _, format := range []string{"text", "markdown", "html"} {
		t.Run(format, func(t *testing.T) {
			out := render(t, format, demoReport())

			assert.Contains(t, out, "Solid fix with one gap")
			assert.Contains(t, out, "Major (1)")
			assert.Contains(t, out, "Critical (0)")
			assert.Contains(t, out, "error is swallowed")
			assert.Contains(t, out, "return err")
			assert.NotContains(t, out, "Full corrected code")
			assert.NotContains(t, out, "Unclassified")
			assert.NotContains(t, out, "No issues found")
		})
	}
}

func TestWriters_GroupOrder(t *testing.T) {
	for _, format := range []string{"text", "markdown", "html"} {
		t.Run(format, func(t *testing.T) {
			out := render(t, format, mixedReport())

			critical := strings.Index(out, "Critical (2)")
			major := strings.Index(out, "Major (1)")
			minor := strings.Index(out, "Minor (1)")
			unclassified := strings.Index(out, "Unclassified (1)")
			require.True(t, critical >= 0 && major >= 0 && minor >= 0 && unclassified >= 0, out)
			assert.Less(t, critical, major)
			assert.Less(t, major, minor)
			assert.Less(t, minor, unclassified)

			assert.Less(t, strings.Index(out, "first critical"), strings.Index(out, "second critical"))
			assert.Contains(t, out, "Full corrected code")
			assert.Contains(t, out, "func main() {}")
		})
	}
}

func TestWriters_NoIssues(t *testing.T) {
	report := models.ReviewReport{Summary: "ok", Issues: []models.Issue{}}

	for _, format := range []string{"text", "markdown", "html"} {
		t.Run(format, func(t *testing.T) {
			out := render(t, format, report)

			assert.Contains(t, out, "No issues found")
			assert.NotContains(t, out, "Critical (")
			assert.NotContains(t, out, "<details")
		})
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Run("collapsible groups with language hint", func(t *testing.T) {
		out := NewMarkdownWriter(DefaultLabels()).Render(demoReport())

		assert.Contains(t, out, "<details>\n<summary><strong>Major (1)</strong></summary>")
		assert.Contains(t, out, "```go\nreturn err\n```")
		assert.Contains(t, out, "### 1. `main.go`")
	})

	t.Run("critical group starts open", func(t *testing.T) {
		out := NewMarkdownWriter(DefaultLabels()).Render(mixedReport())

		assert.Contains(t, out, "<details open>\n<summary><strong>Critical (2)</strong></summary>")
	})

	t.Run("fence outgrows backticks in the fix", func(t *testing.T) {
		report := demoReport()
		report.Issues[0].FixSuggestion = "```\nnested\n```"

		out := NewMarkdownWriter(DefaultLabels()).Render(report)

		assert.Contains(t, out, "````go\n```\nnested\n```\n````")
	})
}

func TestHTMLWriter_Sanitizes(t *testing.T) {
	report := demoReport()
	report.Summary = `<script>alert("x")</script>looks fine <img src=x onerror=alert(1)>`

	out := render(t, "html", report)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, "looks fine")
	assert.Contains(t, out, "<details>")
	assert.Contains(t, out, "<summary>")
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
}

func TestJSONWriter(t *testing.T) {
	out := render(t, "json", mixedReport())

	var decoded struct {
		Summary           string         `json:"summary"`
		Issues            []models.Issue `json:"review_report"`
		FullCorrectedCode string         `json:"full_corrected_code"`
		Counts            map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "several problems", decoded.Summary)
	assert.Len(t, decoded.Issues, 5)
	assert.Equal(t, map[string]int{"critical": 2, "major": 1, "minor": 1, "unclassified": 1}, decoded.Counts)

	t.Run("empty corrected code is omitted", func(t *testing.T) {
		out := render(t, "json", models.ReviewReport{Summary: "ok"})

		assert.NotContains(t, out, "full_corrected_code")
		assert.Contains(t, out, `"review_report": []`)
	})
}

func TestNewWriter(t *testing.T) {
	for _, format := range []string{"", "text", "TEXT", "md", "markdown", "json", "html"} {
		w, err := NewWriter(format, DefaultLabels())
		require.NoError(t, err, format)
		assert.NotNil(t, w)
	}

	_, err := NewWriter("pdf", DefaultLabels())
	assert.ErrorIs(t, err, domainErrors.ErrUnsupportedFormat)
}

func TestLabelsFromTranslations(t *testing.T) {
	trans, err := i18n.NewTranslations("es", "")
	require.NoError(t, err)

	labels := LabelsFromTranslations(trans)

	assert.NotContains(t, labels.Summary, "Translation missing")
	assert.NotContains(t, labels.Heading(GroupMajor, 1), "Translation missing")
	assert.Contains(t, labels.Heading(GroupMajor, 3), "3")

	assert.Equal(t, DefaultLabels().Title, LabelsFromTranslations(nil).Title)
}
