package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/thomas-vilte/matereview/internal/models"
)

// MarkdownWriter renders each severity group as a collapsible <details>
// block, which GitHub and most markdown viewers fold.
type MarkdownWriter struct {
	labels Labels
}

func NewMarkdownWriter(labels Labels) *MarkdownWriter {
	return &MarkdownWriter{labels: labels}
}

func (m *MarkdownWriter) Write(w io.Writer, report models.ReviewReport) error {
	_, err := io.WriteString(w, m.Render(report))
	return err
}

func (m *MarkdownWriter) Render(report models.ReviewReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", m.labels.Title)
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", m.labels.Summary, report.Summary)

	if len(report.Issues) == 0 {
		fmt.Fprintf(&b, "> ✅ %s\n\n", m.labels.NoIssues)
	} else {
		for _, s := range sections(report.Issues) {
			m.writeSection(&b, s)
		}
	}

	if report.HasCorrectedCode() {
		fence := fenceFor(report.FullCorrectedCode)
		fmt.Fprintf(&b, "## %s\n\n%s\n%s\n%s\n", m.labels.CorrectedCode, fence, report.FullCorrectedCode, fence)
	}

	return b.String()
}

func (m *MarkdownWriter) writeSection(b *strings.Builder, s section) {
	open := ""
	if s.group == GroupCritical && len(s.issues) > 0 {
		open = " open"
	}
	fmt.Fprintf(b, "<details%s>\n<summary><strong>%s</strong></summary>\n\n", open, m.labels.Heading(s.group, len(s.issues)))

	for i, issue := range s.issues {
		fmt.Fprintf(b, "### %d. `%s`\n\n", i+1, issue.FilePath)
		if issue.Description != "" {
			fmt.Fprintf(b, "%s\n\n", issue.Description)
		}
		if issue.FixSuggestion != "" {
			fence := fenceFor(issue.FixSuggestion)
			fmt.Fprintf(b, "**%s**\n\n%s%s\n%s\n%s\n\n", m.labels.Fix, fence, languageOf(issue.FilePath), issue.FixSuggestion, fence)
		}
	}

	b.WriteString("</details>\n\n")
}
