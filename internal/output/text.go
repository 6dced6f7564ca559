package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/thomas-vilte/matereview/internal/models"
)

var (
	titleColor    = color.New(color.FgMagenta, color.Bold)
	headingColor  = color.New(color.FgCyan, color.Bold)
	fileColor     = color.New(color.FgWhite, color.Bold)
	codeColor     = color.New(color.FgHiBlack)
	successColor  = color.New(color.FgGreen, color.Bold)
	separatorLine = strings.Repeat("━", 40)
)

var groupStyle = map[Group]struct {
	emoji string
	color *color.Color
}{
	GroupCritical:     {"🔴", color.New(color.FgRed, color.Bold)},
	GroupMajor:        {"🟠", color.New(color.FgYellow, color.Bold)},
	GroupMinor:        {"🔵", color.New(color.FgBlue, color.Bold)},
	GroupUnclassified: {"⚪", color.New(color.FgWhite, color.Bold)},
}

// TextWriter renders the report for a terminal.
type TextWriter struct {
	labels Labels
}

func NewTextWriter(labels Labels) *TextWriter {
	return &TextWriter{labels: labels}
}

func (t *TextWriter) Write(w io.Writer, report models.ReviewReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", headingColor.Sprint(separatorLine))
	fmt.Fprintf(&b, "🧉 %s\n", titleColor.Sprint(t.labels.Title))
	fmt.Fprintf(&b, "%s\n\n", headingColor.Sprint(separatorLine))

	fmt.Fprintf(&b, "📝 %s\n", headingColor.Sprint(t.labels.Summary))
	fmt.Fprintf(&b, "%s\n\n", indent(report.Summary, "   "))

	if len(report.Issues) == 0 {
		fmt.Fprintf(&b, "✅ %s\n", successColor.Sprint(t.labels.NoIssues))
	} else {
		for _, s := range sections(report.Issues) {
			t.writeSection(&b, s)
		}
	}

	if report.HasCorrectedCode() {
		fmt.Fprintf(&b, "\n🛠  %s\n", headingColor.Sprint(t.labels.CorrectedCode))
		fmt.Fprintf(&b, "%s\n", codeColor.Sprint(indent(report.FullCorrectedCode, "   ")))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *TextWriter) writeSection(b *strings.Builder, s section) {
	style := groupStyle[s.group]
	fmt.Fprintf(b, "%s %s\n", style.emoji, style.color.Sprint(t.labels.Heading(s.group, len(s.issues))))

	for i, issue := range s.issues {
		fmt.Fprintf(b, "   %d. %s\n", i+1, fileColor.Sprint(issue.FilePath))
		if issue.Description != "" {
			fmt.Fprintf(b, "%s\n", indent(issue.Description, "      "))
		}
		if issue.FixSuggestion != "" {
			fmt.Fprintf(b, "      %s:\n", t.labels.Fix)
			fmt.Fprintf(b, "%s\n", codeColor.Sprint(indent(issue.FixSuggestion, "        ")))
		}
	}
	b.WriteString("\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
