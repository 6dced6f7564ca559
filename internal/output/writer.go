// Package output renders a review report for the terminal or for files.
package output

import (
	"io"
	"path/filepath"
	"strings"

	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// SupportedFormats lists the values accepted by --format.
func SupportedFormats() []string {
	return []string{string(FormatText), string(FormatMarkdown), string(FormatJSON), string(FormatHTML)}
}

// Writer renders a report.
type Writer interface {
	Write(w io.Writer, report models.ReviewReport) error
}

// NewWriter returns the writer for format. "md" is accepted for markdown.
func NewWriter(format string, labels Labels) (Writer, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatText, "":
		return NewTextWriter(labels), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(labels), nil
	case FormatJSON:
		return &JSONWriter{}, nil
	case FormatHTML:
		return NewHTMLWriter(labels), nil
	default:
		return nil, domainErrors.ErrUnsupportedFormat.WithContext("field", format)
	}
}

// fenceFor returns a backtick fence longer than any run inside code.
func fenceFor(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".sh":   "bash",
	".yml":  "yaml",
	".yaml": "yaml",
	".json": "json",
	".sql":  "sql",
}

// languageOf guesses the code block language from a file path.
func languageOf(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}
