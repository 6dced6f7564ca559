package output

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// HTMLWriter renders the markdown report to a standalone, sanitized page.
// Model output is untrusted, so everything goes through bluemonday.
type HTMLWriter struct {
	markdown  *MarkdownWriter
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func NewHTMLWriter(labels Labels) *HTMLWriter {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("details", "summary")
	policy.AllowAttrs("open").OnElements("details")

	return &HTMLWriter{
		markdown: NewMarkdownWriter(labels),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
		),
		sanitizer: policy,
	}
}

func (h *HTMLWriter) Write(w io.Writer, report models.ReviewReport) error {
	body, err := h.Render(report)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, htmlPage, html.EscapeString(h.markdown.labels.Title), body)
	return err
}

// Render returns the sanitized HTML fragment without the page wrapper.
func (h *HTMLWriter) Render(report models.ReviewReport) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(h.markdown.Render(report)), &buf); err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return h.sanitizer.Sanitize(buf.String()), nil
}
