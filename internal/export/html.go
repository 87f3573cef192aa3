// ABOUTME: HTML export: the markdown export rendered by goldmark into a standalone page
// ABOUTME: Raw HTML in conversation text is escaped, never passed through

package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"github.com/2389/bloop-answer/internal/store"
)

//go:embed templates/conversation.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/conversation.html"))

// HTMLExporter exports conversations as a single HTML page
type HTMLExporter struct{}

// Export renders the markdown form of conv and wraps it in a page.
func (e *HTMLExporter) Export(conv *store.Conversation, w io.Writer) error {
	var md bytes.Buffer
	if err := (&MarkdownExporter{}).Export(conv, &md); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}

	var body bytes.Buffer
	if err := goldmark.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}

	data := struct {
		Title string
		Body  template.HTML
	}{
		Title: conv.Title,
		// goldmark escapes raw HTML unless WithUnsafe is set
		Body: template.HTML(body.String()),
	}

	return pageTmpl.Execute(w, data)
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
