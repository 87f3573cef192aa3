// ABOUTME: Exporter interface and format lookup for saved conversations
// ABOUTME: Formats: json, yaml, markdown, html

package export

import (
	"fmt"
	"io"

	"github.com/2389/bloop-answer/internal/store"
)

// Exporter writes a saved conversation in one format.
type Exporter interface {
	Export(conv *store.Conversation, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "html":
		return &HTMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md, html)", format)
	}
}

// Formats lists the canonical format names accepted by NewExporter.
func Formats() []string {
	return []string{"json", "yaml", "md", "html"}
}
