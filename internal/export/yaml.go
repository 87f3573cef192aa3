// ABOUTME: YAML export of a saved conversation
// ABOUTME: Uses yaml.v3 with the yaml tags on Conversation and Turn

package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/2389/bloop-answer/internal/store"
)

// YAMLExporter exports conversations in YAML format
type YAMLExporter struct{}

// Export exports a conversation to YAML format
func (e *YAMLExporter) Export(conv *store.Conversation, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(conv)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
