// ABOUTME: JSON export of a saved conversation
// ABOUTME: Pretty-printed; field names match the store's JSON encoding

package export

import (
	"encoding/json"
	"io"

	"github.com/2389/bloop-answer/internal/store"
)

// JSONExporter exports conversations in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a conversation to JSON format
func (e *JSONExporter) Export(conv *store.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(conv)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
