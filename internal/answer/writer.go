// ABOUTME: Server-side framing of answer events as unnamed SSE messages
// ABOUTME: Used by the dev server and by tests that fake the answer endpoint

package answer

import (
	"encoding/json"
	"fmt"
	"io"
)

// formatData frames a payload as a default ("message") SSE event.
func formatData(data string) string {
	return fmt.Sprintf("data: %s\n\n", data)
}

// WriteEvent marshals ev and writes it as one SSE message.
func WriteEvent(w io.Writer, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling answer event: %w", err)
	}
	_, err = io.WriteString(w, formatData(string(data)))
	return err
}

// WriteHeader writes the first event of a successful stream.
func WriteHeader(w io.Writer, queryID string, snippets []RawSnippet) error {
	if snippets == nil {
		snippets = []RawSnippet{}
	}
	// Event omits empty snippet lists; the header always carries the key.
	header := struct {
		QueryID  string       `json:"query_id"`
		Snippets []RawSnippet `json:"snippets"`
	}{queryID, snippets}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}
	_, err = io.WriteString(w, formatData(string(data)))
	return err
}

// WriteToken writes one text fragment. An empty fragment is still sent with
// an explicit "Ok" key.
func WriteToken(w io.Writer, fragment string) error {
	data, err := json.Marshal(map[string]string{"Ok": fragment})
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}
	_, err = io.WriteString(w, formatData(string(data)))
	return err
}

// WriteError writes an in-band failure header.
func WriteError(w io.Writer, message string) error {
	return WriteEvent(w, &Event{Err: message})
}

// WriteDone writes the end-of-stream sentinel.
func WriteDone(w io.Writer) error {
	_, err := io.WriteString(w, formatData(DoneSentinel))
	return err
}
