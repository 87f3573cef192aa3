// ABOUTME: Wire schema for the /answer event stream and its parser
// ABOUTME: Recognizes the [DONE] sentinel and decodes JSON header/token events

package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DoneSentinel is the literal payload that ends a successful answer stream.
// It is not JSON.
const DoneSentinel = "[DONE]"

// ErrMalformedEvent is returned when a payload is neither the sentinel nor a
// JSON object.
var ErrMalformedEvent = errors.New("malformed answer event")

// Event is one decoded payload from the answer stream. The first event of a
// stream is the header (Err, or QueryID and Snippets); every later event is a
// token increment carried in Ok.
type Event struct {
	Err      string       `json:"Err,omitempty"`
	QueryID  string       `json:"query_id,omitempty"`
	Snippets []RawSnippet `json:"snippets,omitempty"`
	Ok       string       `json:"Ok,omitempty"`
}

// IsDone reports whether payload is the end-of-stream sentinel.
func IsDone(payload string) bool {
	return payload == DoneSentinel
}

// ParseEvent decodes a non-sentinel payload. Callers check IsDone first.
func ParseEvent(payload string) (*Event, error) {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: expected JSON object", ErrMalformedEvent)
	}

	var ev Event
	if err := json.Unmarshal([]byte(trimmed), &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &ev, nil
}
