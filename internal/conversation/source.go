// ABOUTME: Adapts the SSE client to the controller's EventSource interface
// ABOUTME: Only default "message" events carry answer payloads

package conversation

import "github.com/2389/bloop-answer/internal/sse"

// SSESource opens answer streams over HTTP.
type SSESource struct {
	client *sse.Client
}

// NewSSESource wraps client as an EventSource.
func NewSSESource(client *sse.Client) *SSESource {
	return &SSESource{client: client}
}

// Open starts the answer stream for question.
func (s *SSESource) Open(question, userID string, h StreamHandler) Stream {
	return s.client.OpenAnswer(question, userID, messageHandler{h: h})
}

// messageHandler forwards unnamed events, which is what a browser
// EventSource's onmessage would see.
type messageHandler struct {
	h StreamHandler
}

func (m messageHandler) OnEvent(e sse.Event) {
	if e.Type != "message" {
		return
	}
	m.h.OnMessage(e.Data)
}

func (m messageHandler) OnError(err error) {
	m.h.OnError(err)
}
