// ABOUTME: One streaming session: the lifecycle of a single question's event stream
// ABOUTME: Explicit states replace event counting; handlers are bound to their session

package conversation

import "time"

// sessionState is the per-session state machine:
//
//	AwaitingHeader -> StreamingTokens -> Done | Failed
//	AwaitingHeader -> Failed
//
// Cancelled marks a session superseded by a newer submit or by Close.
type sessionState int

const (
	stateAwaitingHeader sessionState = iota
	stateStreamingTokens
	stateDone
	stateFailed
	stateCancelled
)

func (s sessionState) String() string {
	switch s {
	case stateAwaitingHeader:
		return "awaiting_header"
	case stateStreamingTokens:
		return "streaming_tokens"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	case stateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s sessionState) terminal() bool {
	return s == stateDone || s == stateFailed || s == stateCancelled
}

type session struct {
	id      string
	turn    int // index of the server turn this session writes
	state   sessionState
	queryID string
	stream  Stream
	stall   *time.Timer
}

// sessionHandler routes stream callbacks to the controller, tagged with the
// session that opened the stream.
type sessionHandler struct {
	c *Controller
	s *session
}

func (h *sessionHandler) OnMessage(payload string) {
	h.c.onStreamEvent(h.s, payload)
}

func (h *sessionHandler) OnError(err error) {
	h.c.onStreamError(h.s, err)
}
