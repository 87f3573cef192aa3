// ABOUTME: Handle for one open event stream
// ABOUTME: Close is non-blocking and suppresses every later callback

package sse

import (
	"context"
	"sync/atomic"
)

// Stream is an open event stream. The zero value is not usable; streams come
// from Client.Connect.
type Stream struct {
	cancel context.CancelFunc
	closed atomic.Bool
	done   chan struct{}
}

// Close tears down the connection. It never blocks and is safe to call more
// than once or from inside a Handler callback.
func (s *Stream) Close() {
	s.closed.Store(true)
	s.cancel()
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	return s.closed.Load()
}

// Done is closed once the stream's goroutine has exited.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}
