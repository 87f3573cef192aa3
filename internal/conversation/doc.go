// Package conversation turns a stream of answer events into a conversation.
//
// # Overview
//
// A Controller owns one conversation: an ordered list of Turns written by
// the user or the server. Submitting a question appends a user turn and a
// loading server placeholder, then opens an answer stream through an
// EventSource. Events from that stream fold into the placeholder:
//
//	c := conversation.New(conversation.NewSSESource(client), userID)
//	defer c.Close()
//	c.Submit("where is the retry loop?")
//
// # Sessions
//
// Each submit starts a session with an explicit state:
//
//	AwaitingHeader -> StreamingTokens -> Done
//	AwaitingHeader -> Failed
//	StreamingTokens -> Failed
//
// The first event is the header. It either carries an Err, which replaces
// the placeholder with an error turn, or a query id and snippets. Later
// events append their Ok text. The "[DONE]" sentinel ends the session.
//
// Only one session is live at a time. A new submit closes the previous
// stream first; callbacks from a closed stream are bound to their own
// session and are dropped once it is no longer current. The superseded
// turn stays in the history with whatever text it had.
//
// # Failures
//
// Two failure channels exist and are kept apart:
//
//   - In-band: an Err in the header mutates the placeholder turn.
//   - Transport: a connection error, a malformed payload, or a stall
//     appends a new server turn reading TransportErrorMessage.
//
// In both cases the failed turn stops loading, so at most one turn in the
// conversation is ever loading.
//
// # Observing
//
// Subscribe delivers a State snapshot after every change. Snapshots are
// copies; a slow subscriber loses intermediate snapshots but always
// receives the newest one. The Broadcaster can be shared across
// controllers, keyed by thread id.
//
// # Persistence
//
// A Recorder, when configured, receives the turns whenever a session ends,
// including one cut short by Close. The store package provides one.
package conversation
