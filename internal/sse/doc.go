// Package sse is a client for server-sent event streams.
//
// # Overview
//
// Client.Connect issues a GET with Accept: text/event-stream and parses the
// body line by line: "event:", "data:" and "id:" fields accumulate until a
// blank line dispatches an Event. Unnamed events get the type "message".
// Comment lines (":") are skipped.
//
// Each stream runs on its own goroutine and calls its Handler sequentially.
// Transport failures (refused connection, non-200 status, read error, or the
// server hanging up) are reported once through Handler.OnError. Stream.Close
// cancels the request without blocking; after Close no callback fires.
//
// # Usage
//
//	c := sse.NewClient("http://localhost:7878", sse.WithToken(token))
//	s := c.OpenAnswer("where is the router?", userID, handler)
//	defer s.Close()
package sse
