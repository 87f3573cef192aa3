// Package devserver is a local stand-in for the code search answer API.
//
// GET /answer?q=<question>&user_id=<id> responds with text/event-stream in
// the same framing the real service uses:
//
//	data: {"query_id":"<uuid>","snippets":[{"relative_path":...}]}
//	data: {"Ok":"I"}
//	data: {"Ok":" found"}
//	...
//	data: [DONE]
//
// Snippets come from a plain line search over CorpusRoot. The answer text
// just lists where the matches are; it is streamed one word at a time,
// paced by a token bucket so clients see a realistic trickle.
//
// A blank question yields a single {"Err":...} event. When a Verifier is
// configured, requests need a bearer JWT whose subject matches user_id;
// otherwise they get 401 or 403 before any event is sent.
//
// GET /healthz returns 200.
package devserver
