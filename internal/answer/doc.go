// Package answer defines the wire format of the code-search answer stream.
//
// # Overview
//
// The answer endpoint streams unnamed server-sent events. Each payload is
// either a JSON object or the literal sentinel [DONE]:
//
//	data: {"query_id":"q1","snippets":[...]}   header (first event)
//	data: {"Err":"bad query"}                  header carrying a failure
//	data: {"Ok":"Hello"}                       token increment
//	data: [DONE]                               end of stream
//
// ParseEvent decodes JSON payloads, IsDone recognizes the sentinel, and
// MapSnippet projects wire snippets into DisplaySnippet values. The Write*
// helpers produce the same frames on the server side.
package answer
