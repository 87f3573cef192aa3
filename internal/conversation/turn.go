// ABOUTME: Conversation data model: turns authored by the user or the server
// ABOUTME: Turns are values; snapshots copy them so callers never alias controller state

package conversation

import (
	"slices"
	"strings"

	"github.com/2389/bloop-answer/internal/answer"
)

// Author identifies who wrote a turn.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorServer Author = "server"
)

// TransportErrorMessage is the text of the turn appended when a stream fails
// at the connection level.
const TransportErrorMessage = "Sorry, something went wrong"

// Turn is one message in a conversation. For server turns, Text accumulates
// the streamed reply and Snippets holds the search results from the header.
type Turn struct {
	Author    Author                  `json:"author" yaml:"author"`
	Text      string                  `json:"text,omitempty" yaml:"text,omitempty"`
	IsLoading bool                    `json:"is_loading" yaml:"is_loading"`
	Error     string                  `json:"error,omitempty" yaml:"error,omitempty"`
	Snippets  []answer.DisplaySnippet `json:"snippets,omitempty" yaml:"snippets,omitempty"`
	QueryID   string                  `json:"query_id,omitempty" yaml:"query_id,omitempty"`
}

// clone returns a copy that shares nothing mutable with t.
func (t Turn) clone() Turn {
	t.Snippets = slices.Clone(t.Snippets)
	return t
}

// cloneTurns deep-copies a slice of turns.
func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t.clone()
	}
	return out
}

// Title returns the first line of the first user turn, which names a
// conversation in history listings. ok is false when no user turn exists.
func Title(turns []Turn) (title string, ok bool) {
	for _, t := range turns {
		if t.Author != AuthorUser {
			continue
		}
		first, _, _ := strings.Cut(t.Text, "\n")
		return first, true
	}
	return "", false
}
