// ABOUTME: Tests for incremental rendering of conversation snapshots
// ABOUTME: Drives streamRenderer with hand-built states

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/bloop-answer/internal/answer"
	"github.com/2389/bloop-answer/internal/conversation"
)

func userTurn(text string) conversation.Turn {
	return conversation.Turn{Author: conversation.AuthorUser, Text: text}
}

func serverTurn(text string, loading bool) conversation.Turn {
	return conversation.Turn{Author: conversation.AuthorServer, Text: text, IsLoading: loading}
}

func TestStreamRenderer_PrintsOnlyNewText(t *testing.T) {
	var buf bytes.Buffer
	r := newStreamRenderer(&buf)

	snippets := []answer.DisplaySnippet{{Path: "a.go", RepoName: "acme", Line: 10}}
	header := serverTurn("", true)
	header.Snippets = snippets

	r.Update(conversation.State{Turns: []conversation.Turn{userTurn("q"), serverTurn("", true)}, Active: true})
	assert.Empty(t, buf.String(), "nothing to show before text arrives")

	r.Update(conversation.State{Turns: []conversation.Turn{userTurn("q"), header}, Active: true})
	r.Update(conversation.State{Turns: []conversation.Turn{userTurn("q"), {Author: conversation.AuthorServer, Text: "Hello", IsLoading: true, Snippets: snippets}}, Active: true})
	r.Update(conversation.State{Turns: []conversation.Turn{userTurn("q"), {Author: conversation.AuthorServer, Text: "Hello world", IsLoading: true, Snippets: snippets}}, Active: true})
	done := conversation.State{Turns: []conversation.Turn{userTurn("q"), {Author: conversation.AuthorServer, Text: "Hello world", Snippets: snippets}}}
	r.Update(done)
	r.Update(done)

	assert.Equal(t, "bloop: Hello world\nsources:\n  [1] acme/a.go:10\n", buf.String())
}

func TestStreamRenderer_InBandError(t *testing.T) {
	var buf bytes.Buffer
	r := newStreamRenderer(&buf)

	r.Update(conversation.State{Turns: []conversation.Turn{
		userTurn("q"),
		{Author: conversation.AuthorServer, Error: "index not ready"},
	}})

	assert.Equal(t, "bloop: error: index not ready\n", buf.String())
}

func TestStreamRenderer_TransportErrorAfterPartialText(t *testing.T) {
	var buf bytes.Buffer
	r := newStreamRenderer(&buf)

	r.Update(conversation.State{Turns: []conversation.Turn{userTurn("q"), serverTurn("par", true)}, Active: true})
	r.Update(conversation.State{Turns: []conversation.Turn{
		userTurn("q"),
		serverTurn("par", false),
		{Author: conversation.AuthorServer, Error: conversation.TransportErrorMessage},
	}})

	assert.Equal(t, "bloop: par\nbloop: error: "+conversation.TransportErrorMessage+"\n", buf.String())
}

func TestPrintTurns(t *testing.T) {
	var buf bytes.Buffer
	turns := []conversation.Turn{
		userTurn("where?"),
		{Author: conversation.AuthorServer, Text: "here", Snippets: []answer.DisplaySnippet{{Path: "a.go"}}},
		{Author: conversation.AuthorServer, Error: "boom"},
	}

	printTurns(&buf, turns, 1)

	assert.Equal(t, "  0 you: where?\n* 1 bloop: here\n      1 snippet(s)\n  2 bloop: error: boom\n", buf.String())
}

func TestPrintSnippets(t *testing.T) {
	var buf bytes.Buffer
	printSnippets(&buf, []answer.DisplaySnippet{
		{Path: "a.go", RepoName: "acme", Lang: "go", Line: 7, Code: "func A() {\n}"},
	})

	assert.Equal(t, "[1] acme/a.go:7 (go)\n    7 func A() {\n    8 }\n\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", truncate("héllo wörld!", 10))
}
