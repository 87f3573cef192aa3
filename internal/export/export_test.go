// ABOUTME: Tests for conversation exporters
// ABOUTME: Covers format lookup and the content of each output format

package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/2389/bloop-answer/internal/answer"
	"github.com/2389/bloop-answer/internal/conversation"
	"github.com/2389/bloop-answer/internal/store"
)

func testConversation() *store.Conversation {
	return &store.Conversation{
		ID:       7,
		ThreadID: "3f1c2a9e-thread",
		UserID:   "alice",
		Title:    "where is the **retry** loop?",
		Turns: []conversation.Turn{
			{Author: conversation.AuthorUser, Text: "where is the **retry** loop?"},
			{
				Author: conversation.AuthorServer,
				Text:   "See `Retry` in **net/retry.go**.",
				Snippets: []answer.DisplaySnippet{
					{Path: "net/retry.go", Code: "func Retry() {\n\t// ```\n}", RepoName: "acme", Lang: "go", Line: 12},
				},
				QueryID: "q-1",
			},
			{Author: conversation.AuthorUser, Text: "<script>alert(1)</script>"},
			{Author: conversation.AuthorServer, Error: conversation.TransportErrorMessage},
		},
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{format: "json", wantExt: "json"},
		{format: "yaml", wantExt: "yaml"},
		{format: "yml", wantExt: "yaml"},
		{format: "md", wantExt: "md"},
		{format: "markdown", wantExt: "md"},
		{format: "html", wantExt: "html"},
		{format: "pdf", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, exp.Extension())
		})
	}
}

func TestFormatsAreAllSupported(t *testing.T) {
	for _, f := range Formats() {
		_, err := NewExporter(f)
		assert.NoError(t, err, f)
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(testConversation(), &buf))

	var got store.Conversation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "3f1c2a9e-thread", got.ThreadID)
	require.Len(t, got.Turns, 4)
	assert.Equal(t, "net/retry.go", got.Turns[1].Snippets[0].Path)
	assert.Contains(t, buf.String(), "\n  \"thread_id\"", "output is indented")
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(testConversation(), &buf))

	out := buf.String()
	assert.Contains(t, out, "thread_id: 3f1c2a9e-thread")
	assert.Contains(t, out, "repo_name: acme")

	var got store.Conversation
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "alice", got.UserID)
	assert.Len(t, got.Turns, 4)
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(testConversation(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# where is the \\*\\*retry\\*\\* loop?\n"))
	assert.Contains(t, out, "**Thread:** 3f1c2a9e-thread")
	assert.Contains(t, out, "**Saved:** 2026-03-04T05:06:07Z")
	assert.Contains(t, out, "### You")
	assert.Contains(t, out, "### bloop")
	assert.Contains(t, out, "See `Retry` in **net/retry.go**.", "answers are already markdown")
	assert.Contains(t, out, "`acme/net/retry.go:12`")
	assert.Contains(t, out, "````go\nfunc Retry() {", "fence outgrows backticks in code")
	assert.Contains(t, out, "> **Error:** "+conversation.TransportErrorMessage)
}

func TestMarkdownExporter_IncompleteAnswer(t *testing.T) {
	conv := &store.Conversation{
		Title: "q",
		Turns: []conversation.Turn{
			{Author: conversation.AuthorUser, Text: "q"},
			{Author: conversation.AuthorServer, Text: "half", IsLoading: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(conv, &buf))
	assert.Contains(t, buf.String(), "_(answer incomplete)_")
	assert.NotContains(t, buf.String(), "**Saved:**")
}

func TestFenceFor(t *testing.T) {
	assert.Equal(t, "```", fenceFor("plain"))
	assert.Equal(t, "```", fenceFor("a `b` c"))
	assert.Equal(t, "````", fenceFor("```"))
	assert.Equal(t, "``````", fenceFor("`````"))
}

func TestHTMLExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLExporter{}).Export(testConversation(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>where is the **retry** loop?</title>")
	assert.Contains(t, out, "<h3>You</h3>")
	assert.Contains(t, out, `<code class="language-go">`)
	assert.Contains(t, out, "<strong>net/retry.go</strong>")
	assert.NotContains(t, out, "<script>alert(1)</script>", "raw HTML must not pass through")
}
