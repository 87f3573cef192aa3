// ABOUTME: Markdown export of a saved conversation
// ABOUTME: Questions and answers as sections, snippets as fenced code blocks

package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/2389/bloop-answer/internal/conversation"
	"github.com/2389/bloop-answer/internal/store"
)

// MarkdownExporter exports conversations in Markdown format
type MarkdownExporter struct{}

// Export exports a conversation to Markdown format
func (e *MarkdownExporter) Export(conv *store.Conversation, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(conv.Title))
	fmt.Fprintf(&b, "**Thread:** %s  \n", conv.ThreadID)
	if !conv.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "**Saved:** %s  \n", conv.CreatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "**Turns:** %d\n\n", len(conv.Turns))

	for _, t := range conv.Turns {
		b.WriteString("---\n\n")
		writeTurn(&b, t)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTurn(b *strings.Builder, t conversation.Turn) {
	if t.Author == conversation.AuthorUser {
		fmt.Fprintf(b, "### You\n\n%s\n\n", escapeMarkdown(t.Text))
		return
	}

	b.WriteString("### bloop\n\n")
	if t.Text != "" {
		fmt.Fprintf(b, "%s\n\n", t.Text)
	}
	if t.Error != "" {
		fmt.Fprintf(b, "> **Error:** %s\n\n", escapeMarkdown(t.Error))
	}
	if t.IsLoading {
		b.WriteString("_(answer incomplete)_\n\n")
	}
	if len(t.Snippets) == 0 {
		return
	}

	b.WriteString("**Snippets**\n\n")
	for _, s := range t.Snippets {
		fmt.Fprintf(b, "`%s/%s:%d`\n\n", s.RepoName, s.Path, s.Line)
		fence := fenceFor(s.Code)
		fmt.Fprintf(b, "%s%s\n%s\n%s\n\n", fence, s.Lang, strings.TrimRight(s.Code, "\n"), fence)
	}
}

// fenceFor returns a backtick fence longer than any backtick run in code.
func fenceFor(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

// escapeMarkdown escapes markdown emphasis outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCodeBlock := false

	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		line = strings.ReplaceAll(line, "__", "\\_\\_")
		if strings.HasPrefix(line, "#") {
			line = "\\" + line
		}
		lines[i] = line
	}

	return strings.Join(lines, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
