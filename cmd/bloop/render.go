// ABOUTME: Terminal rendering of conversation snapshots
// ABOUTME: Prints streamed text incrementally, then the snippets an answer cites

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/2389/bloop-answer/internal/answer"
	"github.com/2389/bloop-answer/internal/conversation"
	"github.com/2389/bloop-answer/internal/store"
)

var (
	userColor    = color.New(color.FgBlue, color.Bold)
	serverColor  = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	pathColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
)

// streamRenderer writes the newest server turn as it grows. Snapshots may
// skip intermediate states; only the unseen suffix of the text is printed.
type streamRenderer struct {
	out      io.Writer
	turn     int
	printed  int
	started  bool
	finished bool
}

func newStreamRenderer(out io.Writer) *streamRenderer {
	return &streamRenderer{out: out, turn: -1}
}

// Update renders st.
func (r *streamRenderer) Update(st conversation.State) {
	idx := lastServerIndex(st.Turns)
	if idx < 0 {
		return
	}
	if idx != r.turn {
		if r.started && !r.finished {
			fmt.Fprintln(r.out)
		}
		r.turn, r.printed, r.started, r.finished = idx, 0, false, false
	}
	if r.finished {
		return
	}

	t := st.Turns[idx]
	if !r.started && (t.Text != "" || t.Error != "" || !t.IsLoading) {
		serverColor.Fprint(r.out, "bloop: ")
		r.started = true
	}

	if len(t.Text) > r.printed {
		fmt.Fprint(r.out, t.Text[r.printed:])
		r.printed = len(t.Text)
	}

	if t.IsLoading {
		return
	}
	r.finished = true

	if t.Error != "" {
		if t.Text != "" {
			fmt.Fprintln(r.out)
		}
		errorColor.Fprintf(r.out, "error: %s\n", t.Error)
		return
	}
	fmt.Fprintln(r.out)
	printSnippetList(r.out, t.Snippets)
}

func lastServerIndex(turns []conversation.Turn) int {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Author == conversation.AuthorServer {
			return i
		}
	}
	return -1
}

// printSnippetList prints one location line per snippet.
func printSnippetList(out io.Writer, snippets []answer.DisplaySnippet) {
	if len(snippets) == 0 {
		return
	}
	dimColor.Fprintf(out, "sources:\n")
	for i, s := range snippets {
		fmt.Fprintf(out, "  [%d] ", i+1)
		pathColor.Fprintln(out, snippetLocation(s))
	}
}

// printSnippets prints each snippet with its code.
func printSnippets(out io.Writer, snippets []answer.DisplaySnippet) {
	if len(snippets) == 0 {
		dimColor.Fprintln(out, "no snippets")
		return
	}
	for i, s := range snippets {
		fmt.Fprintf(out, "[%d] ", i+1)
		pathColor.Fprint(out, snippetLocation(s))
		if s.Lang != "" {
			dimColor.Fprintf(out, " (%s)", s.Lang)
		}
		fmt.Fprintln(out)
		for n, line := range strings.Split(s.Code, "\n") {
			dimColor.Fprintf(out, "%5d ", s.Line+n)
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
	}
}

func snippetLocation(s answer.DisplaySnippet) string {
	loc := fmt.Sprintf("%s:%d", s.Path, s.Line)
	if s.RepoName != "" {
		loc = s.RepoName + "/" + loc
	}
	return loc
}

// printTurns prints a whole conversation with turn indexes.
func printTurns(out io.Writer, turns []conversation.Turn, viewed int) {
	for i, t := range turns {
		marker := " "
		if i == viewed {
			marker = "*"
		}
		dimColor.Fprintf(out, "%s%2d ", marker, i)
		switch t.Author {
		case conversation.AuthorUser:
			userColor.Fprint(out, "you: ")
			fmt.Fprintln(out, t.Text)
		default:
			serverColor.Fprint(out, "bloop: ")
			if t.Text != "" {
				fmt.Fprint(out, t.Text)
			}
			if t.Error != "" {
				if t.Text != "" {
					fmt.Fprintln(out)
				}
				errorColor.Fprintf(out, "error: %s", t.Error)
			}
			if t.IsLoading {
				warningColor.Fprint(out, " …")
			}
			fmt.Fprintln(out)
			if n := len(t.Snippets); n > 0 {
				dimColor.Fprintf(out, "      %d snippet(s)\n", n)
			}
		}
	}
}

// printPreviews prints a history listing.
func printPreviews(out io.Writer, previews []store.Preview) {
	if len(previews) == 0 {
		fmt.Fprintln(out, "No saved conversations")
		return
	}
	for _, p := range previews {
		dimColor.Fprintf(out, "%4d  %s  ", p.ID, p.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintln(out, truncate(p.Title, 60))
	}
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
