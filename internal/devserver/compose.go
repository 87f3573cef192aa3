// ABOUTME: Builds the canned answer text the dev server streams after the header
// ABOUTME: Splits text into fragments that concatenate back to the original

package devserver

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/2389/bloop-answer/internal/answer"
)

// composeAnswer describes the snippets found for query in plain markdown.
func composeAnswer(query, repo string, snippets []answer.RawSnippet) string {
	if len(snippets) == 0 {
		return fmt.Sprintf("I couldn't find anything in %s matching %q.", repo, query)
	}

	var b strings.Builder
	noun := "places"
	if len(snippets) == 1 {
		noun = "place"
	}
	fmt.Fprintf(&b, "I found %d %s in %s that look relevant to %q:\n", len(snippets), noun, repo, query)
	for _, s := range snippets {
		fmt.Fprintf(&b, "\n- `%s` starting at line %d", s.RelativePath, s.StartLine)
	}
	return b.String()
}

// splitFragments cuts text into word-sized fragments. Each fragment carries
// the whitespace that precedes its word, so joining them restores text.
func splitFragments(text string) []string {
	var fragments []string
	start := 0
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && inWord {
			fragments = append(fragments, text[start:i])
			start = i
		}
		inWord = !space
	}
	if start < len(text) {
		fragments = append(fragments, text[start:])
	}
	return fragments
}
