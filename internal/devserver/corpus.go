// ABOUTME: Line search over a directory tree, producing answer snippets
// ABOUTME: Scores files by distinct query terms matched and keeps the best line per file

package devserver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/2389/bloop-answer/internal/answer"
)

const (
	// maxFileSize skips files too large to be source.
	maxFileSize = 1 << 20
	// contextLines is how many lines are kept on each side of a match.
	contextLines = 2
)

var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
}

var langByExt = map[string]string{
	".go":   "go",
	".rs":   "rust",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".rb":   "ruby",
	".md":   "markdown",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".json": "json",
	".sh":   "shell",
	".sql":  "sql",
}

// Corpus searches the files under a root directory.
type Corpus struct {
	root string
	repo string
}

// NewCorpus creates a corpus rooted at root. The repository name reported in
// snippets is the root's base name.
func NewCorpus(root string) (*Corpus, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving corpus root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", abs)
	}
	return &Corpus{root: abs, repo: filepath.Base(abs)}, nil
}

// Repo returns the repository name used in snippets.
func (c *Corpus) Repo() string {
	return c.repo
}

type match struct {
	snippet answer.RawSnippet
	score   int
}

// Search returns up to limit snippets for query, best first.
func (c *Corpus) Search(ctx context.Context, query string, limit int) ([]answer.RawSnippet, error) {
	terms := queryTerms(query)
	if len(terms) == 0 || limit <= 0 {
		return []answer.RawSnippet{}, nil
	}

	var matches []match
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != c.root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		m, ok := c.searchFile(path, terms)
		if ok {
			matches = append(matches, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching corpus: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]answer.RawSnippet, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.snippet)
	}
	return out, nil
}

// searchFile finds the line matching the most distinct terms in path.
func (c *Corpus) searchFile(path string, terms []string) (match, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxFileSize {
		return match{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil || isBinary(data) {
		return match{}, false
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), maxFileSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	best, bestScore := -1, 0
	for i, line := range lines {
		lower := strings.ToLower(line)
		score := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return match{}, false
	}

	start := max(0, best-contextLines)
	end := min(len(lines), best+contextLines+1)
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		rel = path
	}

	return match{
		snippet: answer.RawSnippet{
			RelativePath: filepath.ToSlash(rel),
			Text:         strings.Join(lines[start:end], "\n"),
			RepoName:     c.repo,
			Lang:         langByExt[strings.ToLower(filepath.Ext(path))],
			StartLine:    start + 1,
		},
		score: bestScore,
	}, true
}

// queryTerms lowercases the query and keeps distinct words of two or more
// characters.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,;:!?\"'()[]{}`")
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

func isBinary(data []byte) bool {
	head := data[:min(len(data), 512)]
	return bytes.IndexByte(head, 0) >= 0
}
