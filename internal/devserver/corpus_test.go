// ABOUTME: Tests for corpus search over a temporary directory tree
// ABOUTME: Covers scoring, context lines, limits and skipped directories

package devserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestCorpus(t *testing.T) (*Corpus, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "demo")
	writeFile(t, root, "net/retry.go", "package net\n\n// retry the request\nfunc Retry() {\n\tfor i := 0; i < 3; i++ {\n\t}\n}\n")
	writeFile(t, root, "net/backoff.go", "package net\n\n// backoff between retry attempts\nfunc Backoff() {}\n")
	writeFile(t, root, "README.md", "# demo\n\nNothing about that here.\n")
	writeFile(t, root, ".git/config", "retry backoff\n")
	writeFile(t, root, "vendor/x/retry.go", "retry backoff\n")
	writeFile(t, root, "blob.bin", "retry\x00backoff")

	c, err := NewCorpus(root)
	require.NoError(t, err)
	return c, root
}

func TestNewCorpus(t *testing.T) {
	c, _ := newTestCorpus(t)
	assert.Equal(t, "demo", c.Repo())

	_, err := NewCorpus(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = NewCorpus(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestCorpus_SearchRanksByDistinctTerms(t *testing.T) {
	c, _ := newTestCorpus(t)

	snippets, err := c.Search(context.Background(), "Retry backoff", 10)
	require.NoError(t, err)
	require.Len(t, snippets, 2)

	// backoff.go has a line with both terms; retry.go only matches one.
	assert.Equal(t, "net/backoff.go", snippets[0].RelativePath)
	assert.Equal(t, "net/retry.go", snippets[1].RelativePath)
	assert.Equal(t, "demo", snippets[0].RepoName)
	assert.Equal(t, "go", snippets[0].Lang)
}

func TestCorpus_SearchKeepsContext(t *testing.T) {
	c, _ := newTestCorpus(t)

	snippets, err := c.Search(context.Background(), "backoff attempts", 1)
	require.NoError(t, err)
	require.Len(t, snippets, 1)

	s := snippets[0]
	assert.Equal(t, 1, s.StartLine)
	assert.Equal(t, "package net\n\n// backoff between retry attempts\nfunc Backoff() {}", s.Text)
}

func TestCorpus_SearchLimit(t *testing.T) {
	c, _ := newTestCorpus(t)

	snippets, err := c.Search(context.Background(), "retry", 1)
	require.NoError(t, err)
	assert.Len(t, snippets, 1)

	snippets, err = c.Search(context.Background(), "retry", 0)
	require.NoError(t, err)
	assert.NotNil(t, snippets)
	assert.Empty(t, snippets)
}

func TestCorpus_SearchNoMatches(t *testing.T) {
	c, _ := newTestCorpus(t)

	snippets, err := c.Search(context.Background(), "kubernetes", 5)
	require.NoError(t, err)
	assert.NotNil(t, snippets)
	assert.Empty(t, snippets)

	snippets, err = c.Search(context.Background(), "? !", 5)
	require.NoError(t, err)
	assert.Empty(t, snippets, "punctuation yields no terms")
}

func TestCorpus_SearchCancelled(t *testing.T) {
	c, _ := newTestCorpus(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "retry", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"where", "is", "retry", "defined"}, queryTerms("Where is `retry` defined? retry"))
	assert.Empty(t, queryTerms("a b c"))
}
