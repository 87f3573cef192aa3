// ABOUTME: Tests for the bloop CLI against an in-process dev answer server
// ABOUTME: Runs the cobra root with temp config, database and captured output

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/bloop-answer/internal/auth"
	"github.com/2389/bloop-answer/internal/devserver"
)

const testSecret = "bloop-cli-test-secret-0123456789abcdef"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type env struct {
	configPath string
	tokenFile  string
	serverURL  string
}

// newEnv starts a dev server over a small corpus named "demo" and writes a
// config pointing at it. With auth the server requires a JWT and the config
// reads one from tokenFile.
func newEnv(t *testing.T, withAuth bool) *env {
	t.Helper()
	t.Setenv(auth.EnvToken, "")

	dir := t.TempDir()
	corpus := filepath.Join(dir, "demo")
	require.NoError(t, os.MkdirAll(corpus, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "retry.go"),
		[]byte("package net\n\n// Retry calls fn until it succeeds.\nfunc Retry(fn func() error) {}\n"), 0644))

	var verifier auth.TokenVerifier
	if withAuth {
		v, err := auth.NewJWTVerifier([]byte(testSecret))
		require.NoError(t, err)
		verifier = v
	}
	srv, err := devserver.New(devserver.Config{
		CorpusRoot:      corpus,
		TokensPerSecond: 10000,
		MaxSnippets:     3,
		Verifier:        verifier,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	e := &env{
		configPath: filepath.Join(dir, "config.yaml"),
		tokenFile:  filepath.Join(dir, "token"),
		serverURL:  ts.URL,
	}
	tokenFile := ""
	if withAuth {
		tokenFile = e.tokenFile
	}
	cfg := fmt.Sprintf(`
server:
  base_url: %q
  user_id: "alice"
auth:
  token_file: %q
  jwt_secret: %q
stream:
  stall_timeout: "5s"
database:
  path: %q
logging:
  level: "error"
`, ts.URL, tokenFile, testSecret, filepath.Join(dir, "bloop.db"))
	require.NoError(t, os.WriteFile(e.configPath, []byte(cfg), 0644))
	return e
}

// run executes the CLI with args and returns stdout and stderr.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	root := newRootCmd()
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAsk_StreamsAnswerAndSaves(t *testing.T) {
	e := newEnv(t, false)

	out, _, err := e.run(t, "", "ask", "where", "is", "Retry")
	require.NoError(t, err)
	assert.Contains(t, out, "bloop: I found 1 place in demo")
	assert.Contains(t, out, "sources:\n  [1] demo/retry.go:1\n")

	out, _, err = e.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "where is Retry")

	out, _, err = e.run(t, "", "history", "show", "1", "--snippets")
	require.NoError(t, err)
	assert.Contains(t, out, "you: where is Retry")
	assert.Contains(t, out, "func Retry(fn func() error) {}")
}

func TestAsk_NoSaveLeavesHistoryEmpty(t *testing.T) {
	e := newEnv(t, false)

	_, _, err := e.run(t, "", "ask", "--no-save", "Retry")
	require.NoError(t, err)

	out, _, err := e.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved conversations")
}

func TestAsk_InBandErrorFails(t *testing.T) {
	e := newEnv(t, false)

	out, _, err := e.run(t, "", "ask", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer failed: "+devserver.ErrEmptyQuery)
	assert.Contains(t, out, "error: "+devserver.ErrEmptyQuery)
}

func TestAsk_UnauthorizedFails(t *testing.T) {
	e := newEnv(t, true)
	require.NoError(t, os.WriteFile(e.tokenFile, []byte("not-a-jwt\n"), 0600))

	_, _, err := e.run(t, "", "ask", "Retry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sorry, something went wrong")
}

func TestToken_SavedTokenAuthenticates(t *testing.T) {
	e := newEnv(t, true)

	out, _, err := e.run(t, "", "token", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Token for alice written to")

	data, err := os.ReadFile(e.tokenFile)
	require.NoError(t, err)
	verifier, err := auth.NewJWTVerifier([]byte(testSecret))
	require.NoError(t, err)
	subject, err := verifier.Verify(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	out, _, err = e.run(t, "", "ask", "Retry")
	require.NoError(t, err)
	assert.Contains(t, out, "I found 1 place")
}

func TestToken_PrintsToStdout(t *testing.T) {
	e := newEnv(t, false)

	out, _, err := e.run(t, "", "token", "--sub", "bob", "--ttl", "1h")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3, "a JWT has three parts")
}

func TestChat_Session(t *testing.T) {
	e := newEnv(t, false)

	stdin := strings.Join([]string{
		"where is Retry",
		"/turns",
		"/view 0",
		"/view 9",
		"/view 1",
		"/snippets",
		"/history",
		"/bogus",
		"/quit",
	}, "\n") + "\n"

	out, _, err := e.run(t, stdin, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "bloop connected to "+e.serverURL+" as alice")
	assert.Contains(t, out, "bloop: I found 1 place")
	assert.Contains(t, out, " 0 you: where is Retry")
	assert.Contains(t, out, "* 1 bloop: I found")
	assert.Contains(t, out, "no snippets")
	assert.Contains(t, out, "[error] turn index out of range")
	assert.Contains(t, out, "demo/retry.go:1 (go)")
	assert.Contains(t, out, "[error] unknown command /bogus")
}

func TestChat_ResumeContinuesConversation(t *testing.T) {
	e := newEnv(t, false)

	_, _, err := e.run(t, "", "ask", "where is Retry")
	require.NoError(t, err)

	out, _, err := e.run(t, "Retry again\n/turns\n/quit\n", "chat", "--resume", "1")
	require.NoError(t, err)
	assert.Contains(t, out, " 0 you: where is Retry")
	assert.Contains(t, out, " 2 you: Retry again")

	out, _, err = e.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "where is Retry"), "resumed thread replaces its saved row")
}

func TestHistory_DeleteAndNotFound(t *testing.T) {
	e := newEnv(t, false)

	_, _, err := e.run(t, "", "ask", "Retry")
	require.NoError(t, err)

	out, _, err := e.run(t, "", "history", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted conversation 1")

	_, _, err = e.run(t, "", "history", "show", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, _, err = e.run(t, "", "history", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid conversation id")
}

func TestExport(t *testing.T) {
	e := newEnv(t, false)

	_, _, err := e.run(t, "", "ask", "where is Retry")
	require.NoError(t, err)

	t.Run("json to stdout", func(t *testing.T) {
		out, _, err := e.run(t, "", "export", "1", "--format", "json")
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "where is Retry", doc["title"])
	})

	t.Run("html into directory", func(t *testing.T) {
		dir := t.TempDir()
		_, stderr, err := e.run(t, "", "export", "1", "--format", "html", "--out", dir)
		require.NoError(t, err)

		path := filepath.Join(dir, "conversation-1.html")
		assert.Contains(t, stderr, path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "where is Retry")
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, err := e.run(t, "", "export", "1", "--format", "pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})
}

func TestHealth(t *testing.T) {
	e := newEnv(t, false)

	out, _, err := e.run(t, "", "health")
	require.NoError(t, err)
	assert.Equal(t, "healthy\n", out)

	_, _, err = e.run(t, "", "--server", "http://127.0.0.1:1", "health")
	assert.Error(t, err)
}

func TestRoot_InvalidServerOverride(t *testing.T) {
	e := newEnv(t, false)

	_, _, err := e.run(t, "", "--server", "ftp://nowhere", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}
