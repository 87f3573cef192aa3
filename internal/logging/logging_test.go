// ABOUTME: Tests for logger construction and the color text handler
// ABOUTME: Color is disabled so assertions see plain text

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/bloop-answer/internal/config"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestNew_TextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.With("component", "sse").Info("stream opened", "session_id", "s1")
	logger.Debug("hidden")
	logger.Warn("slow")

	out := buf.String()
	assert.Contains(t, out, "INF stream opened component=sse session_id=s1\n")
	assert.Contains(t, out, "WRN slow")
	assert.NotContains(t, out, "hidden")
}

func TestNew_TextHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

	logger.WithGroup("req").Debug("done", "status", 200)

	assert.Contains(t, buf.String(), "DBG done req.status=200")
}

func TestNew_JSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Error("failed", "error", "boom")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "failed", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "boom", rec["error"])
}
