package testutil

import (
	"log/slog"
	"testing"

	"docpilot/internal/log"
)

// NewTestLogger returns a logger that routes through t.Log, so output only
// appears for failing tests (or with -v).
func NewTestLogger(t *testing.T) log.Logger {
	t.Helper()
	return log.NewWithWriter(testWriter{t}, log.Config{Level: slog.LevelDebug})
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
