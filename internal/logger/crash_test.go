package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrashHandler_SetContext(t *testing.T) {
	globalContext = &CrashContext{}

	SetBasePath("/tmp/test-tod")
	SetVersion("1.0.0-test")
	SetCommand("tod serve")
	SetLastRequest("  PUT /api/tod/state  ")

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	assert.Equal(t, "/tmp/test-tod", globalContext.basePath)
	assert.Equal(t, "1.0.0-test", globalContext.version)
	assert.Equal(t, "tod serve", globalContext.command)
	assert.Equal(t, "PUT /api/tod/state", globalContext.lastRequest)
}

func TestCrashHandler_SetLastRequest_Truncation(t *testing.T) {
	globalContext = &CrashContext{}

	SetLastRequest(strings.Repeat("a", 3000))

	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()
	assert.LessOrEqual(t, len(globalContext.lastRequest), 520)
	assert.Contains(t, globalContext.lastRequest, "[truncated]")
}

func TestRecord_WritesCrashLog(t *testing.T) {
	dir := t.TempDir()
	globalContext = &CrashContext{basePath: dir, version: "1.2.3", command: "tod serve", lastRequest: "GET /api/tod/state"}

	path, err := Record("boom")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CrashLogDir), filepath.Dir(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "TOD CRASH LOG")
	assert.Contains(t, text, "boom")
	assert.Contains(t, text, "1.2.3")
	assert.Contains(t, text, "GET /api/tod/state")
}

func TestCleanOldCrashLogs_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	globalContext = &CrashContext{basePath: dir}
	logDir := filepath.Join(dir, CrashLogDir)
	require.NoError(t, os.MkdirAll(logDir, 0755))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxCrashLogs+3; i++ {
		name := filepath.Base(getCrashLogPath(base.Add(time.Duration(i) * time.Minute)))
		require.NoError(t, os.WriteFile(filepath.Join(logDir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "notes.txt"), []byte("keep"), 0644))

	require.NoError(t, cleanOldCrashLogs(logDir))

	logs, err := ListCrashLogs()
	require.NoError(t, err)
	assert.Len(t, logs, MaxCrashLogs-1)
	assert.FileExists(t, filepath.Join(logDir, "notes.txt"))
	assert.Contains(t, logs[len(logs)-1], "crash_20260101_001200.000.log")
}

func TestNew_JSONHandlerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, Options{Level: "warn", Format: "json"})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, Options{Level: "error", Verbose: true})
	require.NoError(t, err)
	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "chatty"})
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)
}
