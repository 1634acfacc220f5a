package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trashshred/internal/config"
)

func TestLogLevelsRouteToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Log("DEBUG", "debug msg", "k", 1)
	l.Log("INFO", "info msg")
	l.Log("WARN", "warn msg")
	l.Log("ERROR", "error msg", "path", "/tmp/x")
	l.Log("FATAL", "fatal msg")

	entries := logs.AllUntimed()
	require.Len(t, entries, 5)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["k"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "/tmp/x", entries[3].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[4].Level)
}

func TestFileOutputRespectsLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "WARN"
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "trashshred.log")

	l, err := NewEnterpriseLogger(cfg, false)
	require.NoError(t, err)

	l.Log("INFO", "skipped")
	l.Log("WARN", "kept", "file", "a.txt")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "a.txt", entry["file"])
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("TRACE")
	assert.Error(t, err)
}
