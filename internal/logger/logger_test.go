package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		configured string
		verbosity  int
		want       zapcore.Level
	}{
		{"warn", 0, zapcore.WarnLevel},
		{"warn", 1, zapcore.InfoLevel},
		{"warn", 2, zapcore.DebugLevel},
		{"warn", 5, zapcore.DebugLevel},
		{"error", 1, zapcore.WarnLevel},
		{"debug", 0, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		got, err := Level(tt.configured, tt.verbosity)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -v x%d", tt.configured, tt.verbosity)
	}

	_, err := Level("chatty", 0)
	assert.Error(t, err)
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, false, "info", 0)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("parsed", zap.Int("triples", 3))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "parsed")
	assert.Contains(t, out, `"triples": 3`)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, true, "warn", 2)
	require.NoError(t, err)

	log.Debug("visible", zap.String("file", "a.ttl"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "a.ttl", entry["file"])
}
