package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "info", "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("planning finished", zap.String("goal", "dock_ready"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "planning finished", entry["msg"])
	assert.Equal(t, "dock_ready", entry["goal"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewWriterConsoleDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "DEBUG", "console")
	require.NoError(t, err)

	logger.Debug("expanded node", zap.Int("children", 2))
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "expanded node")
	assert.Contains(t, buf.String(), `"children": 2`)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestInvalidFormat(t *testing.T) {
	_, err := New("info", "xml")
	require.Error(t, err)
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat("JSON"))
}
