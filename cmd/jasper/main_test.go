package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasperbot/jasper/events"
)

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger.Warn("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "jasper", line["service"])
	assert.Equal(t, "v", line["k"])
}

func TestNewLoggerDefaultsToInfoText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "", "")

	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "jasper dev (none)\n", buf.String())
}

func TestReadyHandlerToleratesMissingUser(t *testing.T) {
	var buf bytes.Buffer
	h := readyHandler(newLogger(&buf, "info", "text"))

	err := h.Invoke(context.Background(), &events.Event{
		Name: events.Ready,
		Data: json.RawMessage(`{"session_id":"asdf","guilds":[{"id":"1"}]}`),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "guilds=1")

	buf.Reset()
	err = h.Invoke(context.Background(), &events.Event{
		Name: events.Ready,
		Data: json.RawMessage(`{"user":{"username":"jasper"},"guilds":[]}`),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "user=jasper")
}
