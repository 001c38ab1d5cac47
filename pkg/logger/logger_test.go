package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/catalyst-alpha/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "staging", LogLevel: "info", LogFormat: "json"}, &buf)

	log.Info("store built")
	entry := decodeLine(t, &buf)

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "store built", entry["message"])
	assert.Equal(t, "staging", entry["env"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "production", LogLevel: "warn"}, &buf)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warnf("skipped %d events", 3)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "skipped 3 events", entry["message"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &buf)

	log.Info("console message")
	assert.True(t, strings.Contains(buf.String(), "console message"))
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "debug"}, &buf)

	log.WithFields(map[string]interface{}{
		"ticker": "ITCI",
		"car":    0.125,
	}).WithField("reason", "insufficient_history").Debug("event skipped")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "ITCI", entry["ticker"])
	assert.Equal(t, 0.125, entry["car"])
	assert.Equal(t, "insufficient_history", entry["reason"])
	assert.Equal(t, "debug", entry["level"])
}

func TestWithErrorAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info"}, &buf)

	log.WithComponent("eventstudy").WithError(errors.New("slice out of range")).Error("run failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "eventstudy", entry["component"])
	assert.Equal(t, "slice out of range", entry["error"])
	assert.Equal(t, "run failed", entry["message"])
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Info("discarded")
	})
}
