package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/hgraph/pkg/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logging.ParseLevel(tt.in), tt.in)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Options{Format: "json", Level: "warn", Writer: &buf, Component: "seed"})

	log.Info("dropped")
	log.Warn("kept", "batch", "MB3047")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "seed", entry["component"])
	assert.Equal(t, "MB3047", entry["batch"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Options{Format: "console", Writer: &buf})

	log.Info("hello", "oven", "C")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "oven=C")
}
