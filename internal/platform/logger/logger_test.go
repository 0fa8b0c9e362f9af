package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/clipflow-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{name: "debug", level: "debug", expected: slog.LevelDebug},
		{name: "info", level: "info", expected: slog.LevelInfo},
		{name: "warn", level: "warn", expected: slog.LevelWarn},
		{name: "error", level: "error", expected: slog.LevelError},
		{name: "mixed case", level: "WaRn", expected: slog.LevelWarn},
		{name: "unknown falls back to info", level: "chatty", expected: slog.LevelInfo},
		{name: "empty falls back to info", level: "", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestSetup(t *testing.T) {
	logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	// The configured logger becomes the process default.
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
