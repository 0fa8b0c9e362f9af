package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)

	assert.Equal(t, 10, cfg.Queue.Capacity)
	assert.Equal(t, 300, cfg.Queue.OperationTimeoutSeconds)
	assert.Equal(t, 60, cfg.Queue.CleanupIntervalSeconds)
	assert.Equal(t, 30, cfg.Queue.RetentionMinutes)

	assert.Equal(t, "http://localhost:9222", cfg.Executor.BridgeURL)
	assert.Equal(t, 2, cfg.Executor.PollIntervalSeconds)

	assert.Empty(t, cfg.LLM.GeminiAPIKey)
	assert.Empty(t, cfg.Auth.TokenSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLIPFLOW_SERVER_PORT", "9090")
	t.Setenv("CLIPFLOW_QUEUE_CAPACITY", "25")
	t.Setenv("CLIPFLOW_EXECUTOR_BRIDGE_URL", "http://bridge.internal:9222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Queue.Capacity)
	assert.Equal(t, "http://bridge.internal:9222", cfg.Executor.BridgeURL)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("CLIPFLOW_SERVER_PORT", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation")
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("CLIPFLOW_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("short token secret", func(t *testing.T) {
		t.Setenv("CLIPFLOW_AUTH_TOKEN_SECRET", "too-short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid bridge url", func(t *testing.T) {
		t.Setenv("CLIPFLOW_EXECUTOR_BRIDGE_URL", "not a url")

		_, err := Load()
		assert.Error(t, err)
	})
}
