package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/clipflow-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "error"},
		Queue: config.QueueConfig{
			Capacity:                10,
			OperationTimeoutSeconds: 300,
			CleanupIntervalSeconds:  60,
			RetentionMinutes:        30,
		},
		Executor: config.ExecutorConfig{
			BridgeURL:             "http://localhost:9222",
			PollIntervalSeconds:   2,
			RequestTimeoutSeconds: 30,
		},
	}
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApplication(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.executor)
	assert.NotNil(t, app.scheduler)
	assert.NotNil(t, app.emitter)
	assert.Nil(t, app.planner, "no planner without an API key")
}

func TestNewApplication_RejectsBadBridgeURL(t *testing.T) {
	cfg := testConfig()
	cfg.Executor.BridgeURL = ""

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := newApplication(context.Background(), cfg, logger)
	require.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	app := newTestApplication(t)
	router := app.setupRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_ReadyBeforeInit(t *testing.T) {
	app := newTestApplication(t)
	router := app.setupRouter()

	// No render session has been initialized, so readiness must fail.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["ready"])
}

func TestRouter_AuthGatesMutatingRoutesOnly(t *testing.T) {
	app := newTestApplication(t)
	app.config.Auth.TokenSecret = "0123456789abcdef0123456789abcdef"
	router := app.setupRouter()

	// Reads stay open.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/operations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Writes require a token.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/operations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
