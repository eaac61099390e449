package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkReadiness(t *testing.T, h *HealthServer) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp.Status
}

func TestHealthServerStartsNotReady(t *testing.T) {
	h := NewHealthServer(":0", slog.Default())

	code, status := checkReadiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", status)
}

func TestHealthServerLivenessAlwaysOK(t *testing.T) {
	h := NewHealthServer(":0", slog.Default())

	rec := httptest.NewRecorder()
	h.handleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHealthServerReadinessFollowsSnapshotState(t *testing.T) {
	h := NewHealthServer(":0", slog.Default())

	// readiness flips with the served snapshot, in both directions
	h.SetReady(true)
	code, status := checkReadiness(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status)

	h.SetReady(false)
	code, status = checkReadiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", status)
}

func TestHealthServerGracefulShutdown(t *testing.T) {
	h := NewHealthServer("127.0.0.1:0", slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("health server did not shut down")
	}
}
