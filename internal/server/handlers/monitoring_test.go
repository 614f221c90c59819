package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revlogica/orchestrator/internal/audit"
	"github.com/revlogica/orchestrator/internal/server/responses"
)

// fakeDaemon implements DaemonInterface for handler tests.
type fakeDaemon struct {
	status  string
	healthy bool
}

func (d *fakeDaemon) GetStatus() string        { return d.status }
func (d *fakeDaemon) GetStartTime() time.Time  { return time.Now().Add(-time.Hour) }
func (d *fakeDaemon) ExistDBHealthy() bool     { return d.healthy }
func (d *fakeDaemon) LastProbeTime() time.Time { return time.Now() }
func (d *fakeDaemon) EventsEnabled() bool      { return false }
func (d *fakeDaemon) ArchiveEnabled() bool     { return true }
func (d *fakeDaemon) ConfigSummary() responses.ConfigSummary {
	return responses.ConfigSummary{Port: 8000, AdminPort: 8001, ExistDBUser: "admin"}
}

func TestHandleHealthCheck(t *testing.T) {
	h := NewMonitoringHandlers(&fakeDaemon{status: "running", healthy: true})

	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp responses.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "running", resp.DaemonStatus)
	assert.Greater(t, resp.Uptime, 0.0)
}

func TestHandleHealthCheckDegraded(t *testing.T) {
	h := NewMonitoringHandlers(&fakeDaemon{status: "running", healthy: false})

	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp responses.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unreachable", resp.ExistDB)
}

func TestHandleReadiness(t *testing.T) {
	cases := []struct {
		name   string
		daemon *fakeDaemon
		want   int
	}{
		{"ready", &fakeDaemon{status: "running", healthy: true}, http.StatusOK},
		{"database down", &fakeDaemon{status: "running", healthy: false}, http.StatusServiceUnavailable},
		{"still starting", &fakeDaemon{status: "starting", healthy: true}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewMonitoringHandlers(tc.daemon)
			rec := httptest.NewRecorder()
			h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandleConfigOmitsCredentials(t *testing.T) {
	h := NewMonitoringHandlers(&fakeDaemon{status: "running", healthy: true})

	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/daemon/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandleAuditRecent(t *testing.T) {
	store, err := audit.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Append(context.Background(), "created", "manuscripts", "ms.xml", ""))

	h := NewAdminHandlers(store, nil)
	rec := httptest.NewRecorder()
	h.HandleAuditRecent(rec, httptest.NewRequest(http.MethodGet, "/api/audit/recent?limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []audit.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ms.xml", entries[0].Document)
}

func TestHandleAuditRecentRejectsBadLimit(t *testing.T) {
	store, err := audit.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := NewAdminHandlers(store, nil)
	rec := httptest.NewRecorder()
	h.HandleAuditRecent(rec, httptest.NewRequest(http.MethodGet, "/api/audit/recent?limit=zero", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeArchiver struct {
	called bool
	err    error
}

func (f *fakeArchiver) Snapshot(context.Context) error {
	f.called = true
	return f.err
}

func TestHandleArchiveTrigger(t *testing.T) {
	archiver := &fakeArchiver{}
	h := NewAdminHandlers(nil, archiver)

	rec := httptest.NewRecorder()
	h.HandleArchiveTrigger(rec, httptest.NewRequest(http.MethodPost, "/api/archive/trigger", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, archiver.called)
}

func TestHandleArchiveTriggerDisabled(t *testing.T) {
	h := NewAdminHandlers(nil, nil)

	rec := httptest.NewRecorder()
	h.HandleArchiveTrigger(rec, httptest.NewRequest(http.MethodPost, "/api/archive/trigger", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
