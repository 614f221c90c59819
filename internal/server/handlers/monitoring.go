package handlers

import (
	"log/slog"
	"net/http"
	"time"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/server/responses"
	"github.com/revlogica/orchestrator/internal/version"
)

// DaemonInterface defines the daemon methods needed by monitoring and admin handlers.
type DaemonInterface interface {
	GetStatus() string
	GetStartTime() time.Time
	ExistDBHealthy() bool
	LastProbeTime() time.Time
	EventsEnabled() bool
	ArchiveEnabled() bool
	ConfigSummary() responses.ConfigSummary
}

// MonitoringHandlers contains health and readiness HTTP handlers.
type MonitoringHandlers struct {
	daemon       DaemonInterface
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(daemon DaemonInterface) *MonitoringHandlers {
	return &MonitoringHandlers{
		daemon:       daemon,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleLiveness answers the liveness probe. The process answering at all is
// the signal; no dependencies are checked.
func (h *MonitoringHandlers) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, responses.MessageResponse{Message: "ok"})
}

// HandleHealthCheck reports overall service health including the last
// document database probe.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	existdbState := "unreachable"
	status := "degraded"
	if h.daemon.ExistDBHealthy() {
		existdbState = "healthy"
		status = "healthy"
	}

	health := &responses.HealthResponse{
		Status:       status,
		Timestamp:    time.Now().UTC(),
		Version:      version.Version,
		Uptime:       time.Since(h.daemon.GetStartTime()).Seconds(),
		DaemonStatus: h.daemon.GetStatus(),
		ExistDB:      existdbState,
		LastProbe:    h.daemon.LastProbeTime(),
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write health response").Build())
	}
}

// HandleReadiness answers 200 only when the daemon is running and the
// document database was reachable on the last probe.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.daemon.GetStatus() != "running" || !h.daemon.ExistDBHealthy() {
		_ = writeJSON(w, http.StatusServiceUnavailable,
			responses.MessageResponse{Message: "not ready"})
		return
	}
	_ = writeJSON(w, http.StatusOK, responses.MessageResponse{Message: "ready"})
}

// HandleStatus reports the daemon runtime state.
func (h *MonitoringHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := &responses.StatusResponse{
		Status:         h.daemon.GetStatus(),
		Version:        version.Version,
		StartTime:      h.daemon.GetStartTime(),
		Uptime:         time.Since(h.daemon.GetStartTime()).Seconds(),
		ExistDBHealthy: h.daemon.ExistDBHealthy(),
		EventsEnabled:  h.daemon.EventsEnabled(),
		ArchiveEnabled: h.daemon.ArchiveEnabled(),
	}
	_ = writeJSONPretty(w, r, http.StatusOK, status)
}

// HandleConfig reports the sanitized running configuration.
func (h *MonitoringHandlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	_ = writeJSONPretty(w, r, http.StatusOK, h.daemon.ConfigSummary())
}
