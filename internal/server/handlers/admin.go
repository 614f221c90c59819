package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/revlogica/orchestrator/internal/audit"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/server/responses"
)

// ArchiveTrigger starts an archive snapshot on demand.
// *archive.Archiver satisfies it.
type ArchiveTrigger interface {
	Snapshot(ctx context.Context) error
}

// AdminHandlers contains the audit and archive HTTP handlers for the admin server.
type AdminHandlers struct {
	auditStore   audit.Store
	archiver     ArchiveTrigger
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewAdminHandlers creates a new admin handlers instance. Either dependency
// may be nil when the corresponding subsystem is disabled.
func NewAdminHandlers(auditStore audit.Store, archiver ArchiveTrigger) *AdminHandlers {
	return &AdminHandlers{
		auditStore:   auditStore,
		archiver:     archiver,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleAuditRecent returns the most recent audit entries, newest first.
// The limit query parameter caps the result (default 50).
func (h *AdminHandlers) HandleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if h.auditStore == nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.StorageError("audit store is not configured").WithRetry(ferrors.RetryNever).Build())
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.errorAdapter.WriteErrorResponse(w, r,
				ferrors.ValidationError("limit must be a positive integer").Build())
			return
		}
		limit = parsed
	}

	entries, err := h.auditStore.GetRecent(r.Context(), limit)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.StorageError("failed to query audit trail").WithCause(err).Build())
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	_ = writeJSONPretty(w, r, http.StatusOK, entries)
}

// HandleArchiveTrigger runs an archive snapshot immediately.
func (h *AdminHandlers) HandleArchiveTrigger(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ArchiveError("archiving is not enabled").WithRetry(ferrors.RetryNever).Build())
		return
	}

	if err := h.archiver.Snapshot(r.Context()); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK,
		responses.MessageResponse{Message: "Archive snapshot completed"})
}
