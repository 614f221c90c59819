package audit

import (
	"context"
	"log/slog"

	"github.com/revlogica/orchestrator/internal/logfields"
)

// Recorder adapts a Store to the manuscript event sink. Audit persistence is
// best-effort: a failed append is logged, never surfaced to the caller.
type Recorder struct {
	store Store
}

// NewRecorder creates a sink that appends every mutation to the audit trail.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// DocumentChanged records a document mutation.
func (r *Recorder) DocumentChanged(ctx context.Context, action, collection, name string) {
	if err := r.store.Append(ctx, action, collection, name, ""); err != nil {
		slog.Warn("Failed to append audit entry",
			logfields.Action(action),
			logfields.Collection(collection),
			logfields.Document(name),
			logfields.Error(err))
	}
}
