// Package audit appends entries to the audit log without ever failing the
// action that triggered them.
package audit

import (
	"context"
	"log/slog"
	"time"

	"registru/internal/core"
)

// Action tags written to the log.
const (
	ActionCreate     = "Create"
	ActionAllocation = "Allocation"
	ActionExport     = "Export"
	ActionPayroll    = "Payroll"
	ActionLogin      = "Login"
)

// ListLimit is the number of entries returned by a listing.
const ListLimit = 200

type Store interface {
	InsertAudit(ctx context.Context, e core.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]core.AuditEntry, error)
}

type Recorder struct {
	store Store
	now   func() time.Time
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record writes one entry. Failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, actorID, action, description string) {
	entry := core.AuditEntry{
		ID:          core.NewID(core.PrefixAudit),
		UserID:      actorID,
		Action:      action,
		At:          r.now(),
		Description: description,
	}
	if err := r.store.InsertAudit(ctx, entry); err != nil {
		slog.WarnContext(ctx, "Audit entry dropped",
			"action", action,
			"actor", actorID,
			"error", err)
	}
}

// Recent returns the newest ListLimit entries.
func (r *Recorder) Recent(ctx context.Context) ([]core.AuditEntry, error) {
	return r.store.ListAudit(ctx, ListLimit)
}

type actorKey struct{}

// WithActor stores the acting user id on ctx.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user id, or "system" when none is set.
func ActorFrom(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return "system"
}
