package projections

import (
	"context"

	"regulars/internal/adapters/storage/audit"
	"regulars/internal/adapters/storage/batch"
	"regulars/internal/adapters/storage/dancer"
	"regulars/internal/adapters/storage/pass"
	"regulars/internal/adapters/storage/session"
	domainAccount "regulars/internal/domain/account"
	domainAttendance "regulars/internal/domain/attendance"
	domainAudit "regulars/internal/domain/audit"
	domainBatch "regulars/internal/domain/batch"
	domainDancer "regulars/internal/domain/dancer"
	domainPass "regulars/internal/domain/pass"
	domainSession "regulars/internal/domain/session"
	domainSettings "regulars/internal/domain/settings"
)

// PassStore interface for pass queries.
type PassStore interface {
	List(ctx context.Context, filter pass.ListFilter) ([]domainPass.Pass, error)
}

// SettingsStore supplies the warning thresholds.
type SettingsStore interface {
	Get(ctx context.Context) (domainSettings.Settings, error)
}

// BatchStore interface for batch queries.
type BatchStore interface {
	List(ctx context.Context, filter batch.ListFilter) ([]domainBatch.Batch, error)
}

// DancerStore interface for dancer queries.
type DancerStore interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domainDancer.Dancer, error)
	List(ctx context.Context, filter dancer.ListFilter) ([]domainDancer.Dancer, error)
}

// SessionStore interface for session queries.
type SessionStore interface {
	List(ctx context.Context, filter session.ListFilter) ([]domainSession.Session, error)
}

// AttendanceStore interface for attendance queries.
type AttendanceStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]domainAttendance.Record, error)
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]domainAttendance.Counts, error)
}

// AuditStore interface for audit log queries.
type AuditStore interface {
	List(ctx context.Context, filter audit.Filter, limit, offset int) ([]domainAudit.Event, error)
	Count(ctx context.Context, filter audit.Filter) (int, error)
}

// AccountStore resolves actor names.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (domainAccount.Account, error)
}

// Viewer is the authenticated caller a projection is scoped to.
type Viewer struct {
	AccountID string
	Role      string
}

// IsAdmin reports whether the viewer sees every batch.
func (v Viewer) IsAdmin() bool {
	return v.Role == domainAccount.RoleAdmin
}

// visibleBatches returns the active batches the viewer may see: all of them
// for admins, assigned ones for instructors.
func visibleBatches(ctx context.Context, store BatchStore, v Viewer) ([]domainBatch.Batch, error) {
	filter := batch.ListFilter{ActiveOnly: true}
	if !v.IsAdmin() {
		filter.InstructorID = v.AccountID
	}
	return store.List(ctx, filter)
}
