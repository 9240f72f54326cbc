package audit

import (
	"context"
	"time"

	domain "regulars/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID and timestamp
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns one page of matching events.
	// PRE: limit > 0, offset >= 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error)

	// Count returns the number of events matching filter.
	Count(ctx context.Context, filter Filter) (int, error)
}

// Filter defines query parameters for listing audit events. Nil fields do not filter.
type Filter struct {
	ActorID    *string
	Action     *domain.Action
	EntityType *string
	FromDate   *time.Time
	ToDate     *time.Time
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
