package attendance

import (
	"context"

	domain "regulars/internal/domain/attendance"
)

// Store persists attendance marks, at most one per (session, dancer).
type Store interface {
	// GetBySessionDancer returns the mark for a dancer in a session.
	// POST: Returns domain.ErrNotFound when the dancer has not been marked
	GetBySessionDancer(ctx context.Context, sessionID, dancerID string) (domain.Record, error)

	// Upsert creates or replaces the mark for (r.SessionID, r.DancerID).
	// PRE: r has been validated
	// POST: Returns the stored record; an existing record keeps its ID
	Upsert(ctx context.Context, r domain.Record) (domain.Record, error)

	// ListBySession returns every mark in a session ordered by timestamp.
	ListBySession(ctx context.Context, sessionID string) ([]domain.Record, error)

	// CountBySessions tallies marks per session. Sessions without marks are
	// absent from the result.
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]domain.Counts, error)
}
