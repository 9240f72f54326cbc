package session

import (
	"context"

	domain "regulars/internal/domain/session"
)

// Store persists Session state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	GetByBatchDate(ctx context.Context, batchID, date string) (domain.Session, error)
	// Insert creates a session.
	// POST: Returns domain.ErrAlreadyExists when the batch already has a session on that date
	Insert(ctx context.Context, value domain.Session) error
	// ListByBatch returns a batch's sessions, newest date first.
	ListByBatch(ctx context.Context, batchID string, limit int) ([]domain.Session, error)
	// List returns sessions matching filter, newest date first.
	List(ctx context.Context, filter ListFilter) ([]domain.Session, error)
}

// ListFilter carries filtering parameters for List operations.
// Dates are inclusive YYYY-MM-DD bounds.
type ListFilter struct {
	BatchIDs []string
	FromDate string
	ToDate   string
	Limit    int
}
