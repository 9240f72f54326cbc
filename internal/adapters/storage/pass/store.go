package pass

import (
	"context"

	domain "regulars/internal/domain/pass"
)

// Store persists passes. Every balance write is conditional on the state the
// writer last read.
type Store interface {
	// GetByID retrieves a pass by its ID.
	// PRE: id is non-empty
	// POST: Returns the pass or domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Pass, error)

	// ListByDancerBatch returns every pass a dancer holds for a batch.
	// POST: Returns passes ordered newest first
	ListByDancerBatch(ctx context.Context, dancerID, batchID string) ([]domain.Pass, error)

	// List returns passes matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Pass, error)

	// Insert persists a new pass.
	// PRE: p has been validated
	Insert(ctx context.Context, p domain.Pass) error

	// UpdateTerms replaces the terms of pass id with next, provided the stored
	// terms still equal prev.
	// POST: Returns domain.ErrConflict when the stored terms differ from prev,
	// domain.ErrNotFound when the pass does not exist
	UpdateTerms(ctx context.Context, id string, prev, next domain.Terms) error
}

// ListFilter narrows List. Empty fields do not filter.
type ListFilter struct {
	DancerID string
	BatchID  string
	BatchIDs []string
	Limit    int
}
