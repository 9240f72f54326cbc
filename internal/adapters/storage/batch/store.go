package batch

import (
	"context"

	domain "regulars/internal/domain/batch"
)

// Store persists Batch state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Batch, error)
	Save(ctx context.Context, value domain.Batch) error
	List(ctx context.Context, filter ListFilter) ([]domain.Batch, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	ActiveOnly   bool
	InstructorID string // when set, only batches this instructor is assigned to
}
