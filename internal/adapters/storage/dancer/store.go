package dancer

import (
	"context"

	domain "regulars/internal/domain/dancer"
)

// Store persists Dancer state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Dancer, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Dancer, error)
	Save(ctx context.Context, value domain.Dancer) error
	List(ctx context.Context, filter ListFilter) ([]domain.Dancer, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}
