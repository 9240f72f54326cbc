package settings

import (
	"context"

	domain "regulars/internal/domain/settings"
)

// Store persists the single global settings record.
type Store interface {
	// Get returns the global settings, creating them with defaults on first read.
	Get(ctx context.Context) (domain.Settings, error)

	// Save replaces the global settings.
	// PRE: s has been validated
	Save(ctx context.Context, s domain.Settings) error
}
