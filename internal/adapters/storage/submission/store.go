// Package submission remembers the response of every keyed bulk attendance
// submission so a retried request replays instead of re-applying.
package submission

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no submission was stored under a key.
var ErrNotFound = errors.New("submission not found")

// ErrDuplicate is returned by Save when the key is already taken.
var ErrDuplicate = errors.New("submission key already used")

// Submission is a stored response keyed by the caller's idempotency key.
type Submission struct {
	Key       string
	SessionID string
	Response  []byte
	CreatedAt time.Time
}

// Store persists submissions.
type Store interface {
	// Get returns the submission stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Submission, error)
	// Save stores s. The first writer for a key wins.
	// POST: Returns ErrDuplicate when the key already exists
	Save(ctx context.Context, s Submission) error
}
