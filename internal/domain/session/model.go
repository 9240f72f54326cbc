package session

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format sessions are keyed by.
const DateLayout = "2006-01-02"

var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyExists = errors.New("session already exists for this date")
	ErrBatchMismatch = errors.New("session does not belong to the batch")
	ErrMissingBatch  = errors.New("session must belong to a batch")
	ErrInvalidDate   = errors.New("session date must be YYYY-MM-DD")
)

// Session is one scheduled occurrence of a batch on a given date.
type Session struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	Date      string    `json:"date"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the Session has valid data.
// PRE: Session struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (s *Session) Validate() error {
	if s.BatchID == "" {
		return ErrMissingBatch
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
