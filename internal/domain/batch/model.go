package batch

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrNotFound  = errors.New("batch not found")
	ErrEmptyName = errors.New("batch name cannot be empty")
)

// Batch is a recurring class group that sessions and passes are scoped to.
type Batch struct {
	ID            string   `json:"id"`
	BatchName     string   `json:"batch_name"`
	StudioName    string   `json:"studio_name"`
	ScheduleDays  string   `json:"schedule_days"`
	TimeSlot      string   `json:"time_slot"`
	InstructorIDs []string `json:"assigned_instructor_ids"`
	Active        bool     `json:"active"`
}

// Validate checks if the Batch has valid data.
// PRE: Batch struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (b *Batch) Validate() error {
	if strings.TrimSpace(b.BatchName) == "" {
		return ErrEmptyName
	}
	return nil
}

// HasInstructor reports whether accountID is assigned to the batch.
func (b Batch) HasInstructor(accountID string) bool {
	return slices.Contains(b.InstructorIDs, accountID)
}
