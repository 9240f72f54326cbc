package attendance

import (
	"errors"
	"time"
)

// StatusPresent is the only mark that charges a pass. Any other caller-supplied
// status (absent, late, excused...) is stored verbatim and charges nothing.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

var (
	ErrNotFound        = errors.New("attendance record not found")
	ErrMissingSession  = errors.New("attendance must be associated with a session")
	ErrMissingDancer   = errors.New("attendance must be associated with a dancer")
	ErrMissingStatus   = errors.New("attendance status is required")
	ErrMissingMarkedBy = errors.New("attendance must record who marked it")
)

// Record is one dancer's mark for one session.
// INVARIANT: at most one Record exists per (SessionID, DancerID)
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	DancerID  string    `json:"dancer_id"`
	Status    string    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	Timestamp time.Time `json:"timestamp"`
	PassID    *string   `json:"pass_id"` // nil when no pass was charged
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (r *Record) Validate() error {
	if r.SessionID == "" {
		return ErrMissingSession
	}
	if r.DancerID == "" {
		return ErrMissingDancer
	}
	if r.Status == "" {
		return ErrMissingStatus
	}
	if r.MarkedBy == "" {
		return ErrMissingMarkedBy
	}
	return nil
}

// IsPresent reports whether the record charges a pass.
func (r Record) IsPresent() bool {
	return r.Status == StatusPresent
}

// ChargedPass returns the id of the pass charged for this record, if any.
func (r Record) ChargedPass() (string, bool) {
	if r.PassID == nil || *r.PassID == "" {
		return "", false
	}
	return *r.PassID, true
}

// Counts summarises the marks in one session.
type Counts struct {
	Total   int `json:"total"`
	Present int `json:"present_count"`
	Absent  int `json:"absent_count"`
}

// Transition classifies a status change for pass accounting.
type Transition int

const (
	// TransitionNone changes no pass balance.
	TransitionNone Transition = iota
	// TransitionCharge is any change into present from a non-present (or missing) mark.
	TransitionCharge
	// TransitionRefund is a change from present to any other status.
	TransitionRefund
)

// Classify returns the pass accounting transition for old -> new. An empty
// old status means no record existed.
func Classify(oldStatus, newStatus string) Transition {
	switch {
	case newStatus == StatusPresent && oldStatus != StatusPresent:
		return TransitionCharge
	case oldStatus == StatusPresent && newStatus != StatusPresent:
		return TransitionRefund
	default:
		return TransitionNone
	}
}
