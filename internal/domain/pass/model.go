package pass

import (
	"encoding/json"
	"errors"
	"time"

	"regulars/internal/domain/settings"
)

// Type identifies which pass variant a record holds.
type Type string

const (
	TypeMonthly   Type = "monthly"
	TypeClassPack Type = "class_pack"
	TypeDropIn    Type = "drop_in"
)

// Status is the derived (or, for drop-ins, stored) state of a pass.
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	StatusUnused       Status = "unused"
	StatusUsed         Status = "used"
	StatusUnknown      Status = "unknown"
)

// Domain errors.
var (
	ErrNotFound      = errors.New("pass not found")
	ErrConflict      = errors.New("pass was modified concurrently, retry the request")
	ErrExhausted     = errors.New("class pack has no remaining classes")
	ErrFullyCredited = errors.New("class pack is already at its total")
	ErrAlreadyUsed   = errors.New("drop-in pass is already used")
	ErrNotConsumed   = errors.New("drop-in pass has not been used")
	ErrNotRenewable  = errors.New("drop-in passes cannot be renewed")
	ErrInvalidType   = errors.New("pass type must be one of: monthly, class_pack, drop_in")
	ErrMissingOwner  = errors.New("pass must belong to a dancer and a batch")
)

// Terms is the variant-specific part of a pass. Each variant decides its own
// status and how a single use is applied or undone.
type Terms interface {
	Type() Type
	// Status resolves the variant's status. It must not mutate the receiver.
	Status(s settings.Settings, now time.Time) Status
	// Consume returns the terms after one use. Variants that are not
	// decremented by use return themselves unchanged.
	Consume() (Terms, error)
	// Reverse returns the terms with one use credited back.
	Reverse() (Terms, error)
	Validate() error
}

// Pass is one purchased or granted attendance entitlement, owned by a dancer
// and scoped to a batch.
type Pass struct {
	ID        string
	DancerID  string
	BatchID   string
	CreatedAt time.Time
	CreatedBy string
	Terms     Terms // nil when the stored type is not recognised
}

// Type returns the variant type, or "" when the terms are unknown.
func (p Pass) Type() Type {
	if p.Terms == nil {
		return ""
	}
	return p.Terms.Type()
}

// Validate checks ownership and the variant's own invariants.
// PRE: Pass struct is populated
// POST: Returns nil if valid, error otherwise
func (p Pass) Validate() error {
	if p.DancerID == "" || p.BatchID == "" {
		return ErrMissingOwner
	}
	if p.Terms == nil {
		return ErrInvalidType
	}
	return p.Terms.Validate()
}

// WithTerms returns a copy of p carrying the given terms.
func (p Pass) WithTerms(t Terms) Pass {
	p.Terms = t
	return p
}

// Record is the flat, storage- and wire-friendly form of a Pass.
type Record struct {
	ID               string    `json:"id"`
	DancerID         string    `json:"dancer_id"`
	BatchID          string    `json:"batch_id"`
	Type             Type      `json:"type"`
	StartDate        string    `json:"start_date,omitempty"`
	EndDate          string    `json:"end_date,omitempty"`
	TotalClasses     *int      `json:"total_classes,omitempty"`
	RemainingClasses *int      `json:"remaining_classes,omitempty"`
	Status           Status    `json:"status,omitempty"`
	ValidDate        string    `json:"valid_date,omitempty"`
	SessionID        string    `json:"session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	CreatedBy        string    `json:"created_by"`
}

// Record flattens the pass.
func (p Pass) Record() Record {
	r := Record{
		ID:        p.ID,
		DancerID:  p.DancerID,
		BatchID:   p.BatchID,
		CreatedAt: p.CreatedAt,
		CreatedBy: p.CreatedBy,
	}
	FlattenTerms(p.Terms, &r)
	return r
}

// FlattenTerms writes the variant fields of t into r.
func FlattenTerms(t Terms, r *Record) {
	switch v := t.(type) {
	case Monthly:
		r.Type = TypeMonthly
		r.StartDate = v.StartDate
		r.EndDate = v.EndDate
	case ClassPack:
		r.Type = TypeClassPack
		total, remaining := v.TotalClasses, v.RemainingClasses
		r.TotalClasses = &total
		r.RemainingClasses = &remaining
		r.StartDate = v.StartDate
		r.EndDate = v.EndDate
	case DropIn:
		r.Type = TypeDropIn
		r.Status = v.State
		r.ValidDate = v.ValidDate
		r.SessionID = v.SessionID
	}
}

// FromRecord rebuilds a Pass. An unrecognised type yields nil Terms, which
// resolves to StatusUnknown. A drop-in without a stored status is unused.
func FromRecord(r Record) Pass {
	p := Pass{
		ID:        r.ID,
		DancerID:  r.DancerID,
		BatchID:   r.BatchID,
		CreatedAt: r.CreatedAt,
		CreatedBy: r.CreatedBy,
	}
	switch r.Type {
	case TypeMonthly:
		p.Terms = Monthly{StartDate: r.StartDate, EndDate: r.EndDate}
	case TypeClassPack:
		p.Terms = ClassPack{
			TotalClasses:     derefInt(r.TotalClasses),
			RemainingClasses: derefInt(r.RemainingClasses),
			StartDate:        r.StartDate,
			EndDate:          r.EndDate,
		}
	case TypeDropIn:
		state := r.Status
		if state == "" {
			state = StatusUnused
		}
		p.Terms = DropIn{State: state, ValidDate: r.ValidDate, SessionID: r.SessionID}
	}
	return p
}

// MarshalJSON encodes the pass in its flat form.
func (p Pass) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Record())
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
