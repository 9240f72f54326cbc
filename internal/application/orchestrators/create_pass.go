package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/dancer"
	"regulars/internal/domain/pass"
	"regulars/internal/domain/session"
)

// Defaults applied when a pass is issued or renewed without explicit terms.
const (
	DefaultMonthlyLength    = 30 * 24 * time.Hour
	DefaultClassPackClasses = 8
)

// PassWriter inserts new passes.
type PassWriter interface {
	Insert(ctx context.Context, p pass.Pass) error
}

// DancerGetter finds one dancer by id.
type DancerGetter interface {
	GetByID(ctx context.Context, id string) (dancer.Dancer, error)
}

// CreatePassInput carries input for issuing a pass.
type CreatePassInput struct {
	DancerID     string    `json:"dancer_id" validate:"required"`
	BatchID      string    `json:"batch_id" validate:"required"`
	Type         pass.Type `json:"type" validate:"required,oneof=monthly class_pack drop_in"`
	StartDate    string    `json:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty"`
	TotalClasses *int      `json:"total_classes,omitempty" validate:"omitempty,min=1,max=1000"`
	SessionID    string    `json:"session_id,omitempty"`
	ActorID      string    `json:"-" validate:"required"`
}

// CreatePassDeps holds dependencies for CreatePass.
type CreatePassDeps struct {
	Passes  PassWriter
	Dancers DancerGetter
	Batches BatchLookup
	Audit   AuditSink
	Now     func() time.Time
}

// ExecuteCreatePass issues a new pass to a dancer for a batch.
// PRE: dancer and batch exist
// POST: Pass persisted with defaulted terms; audit event emitted
func ExecuteCreatePass(ctx context.Context, input CreatePassInput, deps CreatePassDeps) (pass.Pass, error) {
	if err := validateStruct(input); err != nil {
		return pass.Pass{}, err
	}
	if _, err := deps.Dancers.GetByID(ctx, input.DancerID); err != nil {
		return pass.Pass{}, err
	}
	if _, err := deps.Batches.GetByID(ctx, input.BatchID); err != nil {
		return pass.Pass{}, err
	}

	now := clock(deps.Now).UTC()
	terms, err := initialTerms(input, now)
	if err != nil {
		return pass.Pass{}, err
	}
	p := pass.Pass{
		ID:        uuid.New().String(),
		DancerID:  input.DancerID,
		BatchID:   input.BatchID,
		CreatedAt: now,
		CreatedBy: input.ActorID,
		Terms:     terms,
	}
	if err := p.Validate(); err != nil {
		return pass.Pass{}, invalid("%s", err.Error())
	}
	if err := deps.Passes.Insert(ctx, p); err != nil {
		return pass.Pass{}, err
	}

	deps.Audit.Record(audit.NewEvent(now, input.ActorID, audit.ActionCreatePass, audit.EntityPass, p.ID).
		WithMetadata("dancer_id", p.DancerID).
		WithMetadata("batch_id", p.BatchID).
		WithMetadata("type", string(p.Type())))
	slog.Info("pass_event", "event", "pass_created", "pass_id", p.ID, "type", p.Type(), "dancer_id", p.DancerID, "batch_id", p.BatchID)
	return p, nil
}

func initialTerms(input CreatePassInput, now time.Time) (pass.Terms, error) {
	switch input.Type {
	case pass.TypeMonthly:
		return monthlyWindow(input.StartDate, input.EndDate, now)
	case pass.TypeClassPack:
		if err := checkDate("start_date", input.StartDate); err != nil {
			return nil, err
		}
		if err := checkDate("end_date", input.EndDate); err != nil {
			return nil, err
		}
		total := DefaultClassPackClasses
		if input.TotalClasses != nil {
			total = *input.TotalClasses
		}
		return pass.ClassPack{
			TotalClasses:     total,
			RemainingClasses: total,
			StartDate:        orDefault(input.StartDate, now.Format(time.RFC3339Nano)),
			EndDate:          input.EndDate,
		}, nil
	case pass.TypeDropIn:
		return pass.DropIn{
			State:     pass.StatusUnused,
			ValidDate: now.Format(session.DateLayout),
			SessionID: input.SessionID,
		}, nil
	}
	return nil, invalid("%s", pass.ErrInvalidType.Error())
}

// monthlyWindow fills in a monthly pass window, defaulting to now and now+30d.
func monthlyWindow(start, end string, now time.Time) (pass.Monthly, error) {
	if err := checkDate("start_date", start); err != nil {
		return pass.Monthly{}, err
	}
	if err := checkDate("end_date", end); err != nil {
		return pass.Monthly{}, err
	}
	m := pass.Monthly{
		StartDate: orDefault(start, now.Format(time.RFC3339Nano)),
		EndDate:   orDefault(end, now.Add(DefaultMonthlyLength).Format(time.RFC3339Nano)),
	}
	s, _ := pass.ParseTimestamp(m.StartDate)
	e, _ := pass.ParseTimestamp(m.EndDate)
	if e.Before(s) {
		return pass.Monthly{}, invalid("end_date must not be before start_date")
	}
	return m, nil
}

func checkDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := pass.ParseTimestamp(value); err != nil {
		return invalid("%s must be an ISO-8601 date or timestamp", field)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
