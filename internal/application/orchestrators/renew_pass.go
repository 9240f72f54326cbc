package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/pass"
)

// PassRenewStore reads and conditionally rewrites a pass.
type PassRenewStore interface {
	GetByID(ctx context.Context, id string) (pass.Pass, error)
	UpdateTerms(ctx context.Context, id string, prev, next pass.Terms) error
}

// RenewPassInput carries input for renewing a pass.
type RenewPassInput struct {
	PassID       string `json:"-" validate:"required"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	TotalClasses *int   `json:"total_classes,omitempty" validate:"omitempty,min=1,max=1000"`
	ActorID      string `json:"-" validate:"required"`
}

// RenewPassDeps holds dependencies for RenewPass.
type RenewPassDeps struct {
	Passes PassRenewStore
	Audit  AuditSink
	Now    func() time.Time
}

// ExecuteRenewPass resets a pass's terms: a monthly pass gets a new window,
// a class pack is refilled. Drop-ins cannot be renewed.
// PRE: PassID refers to an existing pass
// POST: Terms replaced only if unchanged since read; audit records before and after
func ExecuteRenewPass(ctx context.Context, input RenewPassInput, deps RenewPassDeps) (pass.Pass, error) {
	if err := validateStruct(input); err != nil {
		return pass.Pass{}, err
	}
	p, err := deps.Passes.GetByID(ctx, input.PassID)
	if err != nil {
		return pass.Pass{}, err
	}
	now := clock(deps.Now).UTC()

	var next pass.Terms
	switch t := p.Terms.(type) {
	case pass.Monthly:
		next, err = monthlyWindow(input.StartDate, input.EndDate, now)
		if err != nil {
			return pass.Pass{}, err
		}
	case pass.ClassPack:
		if err := checkDate("start_date", input.StartDate); err != nil {
			return pass.Pass{}, err
		}
		total := t.TotalClasses
		if total <= 0 {
			total = DefaultClassPackClasses
		}
		if input.TotalClasses != nil {
			total = *input.TotalClasses
		}
		next = pass.ClassPack{
			TotalClasses:     total,
			RemainingClasses: total,
			StartDate:        orDefault(input.StartDate, now.Format(time.RFC3339Nano)),
			EndDate:          t.EndDate,
		}
	case pass.DropIn:
		return pass.Pass{}, invalid("%s", pass.ErrNotRenewable.Error())
	default:
		return pass.Pass{}, invalid("%s", pass.ErrInvalidType.Error())
	}

	if err := deps.Passes.UpdateTerms(ctx, p.ID, p.Terms, next); err != nil {
		if errors.Is(err, pass.ErrConflict) {
			return pass.Pass{}, err
		}
		return pass.Pass{}, fmt.Errorf("renew pass %s: %w", p.ID, err)
	}
	renewed := p.WithTerms(next)

	deps.Audit.Record(audit.NewEvent(now, input.ActorID, audit.ActionRenewPass, audit.EntityPass, p.ID).
		WithMetadata("before", p.Record()).
		WithMetadata("after", renewed.Record()))
	slog.Info("pass_event", "event", "pass_renewed", "pass_id", p.ID, "type", p.Type())
	return renewed, nil
}
