package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"regulars/internal/domain/pass"
	"regulars/internal/domain/settings"
)

// PassStore is the pass persistence needed to select, consume and reverse passes.
type PassStore interface {
	GetByID(ctx context.Context, id string) (pass.Pass, error)
	ListByDancerBatch(ctx context.Context, dancerID, batchID string) ([]pass.Pass, error)
	UpdateTerms(ctx context.Context, id string, prev, next pass.Terms) error
}

// SettingsProvider supplies the warning thresholds.
type SettingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// maxConsumeAttempts bounds how often a lost compare-and-swap is retried
// before the caller gets pass.ErrConflict.
const maxConsumeAttempts = 3

// SelectPass returns the pass a present mark for dancerID in batchID should
// charge: newest first, the first one that is active, expiring soon, or an
// unused drop-in.
// POST: ok is false when the dancer holds no eligible pass
func SelectPass(ctx context.Context, store PassStore, dancerID, batchID string, s settings.Settings, now time.Time) (pass.Pass, bool, error) {
	passes, err := store.ListByDancerBatch(ctx, dancerID, batchID)
	if err != nil {
		return pass.Pass{}, false, fmt.Errorf("list passes: %w", err)
	}
	p, ok := pass.Select(passes, s, now)
	return p, ok, nil
}

// ConsumePass applies one use to p with a conditional write on p's current terms.
// PRE: p was just read from store
// POST: Returns the updated pass and the warning to surface, or
// pass.ErrConflict when another writer changed p first
func ConsumePass(ctx context.Context, store PassStore, p pass.Pass, s settings.Settings, now time.Time) (pass.Pass, string, error) {
	if p.Terms == nil {
		return p, "", pass.ErrInvalidType
	}
	next, err := p.Terms.Consume()
	if err != nil {
		return p, "", err
	}
	warning := pass.ConsumptionWarning(p.Terms, next, s, now)

	if _, monthly := p.Terms.(pass.Monthly); !monthly {
		if err := store.UpdateTerms(ctx, p.ID, p.Terms, next); err != nil {
			return p, "", err
		}
	}
	slog.Info("pass_event", "event", "pass_consumed", "pass_id", p.ID, "type", p.Type(), "dancer_id", p.DancerID, "warning", warning)
	return p.WithTerms(next), warning, nil
}

// ChargeDancer selects and consumes a pass for one present mark. Losing a
// race re-runs selection against fresh state.
// POST: passID is "" and warning is pass.WarningNoActivePass when nothing is eligible
func ChargeDancer(ctx context.Context, store PassStore, dancerID, batchID string, s settings.Settings, now time.Time) (passID, warning string, err error) {
	for attempt := 1; attempt <= maxConsumeAttempts; attempt++ {
		p, ok, err := SelectPass(ctx, store, dancerID, batchID, s, now)
		if err != nil {
			return "", "", err
		}
		if !ok {
			return "", pass.WarningNoActivePass, nil
		}
		_, warning, err := ConsumePass(ctx, store, p, s, now)
		switch {
		case err == nil:
			return p.ID, warning, nil
		case errors.Is(err, pass.ErrConflict), errors.Is(err, pass.ErrExhausted), errors.Is(err, pass.ErrAlreadyUsed):
			slog.Warn("pass_event", "event", "consume_retry", "pass_id", p.ID, "dancer_id", dancerID, "attempt", attempt, "error", err.Error())
		default:
			return "", "", fmt.Errorf("consume pass %s: %w", p.ID, err)
		}
	}
	return "", "", fmt.Errorf("charge dancer %s: %w", dancerID, pass.ErrConflict)
}

// ReversePass credits back the use recorded against passID. A pass that no
// longer exists, or has nothing to credit back, is logged and skipped.
// POST: Returns pass.ErrConflict only when every attempt lost a race
func ReversePass(ctx context.Context, store PassStore, passID string) error {
	for attempt := 1; attempt <= maxConsumeAttempts; attempt++ {
		p, err := store.GetByID(ctx, passID)
		if errors.Is(err, pass.ErrNotFound) {
			slog.Warn("pass_event", "event", "reverse_skipped", "pass_id", passID, "reason", "not_found")
			return nil
		}
		if err != nil {
			return fmt.Errorf("get pass %s: %w", passID, err)
		}
		if p.Terms == nil {
			slog.Warn("pass_event", "event", "reverse_skipped", "pass_id", passID, "reason", "unknown_type")
			return nil
		}
		if _, monthly := p.Terms.(pass.Monthly); monthly {
			return nil
		}

		next, err := p.Terms.Reverse()
		if errors.Is(err, pass.ErrFullyCredited) || errors.Is(err, pass.ErrNotConsumed) {
			slog.Warn("pass_event", "event", "reverse_skipped", "pass_id", passID, "reason", err.Error())
			return nil
		}
		if err != nil {
			return err
		}

		err = store.UpdateTerms(ctx, p.ID, p.Terms, next)
		switch {
		case err == nil:
			slog.Info("pass_event", "event", "pass_reversed", "pass_id", p.ID, "type", p.Type(), "dancer_id", p.DancerID)
			return nil
		case errors.Is(err, pass.ErrConflict):
			slog.Warn("pass_event", "event", "reverse_retry", "pass_id", passID, "attempt", attempt)
		case errors.Is(err, pass.ErrNotFound):
			slog.Warn("pass_event", "event", "reverse_skipped", "pass_id", passID, "reason", "not_found")
			return nil
		default:
			return fmt.Errorf("reverse pass %s: %w", passID, err)
		}
	}
	return fmt.Errorf("reverse pass %s: %w", passID, pass.ErrConflict)
}
