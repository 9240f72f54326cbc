package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "regulars/internal/domain/outbox"
)

// OutboxStore is the outbox persistence the processor needs.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
}

// ActionExecutor performs one kind of queued side effect and returns the
// provider's reference for it (an email message id, for example).
type ActionExecutor interface {
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxPolicy bounds how the processor drains the queue.
type OutboxPolicy struct {
	BaseDelay time.Duration // first retry delay, doubled per attempt
	MaxDelay  time.Duration
	BatchSize int // entries loaded per run
}

// DefaultOutboxPolicy is used for zero fields of a caller's policy.
var DefaultOutboxPolicy = OutboxPolicy{
	BaseDelay: 30 * time.Second,
	MaxDelay:  time.Hour,
	BatchSize: 10,
}

// OutboxRun summarizes one pass over the pending queue.
type OutboxRun struct {
	Delivered int
	Failed    int
	Deferred  int // still backing off
}

// OutboxProcessor delivers queued pass alerts with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStore
	executors map[string]ActionExecutor
	policy    OutboxPolicy
	now       func() time.Time
}

// NewOutboxProcessor creates a processor using DefaultOutboxPolicy.
// PRE: executors maps action types to their executor; a missing type fails its entries
func NewOutboxProcessor(store OutboxStore, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		policy:    DefaultOutboxPolicy,
		now:       time.Now,
	}
}

// WithPolicy replaces the non-zero fields of the processor's policy.
func (p *OutboxProcessor) WithPolicy(policy OutboxPolicy) *OutboxProcessor {
	if policy.BaseDelay > 0 {
		p.policy.BaseDelay = policy.BaseDelay
	}
	if policy.MaxDelay > 0 {
		p.policy.MaxDelay = policy.MaxDelay
	}
	if policy.BatchSize > 0 {
		p.policy.BatchSize = policy.BatchSize
	}
	return p
}

// ProcessPending attempts every loaded entry whose backoff has elapsed.
// POST: a failing entry never stops the run; only a failed listing is returned
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (OutboxRun, error) {
	var run OutboxRun
	entries, err := p.store.ListPending(ctx, p.policy.BatchSize)
	if err != nil {
		return run, fmt.Errorf("list pending outbox entries: %w", err)
	}
	now := p.now()
	for _, entry := range entries {
		if now.Before(entry.ReadyAt(p.policy.BaseDelay, p.policy.MaxDelay)) {
			run.Deferred++
			continue
		}
		delivered, err := p.attempt(ctx, entry)
		switch {
		case err != nil:
			run.Failed++
			slog.Error("outbox_event", "event", "save_failed", "entry_id", entry.ID, "error", err.Error())
		case delivered:
			run.Delivered++
		default:
			run.Failed++
		}
	}
	if len(entries) > 0 {
		slog.Info("outbox_event", "event", "run", "delivered", run.Delivered, "failed", run.Failed, "deferred", run.Deferred)
	}
	return run, nil
}

// ProcessSingle attempts one entry now, ignoring its backoff. A failed entry
// is given one more attempt.
// POST: validation error for done or abandoned entries
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	switch entry.Status {
	case domain.StatusDone, domain.StatusAbandoned:
		return invalid("entry %s is %s and cannot be retried", entryID, entry.Status)
	case domain.StatusFailed:
		entry.MaxAttempts = entry.Attempts + 1
	}
	_, err = p.attempt(ctx, entry)
	return err
}

// AbandonEntry stops all further attempts for an entry.
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	slog.Info("outbox_event", "event", "abandoned", "entry_id", entry.ID, "attempts", entry.Attempts)
	return p.store.Save(ctx, entry)
}

// attempt runs entry's executor and saves the outcome. The returned error is
// a store error only; delivery failures are recorded on the entry.
func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) (bool, error) {
	entry.MarkAttempt(p.now())
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for action type %q", entry.ActionType))
		return false, p.store.Save(ctx, entry)
	}

	ref, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_event", "event", "attempt_failed", "entry_id", entry.ID, "action_type", entry.ActionType,
			"attempt", entry.Attempts, "status", entry.Status, "error", err.Error())
		return false, p.store.Save(ctx, entry)
	}
	entry.MarkSuccess(ref)
	slog.Info("outbox_event", "event", "delivered", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", ref)
	return true, p.store.Save(ctx, entry)
}

// RunOutboxWorker drains the queue every interval until ctx is done.
// Each run is bounded by runTimeout so a hung provider cannot stall shutdown.
func RunOutboxWorker(ctx context.Context, processor *OutboxProcessor, interval time.Duration) {
	const runTimeout = 2 * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox_event", "event", "worker_stopped")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			if _, err := processor.ProcessPending(runCtx); err != nil {
				slog.Error("outbox_event", "event", "run_failed", "error", err.Error())
			}
			cancel()
		}
	}
}
