package orchestrators

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"regulars/internal/domain/audit"
)

// AuditSink accepts audit events without blocking or failing the caller.
type AuditSink interface {
	Record(e audit.Event)
}

// AuditEventStore persists audit events.
type AuditEventStore interface {
	Save(ctx context.Context, e audit.Event) error
}

// DefaultAuditBuffer is the queue size used when none is configured.
const DefaultAuditBuffer = 256

// AuditRecorder queues events in a bounded buffer drained by one background
// goroutine. A full queue drops the event; a failing store is logged.
type AuditRecorder struct {
	store   AuditEventStore
	events  chan audit.Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

var _ AuditSink = (*AuditRecorder)(nil)

// NewAuditRecorder starts the background writer.
// PRE: store is non-nil
// POST: Close must be called to flush queued events
func NewAuditRecorder(store AuditEventStore, buffer int) *AuditRecorder {
	if buffer <= 0 {
		buffer = DefaultAuditBuffer
	}
	r := &AuditRecorder{
		store:  store,
		events: make(chan audit.Event, buffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues e. It never blocks.
func (r *AuditRecorder) Record(e audit.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(e, "closed")
		return
	}
	select {
	case r.events <- e:
	default:
		r.drop(e, "queue_full")
	}
}

func (r *AuditRecorder) drop(e audit.Event, reason string) {
	r.dropped.Add(1)
	slog.Warn("audit_dropped", "reason", reason, "action_type", e.Action, "entity_type", e.EntityType, "entity_id", e.EntityID)
}

func (r *AuditRecorder) run() {
	defer close(r.done)
	for e := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.Save(ctx, e); err != nil {
			slog.Error("audit_write_failed", "action_type", e.Action, "entity_id", e.EntityID, "error", err.Error())
		}
		cancel()
	}
}

// Dropped returns how many events were discarded.
func (r *AuditRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for the queue to drain.
// POST: every accepted event has been handed to the store
func (r *AuditRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}
