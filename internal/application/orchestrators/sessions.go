package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/session"
)

// SessionStore reads and creates sessions.
type SessionStore interface {
	GetByBatchDate(ctx context.Context, batchID, date string) (session.Session, error)
	Insert(ctx context.Context, s session.Session) error
}

// CreateSessionInput carries input for opening a class session.
type CreateSessionInput struct {
	BatchID string `json:"batch_id" validate:"required"`
	Date    string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today (UTC)
	ActorID string `json:"-" validate:"required"`
}

// SessionDeps holds dependencies for the session orchestrators.
type SessionDeps struct {
	Sessions SessionStore
	Batches  BatchLookup
	Audit    AuditSink
	Now      func() time.Time
}

// ExecuteCreateSession opens a session for a batch on one date.
// PRE: batch exists; date is YYYY-MM-DD or empty
// POST: Session persisted, or session.ErrAlreadyExists if the date is taken
func ExecuteCreateSession(ctx context.Context, input CreateSessionInput, deps SessionDeps) (session.Session, error) {
	s, err := newSession(ctx, input, deps)
	if err != nil {
		return session.Session{}, err
	}
	if err := deps.Sessions.Insert(ctx, s); err != nil {
		return session.Session{}, err
	}
	recordSessionCreated(s, deps)
	return s, nil
}

// ExecuteEnsureTodaySession returns today's session for a batch, creating it
// on first request. A concurrent creator wins and its session is returned.
// POST: exactly one session exists for (batch, today)
func ExecuteEnsureTodaySession(ctx context.Context, batchID, actorID string, deps SessionDeps) (session.Session, error) {
	input := CreateSessionInput{BatchID: batchID, ActorID: actorID}
	today := clock(deps.Now).UTC().Format(session.DateLayout)

	existing, err := deps.Sessions.GetByBatchDate(ctx, batchID, today)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return session.Session{}, err
	}

	s, err := newSession(ctx, input, deps)
	if err != nil {
		return session.Session{}, err
	}
	err = deps.Sessions.Insert(ctx, s)
	if errors.Is(err, session.ErrAlreadyExists) {
		return deps.Sessions.GetByBatchDate(ctx, batchID, s.Date)
	}
	if err != nil {
		return session.Session{}, err
	}
	recordSessionCreated(s, deps)
	return s, nil
}

func newSession(ctx context.Context, input CreateSessionInput, deps SessionDeps) (session.Session, error) {
	if err := validateStruct(input); err != nil {
		return session.Session{}, err
	}
	if _, err := deps.Batches.GetByID(ctx, input.BatchID); err != nil {
		return session.Session{}, err
	}
	now := clock(deps.Now).UTC()
	s := session.Session{
		ID:        uuid.New().String(),
		BatchID:   input.BatchID,
		Date:      orDefault(input.Date, now.Format(session.DateLayout)),
		CreatedBy: input.ActorID,
		CreatedAt: now,
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, invalid("%s", err.Error())
	}
	return s, nil
}

func recordSessionCreated(s session.Session, deps SessionDeps) {
	deps.Audit.Record(audit.NewEvent(s.CreatedAt, s.CreatedBy, audit.ActionCreateSession, audit.EntitySession, s.ID).
		WithMetadata("batch_id", s.BatchID).
		WithMetadata("date", s.Date))
	slog.Info("session_event", "event", "session_created", "session_id", s.ID, "batch_id", s.BatchID, "date", s.Date)
}
