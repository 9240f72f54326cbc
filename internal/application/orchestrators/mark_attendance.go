package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"regulars/internal/adapters/storage/submission"
	"regulars/internal/application/keylock"
	"regulars/internal/domain/attendance"
	"regulars/internal/domain/audit"
	"regulars/internal/domain/batch"
	"regulars/internal/domain/dancer"
	"regulars/internal/domain/outbox"
	"regulars/internal/domain/session"
	"regulars/internal/domain/settings"
)

// AttendanceStore is the attendance persistence needed to mark a session.
type AttendanceStore interface {
	GetBySessionDancer(ctx context.Context, sessionID, dancerID string) (attendance.Record, error)
	Upsert(ctx context.Context, r attendance.Record) (attendance.Record, error)
}

// SessionLookup finds sessions by id.
type SessionLookup interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
}

// BatchLookup finds batches by id.
type BatchLookup interface {
	GetByID(ctx context.Context, id string) (batch.Batch, error)
}

// DancerLookup resolves many dancers at once.
type DancerLookup interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]dancer.Dancer, error)
}

// SubmissionStore remembers keyed bulk responses.
type SubmissionStore interface {
	Get(ctx context.Context, key string) (submission.Submission, error)
	Save(ctx context.Context, s submission.Submission) error
}

// OutboxWriter queues work for the outbox processor.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// AttendanceMark is one dancer's new status in a bulk submission.
type AttendanceMark struct {
	DancerID string `json:"dancer_id" validate:"required"`
	Status   string `json:"status" validate:"required,max=32"`
}

// MarkAttendanceInput carries one bulk attendance submission.
type MarkAttendanceInput struct {
	SessionID      string           `json:"session_id" validate:"required"`
	BatchID        string           `json:"batch_id" validate:"required"`
	Records        []AttendanceMark `json:"records" validate:"dive"`
	IdempotencyKey string           `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
	ActorID        string           `json:"-" validate:"required"`
}

// AttendanceWarning is a per-dancer note attached to a submission.
type AttendanceWarning struct {
	DancerID string `json:"dancer_id"`
	Message  string `json:"message"`
}

// MarkAttendanceResult is the response to a bulk submission.
type MarkAttendanceResult struct {
	Results  []attendance.Record `json:"results"`
	Warnings []AttendanceWarning `json:"warnings"`
	Replayed bool                `json:"-"`
}

// MarkAttendanceDeps holds dependencies for MarkAttendanceBulk.
type MarkAttendanceDeps struct {
	Passes      PassStore
	Attendance  AttendanceStore
	Settings    SettingsProvider
	Sessions    SessionLookup
	Batches     BatchLookup
	Dancers     DancerLookup
	Audit       AuditSink
	Submissions SubmissionStore // optional: nil disables idempotency keys
	Outbox      OutboxWriter    // optional: nil disables pass alerts
	AlertTo     []string        // pass alert recipients; empty disables alerts
	Locks       *keylock.Locker // shared across requests; nil serializes within this call only
	Workers     int             // dancers processed concurrently; <= 0 means 4
	Now         func() time.Time
}

// ExecuteMarkAttendanceBulk records a session's attendance marks, charging or
// crediting passes as each dancer's status moves into or out of present.
// PRE: caller identity is authenticated
// POST: Every referenced entity existed before any mutation. Each record is
// upserted once; results and warnings follow input order.
// INVARIANT: a given (session, dancer) record and a given pass are never
// written concurrently
func ExecuteMarkAttendanceBulk(ctx context.Context, input MarkAttendanceInput, deps MarkAttendanceDeps) (MarkAttendanceResult, error) {
	if err := validateStruct(input); err != nil {
		return MarkAttendanceResult{}, err
	}
	locks := deps.Locks
	if locks == nil {
		locks = keylock.New()
	}

	if input.IdempotencyKey != "" && deps.Submissions != nil {
		unlock := locks.Lock("submission/" + input.IdempotencyKey)
		defer unlock()
		prior, err := deps.Submissions.Get(ctx, input.IdempotencyKey)
		switch {
		case err == nil:
			return replaySubmission(prior, input)
		case !errors.Is(err, submission.ErrNotFound):
			return MarkAttendanceResult{}, fmt.Errorf("load submission: %w", err)
		}
	}

	refs, err := checkReferences(ctx, input, deps)
	if err != nil {
		return MarkAttendanceResult{}, err
	}

	s, err := deps.Settings.Get(ctx)
	if err != nil {
		return MarkAttendanceResult{}, fmt.Errorf("load settings: %w", err)
	}
	now := clock(deps.Now)

	results := make([]attendance.Record, len(input.Records))
	warnings := make([]string, len(input.Records))

	workers := deps.Workers
	if workers <= 0 {
		workers = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, idxs := range groupByDancer(input.Records) {
		g.Go(func() error {
			for _, i := range idxs {
				rec, warning, err := markOne(gctx, input, input.Records[i], deps, locks, s, now)
				if err != nil {
					return err
				}
				results[i] = rec
				warnings[i] = warning
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MarkAttendanceResult{}, err
	}

	out := MarkAttendanceResult{Results: results, Warnings: []AttendanceWarning{}}
	for i, w := range warnings {
		if w != "" {
			out.Warnings = append(out.Warnings, AttendanceWarning{DancerID: input.Records[i].DancerID, Message: w})
		}
	}

	enqueuePassAlert(ctx, refs, out.Warnings, deps, now)
	saveSubmission(ctx, input, out, deps, now)
	return out, nil
}

// bulkRefs are the entities a submission refers to.
type bulkRefs struct {
	Session session.Session
	Batch   batch.Batch
	Dancers map[string]dancer.Dancer
}

// checkReferences fails the whole call before any mutation when the session,
// batch or any dancer is missing.
func checkReferences(ctx context.Context, input MarkAttendanceInput, deps MarkAttendanceDeps) (bulkRefs, error) {
	sess, err := deps.Sessions.GetByID(ctx, input.SessionID)
	if err != nil {
		return bulkRefs{}, err
	}
	if sess.BatchID != input.BatchID {
		return bulkRefs{}, invalid("%s: session %s, batch %s", session.ErrBatchMismatch, input.SessionID, input.BatchID)
	}
	b, err := deps.Batches.GetByID(ctx, input.BatchID)
	if err != nil {
		return bulkRefs{}, err
	}

	ids := make([]string, 0, len(input.Records))
	for _, r := range input.Records {
		ids = append(ids, r.DancerID)
	}
	found, err := deps.Dancers.GetByIDs(ctx, ids)
	if err != nil {
		return bulkRefs{}, fmt.Errorf("load dancers: %w", err)
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return bulkRefs{}, fmt.Errorf("%s: %w", strings.Join(missing, ", "), dancer.ErrNotFound)
	}
	return bulkRefs{Session: sess, Batch: b, Dancers: found}, nil
}

// groupByDancer returns record indexes grouped by dancer in first-seen order,
// so one dancer's marks are applied sequentially.
func groupByDancer(records []AttendanceMark) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, r := range records {
		g, ok := pos[r.DancerID]
		if !ok {
			g = len(groups)
			pos[r.DancerID] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// markOne applies a single mark: diff old against new, charge or credit the
// pass, upsert the record and emit its audit event.
func markOne(ctx context.Context, input MarkAttendanceInput, mark AttendanceMark, deps MarkAttendanceDeps, locks *keylock.Locker, s settings.Settings, now time.Time) (attendance.Record, string, error) {
	unlock := locks.Lock(input.SessionID + "/" + mark.DancerID)
	defer unlock()

	existing, err := deps.Attendance.GetBySessionDancer(ctx, input.SessionID, mark.DancerID)
	found := err == nil
	if err != nil && !errors.Is(err, attendance.ErrNotFound) {
		return attendance.Record{}, "", fmt.Errorf("load attendance: %w", err)
	}
	oldStatus := ""
	if found {
		oldStatus = existing.Status
	}

	var passID *string
	var warning string
	switch attendance.Classify(oldStatus, mark.Status) {
	case attendance.TransitionCharge:
		id, w, err := ChargeDancer(ctx, deps.Passes, mark.DancerID, input.BatchID, s, now)
		if err != nil {
			return attendance.Record{}, "", err
		}
		warning = w
		if id != "" {
			passID = &id
		}
	case attendance.TransitionRefund:
		// pass_id is cleared: the record no longer holds a charge.
		if id, ok := existing.ChargedPass(); ok {
			if err := ReversePass(ctx, deps.Passes, id); err != nil {
				return attendance.Record{}, "", err
			}
		}
	default:
		if found {
			passID = existing.PassID
		}
	}

	rec := attendance.Record{
		ID:        existing.ID,
		SessionID: input.SessionID,
		DancerID:  mark.DancerID,
		Status:    mark.Status,
		MarkedBy:  input.ActorID,
		Timestamp: now,
		PassID:    passID,
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if err := rec.Validate(); err != nil {
		return attendance.Record{}, "", invalid("%s", err.Error())
	}
	stored, err := deps.Attendance.Upsert(ctx, rec)
	if err != nil {
		return attendance.Record{}, "", fmt.Errorf("save attendance: %w", err)
	}

	event := audit.NewEvent(now, input.ActorID, audit.ActionMarkAttendance, audit.EntityAttendance, stored.ID).
		WithMetadata("session_id", input.SessionID).
		WithMetadata("dancer_id", mark.DancerID).
		WithMetadata("old_status", oldStatus).
		WithMetadata("new_status", mark.Status).
		WithMetadata("pass_id", stored.PassID)
	if warning != "" {
		event = event.WithMetadata("warning", warning)
	}
	deps.Audit.Record(event)

	slog.Info("attendance_event", "event", "attendance_marked", "session_id", input.SessionID, "dancer_id", mark.DancerID,
		"old_status", oldStatus, "new_status", mark.Status, "warning", warning)
	return stored, warning, nil
}

func replaySubmission(prior submission.Submission, input MarkAttendanceInput) (MarkAttendanceResult, error) {
	if prior.SessionID != input.SessionID {
		return MarkAttendanceResult{}, invalid("idempotency key %q was already used for another session", input.IdempotencyKey)
	}
	var out MarkAttendanceResult
	if err := json.Unmarshal(prior.Response, &out); err != nil {
		return MarkAttendanceResult{}, fmt.Errorf("decode stored submission: %w", err)
	}
	out.Replayed = true
	slog.Info("attendance_event", "event", "submission_replayed", "session_id", input.SessionID, "idempotency_key", input.IdempotencyKey)
	return out, nil
}

func saveSubmission(ctx context.Context, input MarkAttendanceInput, out MarkAttendanceResult, deps MarkAttendanceDeps, now time.Time) {
	if input.IdempotencyKey == "" || deps.Submissions == nil {
		return
	}
	body, err := json.Marshal(out)
	if err != nil {
		slog.Error("attendance_event", "event", "submission_encode_failed", "error", err.Error())
		return
	}
	err = deps.Submissions.Save(ctx, submission.Submission{
		Key:       input.IdempotencyKey,
		SessionID: input.SessionID,
		Response:  body,
		CreatedAt: now,
	})
	if err != nil {
		slog.Error("attendance_event", "event", "submission_save_failed", "idempotency_key", input.IdempotencyKey, "error", err.Error())
	}
}
