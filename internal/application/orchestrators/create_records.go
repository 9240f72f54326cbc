package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"regulars/internal/domain/audit"
	"regulars/internal/domain/batch"
	"regulars/internal/domain/dancer"
)

// DancerSaver persists dancers.
type DancerSaver interface {
	Save(ctx context.Context, d dancer.Dancer) error
}

// BatchSaver persists batches.
type BatchSaver interface {
	Save(ctx context.Context, b batch.Batch) error
}

// CreateDancerInput carries input for registering a dancer.
type CreateDancerInput struct {
	FullName    string `json:"full_name" validate:"required,max=200"`
	PhoneNumber string `json:"phone_number" validate:"max=40"`
	Notes       string `json:"notes" validate:"max=2000"`
	ActorID     string `json:"-" validate:"required"`
}

// CreateDancerDeps holds dependencies for CreateDancer.
type CreateDancerDeps struct {
	Dancers DancerSaver
	Audit   AuditSink
	Now     func() time.Time
}

// ExecuteCreateDancer registers an active dancer.
// POST: Dancer persisted; audit event emitted
func ExecuteCreateDancer(ctx context.Context, input CreateDancerInput, deps CreateDancerDeps) (dancer.Dancer, error) {
	if err := validateStruct(input); err != nil {
		return dancer.Dancer{}, err
	}
	now := clock(deps.Now).UTC()
	d := dancer.Dancer{
		ID:          uuid.New().String(),
		FullName:    strings.TrimSpace(input.FullName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Notes:       input.Notes,
		Active:      true,
		CreatedAt:   now,
	}
	if err := d.Validate(); err != nil {
		return dancer.Dancer{}, invalid("%s", err.Error())
	}
	if err := deps.Dancers.Save(ctx, d); err != nil {
		return dancer.Dancer{}, err
	}
	deps.Audit.Record(audit.NewEvent(now, input.ActorID, audit.ActionCreateDancer, audit.EntityDancer, d.ID).
		WithMetadata("name", d.FullName))
	return d, nil
}

// CreateBatchInput carries input for creating a batch.
type CreateBatchInput struct {
	BatchName     string   `json:"batch_name" validate:"required,max=200"`
	StudioName    string   `json:"studio_name" validate:"max=200"`
	ScheduleDays  string   `json:"schedule_days" validate:"max=100"`
	TimeSlot      string   `json:"time_slot" validate:"max=100"`
	InstructorIDs []string `json:"assigned_instructor_ids" validate:"dive,required"`
	ActorID       string   `json:"-" validate:"required"`
}

// CreateBatchDeps holds dependencies for CreateBatch.
type CreateBatchDeps struct {
	Batches BatchSaver
	Audit   AuditSink
	Now     func() time.Time
}

// ExecuteCreateBatch creates an active batch.
// POST: Batch persisted; audit event emitted
func ExecuteCreateBatch(ctx context.Context, input CreateBatchInput, deps CreateBatchDeps) (batch.Batch, error) {
	if err := validateStruct(input); err != nil {
		return batch.Batch{}, err
	}
	b := batch.Batch{
		ID:            uuid.New().String(),
		BatchName:     strings.TrimSpace(input.BatchName),
		StudioName:    input.StudioName,
		ScheduleDays:  input.ScheduleDays,
		TimeSlot:      input.TimeSlot,
		InstructorIDs: input.InstructorIDs,
		Active:        true,
	}
	if b.InstructorIDs == nil {
		b.InstructorIDs = []string{}
	}
	if err := b.Validate(); err != nil {
		return batch.Batch{}, invalid("%s", err.Error())
	}
	if err := deps.Batches.Save(ctx, b); err != nil {
		return batch.Batch{}, err
	}
	deps.Audit.Record(audit.NewEvent(clock(deps.Now), input.ActorID, audit.ActionCreateBatch, audit.EntityBatch, b.ID).
		WithMetadata("batch_name", b.BatchName))
	slog.Info("batch_event", "event", "batch_created", "batch_id", b.ID)
	return b, nil
}
