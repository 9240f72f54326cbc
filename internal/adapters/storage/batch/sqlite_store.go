package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/batch"
)

const selectColumns = "SELECT id, batch_name, studio_name, schedule_days, time_slot, instructor_ids, active FROM batch"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new BatchStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Batch by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Batch, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanBatch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Batch{}, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	return entity, err
}

// Save persists a Batch to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Batch) error {
	instructors := entity.InstructorIDs
	if instructors == nil {
		instructors = []string{}
	}
	encoded, err := json.Marshal(instructors)
	if err != nil {
		return fmt.Errorf("encode instructor ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batch (id, batch_name, studio_name, schedule_days, time_slot, instructor_ids, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   batch_name=excluded.batch_name, studio_name=excluded.studio_name,
		   schedule_days=excluded.schedule_days, time_slot=excluded.time_slot,
		   instructor_ids=excluded.instructor_ids, active=excluded.active`,
		entity.ID, entity.BatchName, entity.StudioName, entity.ScheduleDays, entity.TimeSlot,
		string(encoded), entity.Active)
	return err
}

// List retrieves Batches based on the filter, ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Batch, error) {
	query := selectColumns + " WHERE 1=1"
	var args []any
	if filter.ActiveOnly {
		query += " AND active = 1"
	}
	if filter.InstructorID != "" {
		query += " AND EXISTS (SELECT 1 FROM json_each(batch.instructor_ids) WHERE json_each.value = ?)"
		args = append(args, filter.InstructorID)
	}
	query += " ORDER BY batch_name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Batch
	for rows.Next() {
		entity, err := scanBatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanBatch(scan func(dest ...any) error) (domain.Batch, error) {
	var entity domain.Batch
	var instructors string
	err := scan(&entity.ID, &entity.BatchName, &entity.StudioName, &entity.ScheduleDays,
		&entity.TimeSlot, &instructors, &entity.Active)
	if err != nil {
		return domain.Batch{}, err
	}
	if err := json.Unmarshal([]byte(instructors), &entity.InstructorIDs); err != nil {
		return domain.Batch{}, fmt.Errorf("failed to decode instructor_ids: %w", err)
	}
	return entity, nil
}
