package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/session"
)

const selectColumns = "SELECT id, batch_id, date, created_by, created_at FROM session"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SessionStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return entity, err
}

// GetByBatchDate retrieves the session a batch holds on date.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByBatchDate(ctx context.Context, batchID, date string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE batch_id = ? AND date = ?", batchID, date)
	entity, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %s@%s: %w", batchID, date, domain.ErrNotFound)
	}
	return entity, err
}

// Insert creates a session.
// PRE: entity has been validated
// POST: Returns domain.ErrAlreadyExists when the batch already has a session on that date
func (s *SQLiteStore) Insert(ctx context.Context, entity domain.Session) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO session (id, batch_id, date, created_by, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(batch_id, date) DO NOTHING`,
		entity.ID, entity.BatchID, entity.Date, entity.CreatedBy, storage.FormatTime(entity.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("session %s: %w", entity.ID, domain.ErrAlreadyExists)
		}
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s@%s: %w", entity.BatchID, entity.Date, domain.ErrAlreadyExists)
	}
	return nil
}

// ListByBatch returns a batch's sessions, newest date first.
func (s *SQLiteStore) ListByBatch(ctx context.Context, batchID string, limit int) ([]domain.Session, error) {
	return s.List(ctx, ListFilter{BatchIDs: []string{batchID}, Limit: limit})
}

// List returns sessions matching filter, newest date first.
// An empty BatchIDs slice matches every batch.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Session, error) {
	var where []string
	var args []any
	if len(filter.BatchIDs) > 0 {
		where = append(where, "batch_id IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(filter.BatchIDs)), ", ")+")")
		for _, id := range filter.BatchIDs {
			args = append(args, id)
		}
	}
	if filter.FromDate != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.ToDate)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY date DESC, id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Session
	for rows.Next() {
		entity, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanSession(scan func(dest ...any) error) (domain.Session, error) {
	var entity domain.Session
	var createdAt string
	if err := scan(&entity.ID, &entity.BatchID, &entity.Date, &entity.CreatedBy, &createdAt); err != nil {
		return domain.Session{}, err
	}
	ts, err := storage.ParseTime(createdAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	entity.CreatedAt = ts
	return entity, nil
}
