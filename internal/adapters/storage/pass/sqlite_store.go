package pass

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/pass"
)

const selectColumns = `SELECT id, dancer_id, batch_id, type, start_date, end_date, total_classes, remaining_classes, status, valid_date, session_id, created_at, created_by FROM pass`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new pass store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a pass by its ID.
// PRE: id is non-empty
// POST: Returns the pass or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Pass, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	p, err := scanPass(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Pass{}, fmt.Errorf("pass %s: %w", id, domain.ErrNotFound)
	}
	return p, err
}

// ListByDancerBatch returns every pass a dancer holds for a batch.
// POST: Returns passes ordered newest first
func (s *SQLiteStore) ListByDancerBatch(ctx context.Context, dancerID, batchID string) ([]domain.Pass, error) {
	return s.List(ctx, ListFilter{DancerID: dancerID, BatchID: batchID})
}

// List returns passes matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Pass, error) {
	query := selectColumns + ` WHERE 1=1`
	var args []any
	if filter.DancerID != "" {
		query += " AND dancer_id = ?"
		args = append(args, filter.DancerID)
	}
	if filter.BatchID != "" {
		query += " AND batch_id = ?"
		args = append(args, filter.BatchID)
	}
	if len(filter.BatchIDs) > 0 {
		placeholders := make([]string, len(filter.BatchIDs))
		for i, id := range filter.BatchIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND batch_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []domain.Pass
	for rows.Next() {
		p, err := scanPass(rows.Scan)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// Insert persists a new pass.
// PRE: p has been validated
func (s *SQLiteStore) Insert(ctx context.Context, p domain.Pass) error {
	r := p.Record()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pass (id, dancer_id, batch_id, type, start_date, end_date, total_classes, remaining_classes, status, valid_date, session_id, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DancerID, r.BatchID, string(r.Type), r.StartDate, r.EndDate,
		nullInt(r.TotalClasses), nullInt(r.RemainingClasses), nullStatus(r.Status),
		r.ValidDate, r.SessionID, storage.FormatTime(r.CreatedAt), r.CreatedBy)
	return err
}

// UpdateTerms replaces the terms of pass id with next, provided the stored
// terms still equal prev. A drop-in stored without a status matches an
// unused prev.
// POST: Returns domain.ErrConflict when the stored terms differ from prev,
// domain.ErrNotFound when the pass does not exist
func (s *SQLiteStore) UpdateTerms(ctx context.Context, id string, prev, next domain.Terms) error {
	var before, after domain.Record
	domain.FlattenTerms(prev, &before)
	domain.FlattenTerms(next, &after)

	result, err := s.db.ExecContext(ctx,
		`UPDATE pass SET type = ?, start_date = ?, end_date = ?, total_classes = ?, remaining_classes = ?, status = ?, valid_date = ?, session_id = ?
		 WHERE id = ? AND type = ? AND start_date = ? AND end_date = ?
		   AND total_classes IS ? AND remaining_classes IS ?
		   AND CASE WHEN type = 'drop_in' THEN COALESCE(status, 'unused') ELSE status END IS ?
		   AND valid_date = ? AND session_id = ?`,
		string(after.Type), after.StartDate, after.EndDate,
		nullInt(after.TotalClasses), nullInt(after.RemainingClasses), nullStatus(after.Status),
		after.ValidDate, after.SessionID,
		id, string(before.Type), before.StartDate, before.EndDate,
		nullInt(before.TotalClasses), nullInt(before.RemainingClasses), nullStatus(before.Status),
		before.ValidDate, before.SessionID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("pass %s: %w", id, domain.ErrConflict)
}

func scanPass(scan func(dest ...any) error) (domain.Pass, error) {
	var r domain.Record
	var passType, createdAt string
	var total, remaining sql.NullInt64
	var status sql.NullString
	err := scan(&r.ID, &r.DancerID, &r.BatchID, &passType, &r.StartDate, &r.EndDate,
		&total, &remaining, &status, &r.ValidDate, &r.SessionID, &createdAt, &r.CreatedBy)
	if err != nil {
		return domain.Pass{}, err
	}
	r.Type = domain.Type(passType)
	if total.Valid {
		v := int(total.Int64)
		r.TotalClasses = &v
	}
	if remaining.Valid {
		v := int(remaining.Int64)
		r.RemainingClasses = &v
	}
	if status.Valid {
		r.Status = domain.Status(status.String)
	}
	r.CreatedAt, err = storage.ParseTime(createdAt)
	if err != nil {
		return domain.Pass{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return domain.FromRecord(r), nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullStatus(v domain.Status) any {
	if v == "" {
		return nil
	}
	return string(v)
}
