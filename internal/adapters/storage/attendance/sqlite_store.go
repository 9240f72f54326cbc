package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/attendance"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetBySessionDancer returns the mark for a dancer in a session.
// POST: Returns domain.ErrNotFound when the dancer has not been marked
func (s *SQLiteStore) GetBySessionDancer(ctx context.Context, sessionID, dancerID string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, dancer_id, status, marked_by, timestamp, pass_id
		 FROM attendance WHERE session_id = ? AND dancer_id = ?`, sessionID, dancerID)
	r, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("attendance %s/%s: %w", sessionID, dancerID, domain.ErrNotFound)
	}
	return r, err
}

// Upsert creates or replaces the mark for (r.SessionID, r.DancerID).
// PRE: r has been validated
// POST: Returns the stored record; an existing record keeps its ID
func (s *SQLiteStore) Upsert(ctx context.Context, r domain.Record) (domain.Record, error) {
	var passID any
	if r.PassID != nil {
		passID = *r.PassID
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO attendance (id, session_id, dancer_id, status, marked_by, timestamp, pass_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, dancer_id) DO UPDATE SET
		   status=excluded.status, marked_by=excluded.marked_by,
		   timestamp=excluded.timestamp, pass_id=excluded.pass_id
		 RETURNING id`,
		r.ID, r.SessionID, r.DancerID, r.Status, r.MarkedBy, storage.FormatTime(r.Timestamp), passID,
	).Scan(&r.ID)
	if err != nil {
		return domain.Record{}, err
	}
	return r, nil
}

// ListBySession returns every mark in a session ordered by timestamp.
func (s *SQLiteStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, dancer_id, status, marked_by, timestamp, pass_id
		 FROM attendance WHERE session_id = ? ORDER BY timestamp ASC, dancer_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountBySessions tallies marks per session.
func (s *SQLiteStore) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]domain.Counts, error) {
	counts := make(map[string]domain.Counts, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}
	args := make([]any, 0, len(sessionIDs)+2)
	args = append(args, domain.StatusPresent, domain.StatusAbsent)
	for _, id := range sessionIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sessionIDs)), ", ")
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*), SUM(status = ?), SUM(status = ?)
		 FROM attendance WHERE session_id IN (`+placeholders+`) GROUP BY session_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var c domain.Counts
		if err := rows.Scan(&id, &c.Total, &c.Present, &c.Absent); err != nil {
			return nil, err
		}
		counts[id] = c
	}
	return counts, rows.Err()
}

func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var r domain.Record
	var timestamp string
	var passID sql.NullString
	if err := scan(&r.ID, &r.SessionID, &r.DancerID, &r.Status, &r.MarkedBy, &timestamp, &passID); err != nil {
		return domain.Record{}, err
	}
	ts, err := storage.ParseTime(timestamp)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	r.Timestamp = ts
	if passID.Valid {
		id := passID.String
		r.PassID = &id
	}
	return r, nil
}
