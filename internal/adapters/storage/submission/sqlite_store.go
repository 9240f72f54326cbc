package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"regulars/internal/adapters/storage"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new submission store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the submission stored under key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Submission, error) {
	var out Submission
	var response, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT idempotency_key, session_id, response, created_at FROM attendance_submission WHERE idempotency_key = ?`,
		key).Scan(&out.Key, &out.SessionID, &response, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("submission %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Submission{}, err
	}
	out.Response = []byte(response)
	if out.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return Submission{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return out, nil
}

// Save stores sub. The first writer for a key wins.
// POST: Returns ErrDuplicate when the key already exists
func (s *SQLiteStore) Save(ctx context.Context, sub Submission) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance_submission (idempotency_key, session_id, response, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(idempotency_key) DO NOTHING`,
		sub.Key, sub.SessionID, string(sub.Response), storage.FormatTime(sub.CreatedAt))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("submission %s: %w", sub.Key, ErrDuplicate)
	}
	return nil
}
