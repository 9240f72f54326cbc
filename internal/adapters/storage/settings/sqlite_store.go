package settings

import (
	"context"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/settings"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new settings store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the global settings, creating them with defaults on first read.
// POST: A settings row exists
func (s *SQLiteStore) Get(ctx context.Context) (domain.Settings, error) {
	defaults := domain.Defaults()
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (id, monthly_expiry_warning_days, class_pack_expiry_warning_remaining) VALUES (?, ?, ?)`,
		domain.GlobalID, defaults.MonthlyExpiryWarningDays, defaults.ClassPackExpiryWarningRemaining); err != nil {
		return domain.Settings{}, err
	}
	var out domain.Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT monthly_expiry_warning_days, class_pack_expiry_warning_remaining FROM settings WHERE id = ?`,
		domain.GlobalID).Scan(&out.MonthlyExpiryWarningDays, &out.ClassPackExpiryWarningRemaining)
	return out, err
}

// Save replaces the global settings.
// PRE: s has been validated
func (s *SQLiteStore) Save(ctx context.Context, value domain.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (id, monthly_expiry_warning_days, class_pack_expiry_warning_remaining) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   monthly_expiry_warning_days=excluded.monthly_expiry_warning_days,
		   class_pack_expiry_warning_remaining=excluded.class_pack_expiry_warning_remaining`,
		domain.GlobalID, value.MonthlyExpiryWarningDays, value.ClassPackExpiryWarningRemaining)
	return err
}
