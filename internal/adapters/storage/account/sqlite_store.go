package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/account"
)

const selectColumns = `SELECT id, email, name, password_hash, role, active, created_at, failed_logins, locked_until FROM account`

const upsertAccount = `INSERT INTO account
	(id, email, name, password_hash, role, active, created_at, failed_logins, locked_until)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		email = excluded.email,
		name = excluded.name,
		password_hash = excluded.password_hash,
		role = excluded.role,
		active = excluded.active,
		failed_logins = excluded.failed_logins,
		locked_until = excluded.locked_until`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a staff account.
// POST: Returns the account or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a staff account by login email. Matching ignores case
// and surrounding whitespace.
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.getOne(ctx, "lower(email) = lower(?)", strings.TrimSpace(email))
}

func (s *SQLiteStore) getOne(ctx context.Context, where, key string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE "+where, key)
	a, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", key, domain.ErrNotFound)
	}
	return a, err
}

// Save inserts the account or overwrites every mutable column.
// created_at is fixed at first insert.
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx, upsertAccount,
		a.ID, a.Email, a.Name, a.PasswordHash, a.Role, a.Active,
		storage.FormatTime(a.CreatedAt),
		a.FailedLogins,
		storage.NullableTime(a.LockedUntil),
	)
	if err != nil {
		return fmt.Errorf("save account %s: %w", a.ID, err)
	}
	return nil
}

// List returns accounts newest first, optionally restricted to one role.
// A non-positive Limit means no limit.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	query := selectColumns
	var args []any
	if filter.Role != "" {
		query += " WHERE role = ?"
		args = append(args, filter.Role)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var (
		a           domain.Account
		createdAt   string
		lockedUntil sql.NullString
	)
	if err := scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.Active,
		&createdAt, &a.FailedLogins, &lockedUntil); err != nil {
		return domain.Account{}, err
	}
	var err error
	if a.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("account %s created_at: %w", a.ID, err)
	}
	if a.LockedUntil, err = storage.ParseNullTime(lockedUntil); err != nil {
		return domain.Account{}, fmt.Errorf("account %s locked_until: %w", a.ID, err)
	}
	return a, nil
}
