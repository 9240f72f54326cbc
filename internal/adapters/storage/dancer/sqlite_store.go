package dancer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/dancer"
)

const selectColumns = "SELECT id, full_name, phone_number, notes, active, created_at FROM dancer"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new DancerStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Dancer by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Dancer, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanDancer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Dancer{}, fmt.Errorf("dancer %s: %w", id, domain.ErrNotFound)
	}
	return entity, err
}

// GetByIDs retrieves the dancers whose IDs are listed. Unknown IDs are absent
// from the result.
func (s *SQLiteStore) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Dancer, error) {
	out := make(map[string]domain.Dancer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE id IN ("+strings.Join(placeholders, ", ")+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		entity, err := scanDancer(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[entity.ID] = entity
	}
	return out, rows.Err()
}

// Save persists a Dancer to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Dancer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dancer (id, full_name, phone_number, notes, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   full_name=excluded.full_name, phone_number=excluded.phone_number,
		   notes=excluded.notes, active=excluded.active`,
		entity.ID, entity.FullName, entity.PhoneNumber, entity.Notes, entity.Active,
		storage.FormatTime(entity.CreatedAt))
	return err
}

// List retrieves Dancers based on the filter, ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Dancer, error) {
	query := selectColumns + " WHERE 1=1"
	var args []any
	if filter.ActiveOnly {
		query += " AND active = 1"
	}
	if filter.Search != "" {
		query += " AND full_name LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY full_name ASC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Dancer
	for rows.Next() {
		entity, err := scanDancer(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanDancer(scan func(dest ...any) error) (domain.Dancer, error) {
	var entity domain.Dancer
	var createdAt string
	if err := scan(&entity.ID, &entity.FullName, &entity.PhoneNumber, &entity.Notes, &entity.Active, &createdAt); err != nil {
		return domain.Dancer{}, err
	}
	ts, err := storage.ParseTime(createdAt)
	if err != nil {
		return domain.Dancer{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	entity.CreatedAt = ts
	return entity, nil
}
