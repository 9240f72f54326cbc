package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"regulars/internal/adapters/storage"
	domain "regulars/internal/domain/audit"
)

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event has an ID and timestamp
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	metadata, err := event.MetadataJSON()
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_event (id, timestamp, actor_id, action_type, entity_type, entity_id, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, storage.FormatTime(event.Timestamp), event.ActorID, string(event.Action),
		event.EntityType, event.EntityID, metadata)
	return err
}

// List returns one page of matching events.
// PRE: limit > 0, offset >= 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error) {
	where, args := filterClause(filter)
	query := `SELECT id, timestamp, actor_id, action_type, entity_type, entity_id, metadata FROM audit_event` +
		where + ` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of events matching filter.
func (s *SQLiteStore) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_event`+where, args...).Scan(&n)
	return n, err
}

func filterClause(filter Filter) (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if filter.ActorID != nil {
		clause += " AND actor_id = ?"
		args = append(args, *filter.ActorID)
	}
	if filter.Action != nil {
		clause += " AND action_type = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.EntityType != nil {
		clause += " AND entity_type = ?"
		args = append(args, *filter.EntityType)
	}
	if filter.FromDate != nil {
		clause += " AND timestamp >= ?"
		args = append(args, storage.FormatTime(*filter.FromDate))
	}
	if filter.ToDate != nil {
		clause += " AND timestamp <= ?"
		args = append(args, storage.FormatTime(*filter.ToDate))
	}
	return clause, args
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var timestamp, action, metadata string
	if err := scan(&e.ID, &timestamp, &e.ActorID, &action, &e.EntityType, &e.EntityID, &metadata); err != nil {
		return domain.Event{}, err
	}
	ts, err := storage.ParseTime(timestamp)
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	e.Timestamp = ts
	e.Action = domain.Action(action)
	e.Metadata = map[string]any{}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
			return domain.Event{}, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return e, nil
}
