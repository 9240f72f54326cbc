package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// migration upgrades the schema by one version inside a transaction.
type migration func(tx *sql.Tx) error

// migrations is the ordered chain; index i upgrades version i to i+1.
var migrations = []migration{
	migrateBaseline,
	migrateSubmissions,
}

// LatestSchemaVersion returns the version a fully migrated database reports.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion returns the current schema version (0 for a fresh database).
// PRE: db is a valid database connection
// POST: Returns the stored version
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB applies every pending migration in order. When dbPath names a
// file, a copy of the database is taken before the first pending migration.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, dbPath string) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}
	if current > 0 && isFilePath(dbPath) {
		if err := backupDB(db, dbPath, current); err != nil {
			return err
		}
	}
	for v := current; v < LatestSchemaVersion(); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, v+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", v+1, err)
		}
		slog.Info("schema_migrated", "version", v+1)
	}
	return nil
}

func isFilePath(dbPath string) bool {
	return dbPath != "" && !strings.HasPrefix(dbPath, ":memory:") && !strings.HasPrefix(dbPath, "file::memory:")
}

func backupDB(db *sql.DB, dbPath string, version int) error {
	target := fmt.Sprintf("%s.bak-v%d", dbPath, version)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if _, err := db.Exec(`VACUUM INTO ?`, target); err != nil {
		return fmt.Errorf("backup before migration: %w", err)
	}
	slog.Info("schema_backup_written", "path", target)
	return nil
}

func migrateBaseline(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS dancer (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		phone_number TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS batch (
		id TEXT PRIMARY KEY,
		batch_name TEXT NOT NULL,
		studio_name TEXT NOT NULL DEFAULT '',
		schedule_days TEXT NOT NULL DEFAULT '',
		time_slot TEXT NOT NULL DEFAULT '',
		instructor_ids TEXT NOT NULL DEFAULT '[]',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS session (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		date TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (batch_id, date)
	);

	CREATE TABLE IF NOT EXISTS pass (
		id TEXT PRIMARY KEY,
		dancer_id TEXT NOT NULL,
		batch_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		total_classes INTEGER,
		remaining_classes INTEGER,
		status TEXT,
		valid_date TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		created_by TEXT NOT NULL,
		CHECK (remaining_classes IS NULL OR (remaining_classes >= 0 AND remaining_classes <= total_classes))
	);
	CREATE INDEX IF NOT EXISTS idx_pass_dancer_batch ON pass (dancer_id, batch_id, created_at);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		dancer_id TEXT NOT NULL,
		status TEXT NOT NULL,
		marked_by TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		pass_id TEXT,
		UNIQUE (session_id, dancer_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		monthly_expiry_warning_days INTEGER NOT NULL,
		class_pack_expiry_warning_remaining INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action_type TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event (timestamp);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	`)
	return err
}

func migrateSubmissions(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS attendance_submission (
		idempotency_key TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`)
	return err
}

// TimeLayout is the format every timestamp column is written in. The fixed
// width fraction keeps lexicographic order equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t for storage in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullableTime renders t for storage, or NULL when t is zero.
func NullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime reads a stored timestamp, accepting the legacy layouts older rows used.
func ParseTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

// ParseNullTime reads an optional stored timestamp.
func ParseNullTime(value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	return ParseTime(value.String)
}
