package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryDatabase opens a private in-memory database, used by tests and --no-history sessions
const MemoryDatabase = ":memory:"

// NewDatabase creates a new SQLite database with the specified path and applies the schema
func NewDatabase(dbPath string) (*sql.DB, error) {
	if dbPath != MemoryDatabase {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: is a separate database
	if dbPath == MemoryDatabase {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// ensureSchema creates the database schema if it doesn't exist
func ensureSchema(db *sql.DB) error {
	schema := `
-- One row per engine event
CREATE TABLE IF NOT EXISTS playback_events (
    id         INTEGER PRIMARY KEY,
    timestamp  INTEGER NOT NULL,
    session_id TEXT    NOT NULL,
    kind       TEXT    NOT NULL,
    channel    TEXT    NOT NULL DEFAULT '',
    source     TEXT    NOT NULL DEFAULT '',
    volume     INTEGER NOT NULL DEFAULT 0 CHECK (volume BETWEEN 0 AND 100),
    error      TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON playback_events(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_events_session ON playback_events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_source ON playback_events(source);
CREATE INDEX IF NOT EXISTS idx_events_failed ON playback_events(source) WHERE kind = 'load_failed';
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
