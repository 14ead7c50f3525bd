// Package journal provides SQLite-backed persistence of active
// waypoints and rebuild history.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS waypoints (
	doc_path       TEXT PRIMARY KEY,
	container_path TEXT NOT NULL DEFAULT '',
	checksum       TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rebuilds (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_path       TEXT NOT NULL,
	container_path TEXT NOT NULL,
	cause          TEXT NOT NULL,
	checksum       TEXT NOT NULL DEFAULT '',
	rebuilt_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rebuilds_doc ON rebuilds(doc_path);
`

// Recorder is the journal surface the engine and read APIs depend on.
type Recorder interface {
	RecordRebuild(r RebuildRow) error
	RemoveWaypoint(docPath string) error
	Waypoints() ([]WaypointRow, error)
	Rebuilds(limit int) ([]RebuildRow, error)
	Close() error
}

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
