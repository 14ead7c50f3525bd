package journal

import (
	"fmt"
	"time"
)

// Rebuild causes.
const (
	CauseBatch   = "batch"
	CauseFlag    = "flag"
	CauseManual  = "manual"
	CauseStartup = "startup"
)

// WaypointRow represents an active waypoint document.
type WaypointRow struct {
	DocPath       string
	ContainerPath string
	Checksum      string
	UpdatedAt     time.Time
}

// RebuildRow represents one rebuild of a waypoint block.
type RebuildRow struct {
	ID            int64
	DocPath       string
	ContainerPath string
	Cause         string
	Checksum      string
	RebuiltAt     time.Time
}

// RecordRebuild appends a rebuild entry and upserts the active waypoint
// row within a transaction.
func (db *DB) RecordRebuild(r RebuildRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := r.RebuiltAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO rebuilds (doc_path, container_path, cause, checksum, rebuilt_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.DocPath, r.ContainerPath, r.Cause, r.Checksum, now)
	if err != nil {
		return fmt.Errorf("journal: insert rebuild: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO waypoints (doc_path, container_path, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(doc_path) DO UPDATE SET
			container_path = excluded.container_path,
			checksum       = excluded.checksum,
			updated_at     = excluded.updated_at
	`, r.DocPath, r.ContainerPath, r.Checksum, now)
	if err != nil {
		return fmt.Errorf("journal: upsert waypoint: %w", err)
	}

	return tx.Commit()
}

// RemoveWaypoint drops the active waypoint row for a document that no
// longer exists or no longer carries a marker. History is kept.
func (db *DB) RemoveWaypoint(docPath string) error {
	if _, err := db.conn.Exec(`DELETE FROM waypoints WHERE doc_path = ?`, docPath); err != nil {
		return fmt.Errorf("journal: remove waypoint: %w", err)
	}
	return nil
}

// Waypoints returns all active waypoints ordered by document path.
func (db *DB) Waypoints() ([]WaypointRow, error) {
	rows, err := db.conn.Query(`
		SELECT doc_path, container_path, checksum, updated_at
		FROM waypoints ORDER BY doc_path
	`)
	if err != nil {
		return nil, fmt.Errorf("journal: list waypoints: %w", err)
	}
	defer rows.Close()

	var out []WaypointRow
	for rows.Next() {
		var w WaypointRow
		if err := rows.Scan(&w.DocPath, &w.ContainerPath, &w.Checksum, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Rebuilds returns the most recent rebuild entries, newest first.
func (db *DB) Rebuilds(limit int) ([]RebuildRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, doc_path, container_path, cause, checksum, rebuilt_at
		FROM rebuilds ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list rebuilds: %w", err)
	}
	defer rows.Close()

	var out []RebuildRow
	for rows.Next() {
		var r RebuildRow
		if err := rows.Scan(&r.ID, &r.DocPath, &r.ContainerPath, &r.Cause, &r.Checksum, &r.RebuiltAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
