// Package cachedb implements the Persistent Cache (component B,
// spec.md §4.2): a file-backed relational table that survives across
// invocations. Grounded on modernc.org/sqlite, the pure-Go
// database/sql driver already present in the bsc-erigon go.mod in the
// reference corpus — no cgo, so the transform stays a plain `go build`
// the way a build-time source transformer needs to.
//
// The schema itself (images/metadata, unique(url, cache_key)) and the
// insert-then-update transactional flush are carried over from the
// Rust original's store.rs/get_placeholder.rs, generalized from a
// single-table, no-version design to the two-table schema spec.md §3
// specifies.
package cachedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/akzhy/nocojs/internal/store"
)

const (
	// FileName is the cache database's fixed name within cache_file_dir.
	FileName = "cache.db"
	// SchemaVersion is written to metadata on first open (spec.md §4.2).
	SchemaVersion = "1.0.0"
)

// DB wraps the persistent SQLite-backed cache.
type DB struct {
	conn *sql.DB
}

// Open creates dir if needed and opens (or creates) <dir>/cache.db,
// running idempotent schema-creation statements and ensuring a schema
// version row exists. Per spec.md §4.2/§7, failure here is non-fatal to
// the caller: Open returns an error, and callers are expected to log it
// and continue with an empty in-memory Store.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("nocojs: failed to create cache directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("nocojs: failed to open cache database: %w", err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite connections aren't safely shared for writes

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("nocojs: failed to create cache schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			placeholder TEXT NOT NULL,
			preview_type TEXT NOT NULL DEFAULT 'normal',
			cache_key TEXT NOT NULL,
			original_width INTEGER NOT NULL,
			original_height INTEGER NOT NULL,
			UNIQUE(url, cache_key)
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	var version string
	err := conn.QueryRow(`SELECT value FROM metadata WHERE key = 'version'`).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = conn.Exec(`INSERT INTO metadata (key, value) VALUES ('version', ?)`, SchemaVersion)
	}
	return err
}

// Close releases the underlying database handle.
func (d *DB) Close() error { return d.conn.Close() }

// SelectAll streams every persisted record, for loading into a fresh
// Cache Store at the start of a transform (spec.md §4.2 "select_all").
func (d *DB) SelectAll() ([]store.PlaceholderRecord, error) {
	rows, err := d.conn.Query(
		`SELECT id, url, placeholder, preview_type, cache_key, original_width, original_height FROM images`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.PlaceholderRecord
	for rows.Next() {
		var r store.PlaceholderRecord
		if err := rows.Scan(&r.ID, &r.URL, &r.Placeholder, &r.PreviewType, &r.CacheKey, &r.OriginalWidth, &r.OriginalHeight); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Flush executes every insert then every update inside a single
// transaction; commit is all-or-nothing (spec.md §4.2). An INSERT that
// collides on (url, cache_key) is a programmer-integrity error per §7 —
// the dirty partition guarantees this cannot happen under normal
// operation, so Flush surfaces it rather than swallowing it.
func (d *DB) Flush(inserts, updates []store.PlaceholderRecord) error {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	insertStmt, err := tx.Prepare(
		`INSERT INTO images (url, placeholder, preview_type, cache_key, original_width, original_height) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer insertStmt.Close()

	for _, r := range inserts {
		if _, err := insertStmt.Exec(r.URL, r.Placeholder, r.PreviewType, r.CacheKey, r.OriginalWidth, r.OriginalHeight); err != nil {
			return fmt.Errorf("nocojs: insert collided on (url, cache_key) for %q: %w", r.URL, err)
		}
	}

	updateStmt, err := tx.Prepare(
		`UPDATE images SET placeholder = ?, preview_type = ?, original_width = ?, original_height = ? WHERE id = ?`,
	)
	if err != nil {
		return err
	}
	defer updateStmt.Close()

	for _, r := range updates {
		if _, err := updateStmt.Exec(r.Placeholder, r.PreviewType, r.OriginalWidth, r.OriginalHeight, r.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
