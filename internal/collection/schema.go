// Package collection reads card, note and tag records from an Anki-compatible
// SQLite collection file.
package collection

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// coreSchemaSQL is the subset of the Anki collection schema the engine reads.
// Existing collections already carry these tables with more columns.
const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id   INTEGER PRIMARY KEY,
	guid TEXT    NOT NULL DEFAULT '',
	mid  INTEGER NOT NULL DEFAULT 0,
	mod  INTEGER NOT NULL DEFAULT 0,
	usn  INTEGER NOT NULL DEFAULT 0,
	tags TEXT    NOT NULL DEFAULT '',
	flds TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cards (
	id    INTEGER PRIMARY KEY,
	nid   INTEGER NOT NULL,
	did   INTEGER NOT NULL DEFAULT 1,
	ord   INTEGER NOT NULL DEFAULT 0,
	mod   INTEGER NOT NULL DEFAULT 0,
	usn   INTEGER NOT NULL DEFAULT 0,
	type  INTEGER NOT NULL DEFAULT 0,
	queue INTEGER NOT NULL DEFAULT 0,
	ivl   INTEGER NOT NULL DEFAULT 0,
	data  TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tags (
	tag       TEXT    NOT NULL PRIMARY KEY COLLATE NOCASE,
	usn       INTEGER NOT NULL DEFAULT 0,
	collapsed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS ix_cards_nid ON cards(nid);
`

// DB wraps a sql.DB with collection queries.
type DB struct {
	conn     *sql.DB
	path     string
	readOnly bool
}

// Open opens the collection file at path. A read-only collection is opened
// with mode=ro and is never migrated; a writable one is created if missing
// and gets the core schema applied.
func Open(path string, readOnly bool) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	if readOnly {
		dsn = "file:" + path + "?mode=ro&_busy_timeout=5000"
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("collection: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: ping: %w", err)
	}
	if !readOnly {
		if _, err := conn.Exec(coreSchemaSQL); err != nil {
			conn.Close()
			return nil, fmt.Errorf("collection: apply schema: %w", err)
		}
	}
	return &DB{conn: conn, path: path, readOnly: readOnly}, nil
}

// Path returns the collection file path.
func (db *DB) Path() string {
	return db.path
}

// ReadOnly reports whether the collection was opened read-only.
func (db *DB) ReadOnly() bool {
	return db.readOnly
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
