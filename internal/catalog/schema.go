// Package catalog records converted manifests, their entities and their
// relationships in SQLite.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS manifests (
	path               TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	checksum           TEXT NOT NULL DEFAULT '',
	entity_count       INTEGER NOT NULL DEFAULT 0,
	relationship_count INTEGER NOT NULL DEFAULT 0,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entities (
	manifest        TEXT NOT NULL REFERENCES manifests(path) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	path            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	partitions      INTEGER NOT NULL DEFAULT 0,
	attributes      INTEGER NOT NULL DEFAULT 0,
	attribute_names TEXT NOT NULL DEFAULT '',
	UNIQUE(manifest, path)
);

CREATE TABLE IF NOT EXISTS relationships (
	manifest       TEXT NOT NULL REFERENCES manifests(path) ON DELETE CASCADE,
	name           TEXT NOT NULL DEFAULT '',
	from_entity    TEXT NOT NULL,
	from_attribute TEXT NOT NULL,
	to_entity      TEXT NOT NULL,
	to_attribute   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_entity);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_entity);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
