//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/cdmbridge/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
			manifest UNINDEXED,
			path UNINDEXED,
			name,
			description,
			attributes,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, manifest, path, name, description string, attributes []string) error {
	_, _ = tx.Exec(`DELETE FROM entities_fts WHERE manifest = ? AND path = ?`, manifest, path)
	_, err := tx.Exec(`INSERT INTO entities_fts (manifest, path, name, description, attributes) VALUES (?, ?, ?, ?, ?)`,
		manifest, path, name, description, strings.Join(attributes, " "))
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, manifest string) {
	_, _ = tx.Exec(`DELETE FROM entities_fts WHERE manifest = ?`, manifest)
}

// SearchEntities performs an FTS5 full-text search over entity names,
// descriptions and attribute names and returns matches with snippets.
func (db *DB) SearchEntities(query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT manifest,
		       name,
		       path,
		       snippet(entities_fts, -1, '<b>', '</b>', '...', 16)
		FROM entities_fts
		WHERE entities_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	out := []models.SearchHit{}
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.Manifest, &h.Name, &h.Path, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
