//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"

	"github.com/starford/cdmbridge/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the entities table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	// Entity rows already carry the searchable columns.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchEntities performs a LIKE-based search over entity names,
// descriptions and attribute names (fallback when FTS5 is not compiled in).
func (db *DB) SearchEntities(query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT manifest, name, path, substr(description, 1, 200)
		FROM entities
		WHERE name LIKE ? OR description LIKE ? OR attribute_names LIKE ?
		ORDER BY manifest, name
		LIMIT ?
	`, like, like, like, limit)
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
