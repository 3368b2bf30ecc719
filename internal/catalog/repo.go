package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/models"
)

// UpsertManifest inserts or replaces a manifest row together with its
// entities and relationships within a transaction. The entity and
// relationship counts are taken from the slices.
func (db *DB) UpsertManifest(m models.ManifestSummary, entities []models.EntitySummary, rels []models.RelationshipEdge) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO manifests (path, name, checksum, entity_count, relationship_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name               = excluded.name,
			checksum           = excluded.checksum,
			entity_count       = excluded.entity_count,
			relationship_count = excluded.relationship_count,
			updated_at         = excluded.updated_at
	`, m.Path, m.Name, m.Checksum, len(entities), len(rels), m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert manifest: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM entities WHERE manifest = ?`, m.Path)
	_, _ = tx.Exec(`DELETE FROM relationships WHERE manifest = ?`, m.Path)
	ftsDelete(tx, m.Path)

	if len(entities) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO entities (manifest, name, path, description, partitions, attributes, attribute_names) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare entity insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entities {
			names := strings.Join(e.AttributeNames, "\n")
			if _, err := stmt.Exec(m.Path, e.Name, e.Path, e.Description, e.Partitions, e.Attributes, names); err != nil {
				return fmt.Errorf("catalog: insert entity: %w", err)
			}
			if err := ftsUpsert(tx, m.Path, e.Path, e.Name, e.Description, e.AttributeNames); err != nil {
				return err
			}
		}
	}

	if len(rels) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO relationships (manifest, name, from_entity, from_attribute, to_entity, to_attribute) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare relationship insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rels {
			if _, err := stmt.Exec(m.Path, r.Name, r.FromEntity, r.FromAttribute, r.ToEntity, r.ToAttribute); err != nil {
				return fmt.Errorf("catalog: insert relationship: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteManifest removes a manifest; its entities and relationships go with
// it.
func (db *DB) DeleteManifest(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM manifests WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("catalog: delete manifest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("catalog: manifest %s: %w", path, apperr.ErrNotFound)
	}
	ftsDelete(tx, path)
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a manifest, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM manifests WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every catalogued manifest keyed by
// path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM manifests`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListManifests returns every manifest ordered by path.
func (db *DB) ListManifests() ([]models.ManifestSummary, error) {
	rows, err := db.conn.Query(`
		SELECT path, name, checksum, entity_count, relationship_count, updated_at
		FROM manifests ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list manifests: %w", err)
	}
	defer rows.Close()

	out := []models.ManifestSummary{}
	for rows.Next() {
		var m models.ManifestSummary
		if err := rows.Scan(&m.Path, &m.Name, &m.Checksum, &m.EntityCount, &m.RelationshipCount, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Entities returns the entities of manifest, or of every manifest when it is
// empty, ordered by manifest then name.
func (db *DB) Entities(manifest string) ([]models.EntitySummary, error) {
	q := `SELECT manifest, name, path, description, partitions, attributes, attribute_names FROM entities`
	var args []any
	if manifest != "" {
		q += ` WHERE manifest = ?`
		args = append(args, manifest)
	}
	q += ` ORDER BY manifest, name, path`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: entities: %w", err)
	}
	defer rows.Close()

	out := []models.EntitySummary{}
	for rows.Next() {
		var e models.EntitySummary
		var names string
		if err := rows.Scan(&e.Manifest, &e.Name, &e.Path, &e.Description, &e.Partitions, &e.Attributes, &names); err != nil {
			return nil, err
		}
		if names != "" {
			e.AttributeNames = strings.Split(names, "\n")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Relationships returns the relationships touching entity on either end, or
// all of them when entity is empty. Entities are matched by name.
func (db *DB) Relationships(entity string) ([]models.RelationshipEdge, error) {
	q := `SELECT manifest, name, from_entity, from_attribute, to_entity, to_attribute FROM relationships`
	var args []any
	if entity != "" {
		q += ` WHERE from_entity = ? OR to_entity = ?`
		args = append(args, entity, entity)
	}
	q += ` ORDER BY manifest, rowid`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: relationships: %w", err)
	}
	defer rows.Close()

	out := []models.RelationshipEdge{}
	for rows.Next() {
		var r models.RelationshipEdge
		if err := rows.Scan(&r.Manifest, &r.Name, &r.FromEntity, &r.FromAttribute, &r.ToEntity, &r.ToAttribute); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
