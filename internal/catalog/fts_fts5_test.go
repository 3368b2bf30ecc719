//go:build sqlite_fts5

package catalog

import (
	"strings"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entities_fts`).Scan(&count); err != nil {
		t.Fatalf("entities_fts table missing: %v", err)
	}
}

func TestFTS5_SnippetMarksMatch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))

	hits, err := db.SearchEntities("email", 10)
	if err != nil {
		t.Fatalf("SearchEntities: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if !strings.Contains(hits[0].Snippet, "<b>email</b>") {
		t.Errorf("snippet = %q", hits[0].Snippet)
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	m, ents, rels := salesManifest("1")
	_ = db.UpsertManifest(m, ents, rels)

	ents[1].AttributeNames = []string{"id", "phone"}
	m.Checksum = "2"
	_ = db.UpsertManifest(m, ents, rels)

	if hits, _ := db.SearchEntities("email", 10); len(hits) != 0 {
		t.Errorf("old attribute still indexed: %+v", hits)
	}
	if hits, _ := db.SearchEntities("phone", 10); len(hits) != 1 {
		t.Errorf("new attribute not indexed: %+v", hits)
	}
}
