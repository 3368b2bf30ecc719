package catalog

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "cdmbridge-catalog-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func salesManifest(checksum string) (models.ManifestSummary, []models.EntitySummary, []models.RelationshipEdge) {
	m := models.ManifestSummary{Path: "local:/sales/model.json", Name: "Sales", Checksum: checksum, UpdatedAt: time.Now().UTC()}
	ents := []models.EntitySummary{
		{Name: "Order", Path: "local:/sales/Order.cdm.json/Order", Attributes: 2, AttributeNames: []string{"orderId", "customerId"}},
		{Name: "Customer", Path: "local:/sales/Customer.cdm.json/Customer", Description: "People who buy things",
			Partitions: 1, Attributes: 3, AttributeNames: []string{"id", "email", "name"}},
	}
	rels := []models.RelationshipEdge{
		{Name: "order_customer", FromEntity: "Order", FromAttribute: "customerId", ToEntity: "Customer", ToAttribute: "id"},
	}
	return m, ents, rels
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"manifests", "entities", "relationships"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndList(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertManifest(salesManifest("abc")); err != nil {
		t.Fatalf("UpsertManifest: %v", err)
	}

	ms, err := db.ListManifests()
	if err != nil {
		t.Fatalf("ListManifests: %v", err)
	}
	if len(ms) != 1 || ms[0].EntityCount != 2 || ms[0].RelationshipCount != 1 || ms[0].Name != "Sales" {
		t.Fatalf("manifests = %+v", ms)
	}

	ents, err := db.Entities("local:/sales/model.json")
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(ents) != 2 || ents[0].Name != "Customer" || ents[1].Name != "Order" {
		t.Errorf("entities = %+v, want Customer then Order", ents)
	}
	if ents[0].Manifest != "local:/sales/model.json" || ents[0].Partitions != 1 {
		t.Errorf("entity row = %+v", ents[0])
	}

	cs, err := db.GetChecksum("local:/sales/model.json")
	if err != nil || cs != "abc" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
}

func TestUpsertReplacesChildren(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))

	m, ents, _ := salesManifest("2")
	if err := db.UpsertManifest(m, ents[:1], nil); err != nil {
		t.Fatalf("UpsertManifest: %v", err)
	}
	ents, _ = db.Entities("")
	if len(ents) != 1 || ents[0].Name != "Order" {
		t.Errorf("entities = %+v, want only Order", ents)
	}
	rels, _ := db.Relationships("")
	if len(rels) != 0 {
		t.Errorf("old relationships should be removed on upsert, got %+v", rels)
	}
	all, _ := db.AllChecksums()
	if all[m.Path] != "2" {
		t.Errorf("checksums = %v", all)
	}
}

func TestRelationshipsByEntity(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))

	for _, name := range []string{"Order", "Customer"} {
		rels, err := db.Relationships(name)
		if err != nil {
			t.Fatalf("Relationships: %v", err)
		}
		if len(rels) != 1 || rels[0].Name != "order_customer" {
			t.Errorf("Relationships(%q) = %+v", name, rels)
		}
	}
	rels, _ := db.Relationships("Invoice")
	if len(rels) != 0 {
		t.Errorf("expected none for Invoice, got %+v", rels)
	}
}

func TestDeleteManifestCascades(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))

	if err := db.DeleteManifest("local:/sales/model.json"); err != nil {
		t.Fatalf("DeleteManifest: %v", err)
	}
	ents, _ := db.Entities("")
	rels, _ := db.Relationships("")
	if len(ents) != 0 || len(rels) != 0 {
		t.Errorf("children left after delete: %d entities, %d relationships", len(ents), len(rels))
	}
	cs, _ := db.GetChecksum("local:/sales/model.json")
	if cs != "" {
		t.Errorf("deleted manifest still has checksum %q", cs)
	}
}

func TestDeleteManifest_NotFound(t *testing.T) {
	db := testDB(t)
	err := db.DeleteManifest("local:/missing/model.json")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	m, ents, rels := salesManifest("1")
	rels = append(rels, models.RelationshipEdge{FromEntity: "Order", FromAttribute: "x", ToEntity: "Ghost", ToAttribute: "y"})
	_ = db.UpsertManifest(m, ents, rels)

	nodes, links, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("nodes = %+v", nodes)
	}
	if len(links) != 1 {
		t.Fatalf("links = %+v, want only the resolvable one", links)
	}
	if links[0].Source != "local:/sales/model.json#Order" || links[0].Target != "local:/sales/model.json#Customer" {
		t.Errorf("link = %+v", links[0])
	}
}

func TestEntitiesKeepSearchColumns(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))

	ents, err := db.Entities("local:/sales/model.json")
	if err != nil {
		t.Fatal(err)
	}
	// Ordered by name: Customer, Order.
	if ents[0].Description != "People who buy things" {
		t.Errorf("description = %q", ents[0].Description)
	}
	if len(ents[0].AttributeNames) != 3 || ents[0].AttributeNames[1] != "email" {
		t.Errorf("attribute names = %v", ents[0].AttributeNames)
	}
}

func TestSearchEntities(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))

	tests := []struct {
		query string
		want  string
	}{
		{"Order", "Order"},
		{"email", "Customer"},
		{"buy", "Customer"},
		{"orderId", "Order"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hits, err := db.SearchEntities(tt.query, 10)
			if err != nil {
				t.Fatalf("SearchEntities: %v", err)
			}
			if len(hits) != 1 || hits[0].Name != tt.want {
				t.Errorf("hits = %+v, want %s", hits, tt.want)
			}
		})
	}

	hits, err := db.SearchEntities("invoice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("hits = %#v, want empty slice", hits)
	}
}

func TestSearchEntities_DeletedManifest(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertManifest(salesManifest("1"))
	_ = db.DeleteManifest("local:/sales/model.json")

	hits, _ := db.SearchEntities("Customer", 10)
	if len(hits) != 0 {
		t.Errorf("deleted manifest still searchable: %+v", hits)
	}
}
