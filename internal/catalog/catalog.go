package catalog

import "github.com/starford/cdmbridge/internal/models"

// Catalog defines the catalog operations used by the service layer.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertManifest(m models.ManifestSummary, entities []models.EntitySummary, rels []models.RelationshipEdge) error
	DeleteManifest(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListManifests() ([]models.ManifestSummary, error)
	Entities(manifest string) ([]models.EntitySummary, error)
	Relationships(entity string) ([]models.RelationshipEdge, error)
	Graph() ([]GraphNode, []GraphLink, error)
	SearchEntities(query string, limit int) ([]models.SearchHit, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
