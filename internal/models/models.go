// Package models defines the summary types shared by the catalog, the
// service layer and the transports.
package models

import "time"

// FileMetadata describes one file found by a storage adapter.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ManifestSummary is a catalog row for one converted model.json.
type ManifestSummary struct {
	Path              string    `json:"path"`
	Name              string    `json:"name"`
	Checksum          string    `json:"checksum"`
	EntityCount       int       `json:"entity_count"`
	RelationshipCount int       `json:"relationship_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EntitySummary is a catalog row for one declared entity.
type EntitySummary struct {
	Manifest       string   `json:"manifest"`
	Name           string   `json:"name"`
	Path           string   `json:"path"`
	Description    string   `json:"description,omitempty"`
	Partitions     int      `json:"partitions"`
	Attributes     int      `json:"attributes"`
	AttributeNames []string `json:"attribute_names,omitempty"`
}

// SearchHit is one entity matched by a catalog search.
type SearchHit struct {
	Manifest string `json:"manifest"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Snippet  string `json:"snippet"`
}

// RelationshipEdge is a directed attribute-to-attribute link between
// entities.
type RelationshipEdge struct {
	Manifest      string `json:"manifest"`
	Name          string `json:"name,omitempty"`
	FromEntity    string `json:"from_entity"`
	FromAttribute string `json:"from_attribute"`
	ToEntity      string `json:"to_entity"`
	ToAttribute   string `json:"to_attribute"`
}
