package api

import (
	"encoding/json"

	"github.com/starford/cdmbridge/internal/catalog"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/models"
)

// ConvertRequest is the request body of the conversion endpoints.
type ConvertRequest struct {
	Folder string          `json:"folder" example:"local:/sales/" validate:"required"`
	Model  json.RawMessage `json:"model" validate:"required" swaggertype:"object"`
	// Write stores the exported documents next to the model.
	Write bool `json:"write,omitempty"`
}

// RoundTripResponse carries the re-emitted model and the diagnostics
// produced while converting it.
type RoundTripResponse struct {
	Model       json.RawMessage `json:"model" validate:"required" swaggertype:"object"`
	Diagnostics []logger.Entry  `json:"diagnostics" validate:"required"`
}

// ManifestListResponse wraps catalogued manifests.
type ManifestListResponse struct {
	Manifests []models.ManifestSummary `json:"manifests" validate:"required"`
}

// EntityListResponse wraps catalogued entities.
type EntityListResponse struct {
	Entities []models.EntitySummary `json:"entities" validate:"required"`
}

// RelationshipListResponse wraps catalogued relationships.
type RelationshipListResponse struct {
	Relationships []models.RelationshipEdge `json:"relationships" validate:"required"`
}

// GraphResponse wraps the entity relationship graph.
type GraphResponse struct {
	Nodes []catalog.GraphNode `json:"nodes" validate:"required"`
	Links []catalog.GraphLink `json:"links" validate:"required"`
}

// SearchResponse wraps entity search hits.
type SearchResponse struct {
	Results []models.SearchHit `json:"results" validate:"required"`
}
