package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cdmbridge/internal/bridge"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// notify, if non-nil, is told about catalog changes made through the API.
func NewRouter(svc *bridge.Service, authEnabled bool, token string, sseHandler http.Handler, notify func(kind, path string)) chi.Router {
	h := NewHandler(svc, notify)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Conversion.
	r.Post("/convert/roundtrip", h.RoundTrip)
	r.Post("/convert/cdm-folder", h.ExportCdmFolder)

	// Stored documents.
	r.Get("/documents/*", h.Inspect)

	// Catalog.
	r.Post("/sync", h.Sync)
	r.Get("/manifests", h.Manifests)
	r.Get("/entities", h.Entities)
	r.Get("/relationships", h.Relationships)
	r.Get("/graph", h.Graph)
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
