package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/bridge"
	"github.com/starford/cdmbridge/internal/logger"
)

const maxBody = 32 << 20

// Handler holds API route handlers.
type Handler struct {
	svc    *bridge.Service
	notify func(kind, path string)
}

// NewHandler creates a new Handler. notify, if non-nil, is called after a
// sync changes the catalog.
func NewHandler(svc *bridge.Service, notify func(kind, path string)) *Handler {
	return &Handler{svc: svc, notify: notify}
}

// documentPath extracts the corpus path from the URL (everything after the
// route prefix). Supports encoded slashes and colons.
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func decodeConvertRequest(w http.ResponseWriter, r *http.Request) (*ConvertRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	if len(req.Model) == 0 || req.Folder == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder and model are required"))
		return nil, false
	}
	return &req, true
}

func nonNilEntries(e []logger.Entry) []logger.Entry {
	if e == nil {
		return []logger.Entry{}
	}
	return e
}

// RoundTrip handles POST /api/convert/roundtrip.
//
//	@Summary		Read a model.json into the object model and write it back
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Model and its folder"
//	@Success		200		{object}	RoundTripResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/roundtrip [post]
func (h *Handler) RoundTrip(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeConvertRequest(w, r)
	if !ok {
		return
	}
	out, diags, err := h.svc.RoundTripModelJSON(r.Context(), req.Model, req.Folder)
	if err != nil {
		writeServiceError(w, "roundtrip", err)
		return
	}
	writeJSON(w, http.StatusOK, RoundTripResponse{Model: out, Diagnostics: nonNilEntries(diags)})
}

// ExportCdmFolder handles POST /api/convert/cdm-folder.
//
//	@Summary		Render a model.json as CDM folder documents
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Model, its folder and whether to write"
//	@Success		200		{object}	bridge.Export
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/cdm-folder [post]
func (h *Handler) ExportCdmFolder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeConvertRequest(w, r)
	if !ok {
		return
	}
	exp, err := h.svc.ExportCdmFolder(r.Context(), req.Model, req.Folder, req.Write)
	if err != nil {
		writeServiceError(w, "export", err)
		return
	}
	exp.Diagnostics = nonNilEntries(exp.Diagnostics)
	writeJSON(w, http.StatusOK, exp)
}

// Sync handles POST /api/sync.
//
//	@Summary		Bring the catalog up to date with storage
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	bridge.SyncReport
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Sync(r.Context())
	if err != nil {
		writeServiceError(w, "sync", err)
		return
	}
	if h.notify != nil && (report.Catalogued > 0 || report.Removed > 0) {
		h.notify("updated", "")
	}
	writeJSON(w, http.StatusOK, report)
}

// Inspect handles GET /api/documents/*. With convert set, a "*.cdm.json"
// document is loaded into the session corpus and written back instead.
//
//	@Summary		Report the format and declared names of a stored document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Corpus path"
//	@Param			convert	query		bool	false	"Load a CDM folder document"
//	@Success		200		{object}	parser.Result
//	@Failure		404		{object}	errResponse
//	@Failure		501		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) Inspect(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if cast.ToBool(r.URL.Query().Get("convert")) {
		doc, err := h.svc.LoadCdmFolderDocument(r.Context(), path)
		if err != nil {
			writeServiceError(w, "load document", err)
			return
		}
		doc.Diagnostics = nonNilEntries(doc.Diagnostics)
		writeJSON(w, http.StatusOK, doc)
		return
	}
	res, err := h.svc.Inspect(r.Context(), path)
	if err != nil {
		writeServiceError(w, "inspect", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Manifests handles GET /api/manifests.
//
//	@Summary		List catalogued manifests
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	ManifestListResponse
//	@Security		BearerAuth
//	@Router			/manifests [get]
func (h *Handler) Manifests(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Manifests(r.Context())
	if err != nil {
		writeServiceError(w, "list manifests", err)
		return
	}
	writeJSON(w, http.StatusOK, ManifestListResponse{Manifests: items})
}

// Entities handles GET /api/entities.
//
//	@Summary		List catalogued entities
//	@Tags			catalog
//	@Produce		json
//	@Param			manifest	query		string	false	"Manifest corpus path"
//	@Success		200			{object}	EntityListResponse
//	@Security		BearerAuth
//	@Router			/entities [get]
func (h *Handler) Entities(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Entities(r.Context(), r.URL.Query().Get("manifest"))
	if err != nil {
		writeServiceError(w, "list entities", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityListResponse{Entities: items})
}

// Relationships handles GET /api/relationships.
//
//	@Summary		List catalogued relationships
//	@Tags			catalog
//	@Produce		json
//	@Param			entity	query		string	false	"Entity name on either end"
//	@Success		200		{object}	RelationshipListResponse
//	@Security		BearerAuth
//	@Router			/relationships [get]
func (h *Handler) Relationships(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Relationships(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		writeServiceError(w, "list relationships", err)
		return
	}
	writeJSON(w, http.StatusOK, RelationshipListResponse{Relationships: items})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over catalogued entities
//	@Tags			catalog
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results (default 20)"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit := cast.ToInt(r.URL.Query().Get("limit"))
	hits, err := h.svc.SearchEntities(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the entity relationship graph
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		writeServiceError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}
