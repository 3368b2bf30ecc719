// Package bridge coordinates storage, conversion and the catalog: it loads
// model.json manifests into the object model, writes them back, exports
// them as CDM folder documents and keeps the catalog in step with storage.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/catalog"
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/corpuspath"
	"github.com/starford/cdmbridge/internal/entityindex"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/models"
	"github.com/starford/cdmbridge/internal/parser"
	"github.com/starford/cdmbridge/internal/persistence/modeljson"
	"github.com/starford/cdmbridge/internal/storage"
	"github.com/starford/cdmbridge/internal/traitmap"
)

// Conversion is the outcome of reading one model.json.
type Conversion struct {
	Manifest    *cdm.Manifest
	Path        string
	Checksum    string
	Diagnostics []logger.Entry
}

// Service coordinates storage, conversion and catalog operations. It owns
// the session corpus and the global extension definition pool shared by
// every manifest it reads.
type Service struct {
	store  *storage.Manager
	db     catalog.Catalog
	corpus *cdm.Corpus
	global *extension.Pool
	logger *slog.Logger
	opts   modeljson.Options
}

// NewService creates a service. db may be nil when no catalog is kept.
func NewService(store *storage.Manager, db catalog.Catalog, logger *slog.Logger, opts modeljson.Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		db:     db,
		corpus: cdm.NewCorpus(store),
		global: extension.NewPool(),
		logger: logger,
		opts:   opts,
	}
}

// Extensions returns the number of extension definitions seen this session.
func (s *Service) Extensions() int {
	return s.global.Len()
}

// newContext returns a conversion context whose diagnostics are collected
// and forwarded to the service logger.
func (s *Service) newContext() (*cdm.CorpusContext, *logger.Collector) {
	c := logger.NewCollector(s.logger.Handler())
	return cdm.NewContext(s.corpus, slog.New(c)), c
}

// folderOf normalizes a folder corpus path: the default namespace is added
// when missing and a trailing slash is ensured.
func (s *Service) folderOf(p string) string {
	ns, rest := corpuspath.Split(p)
	if ns == "" {
		ns = s.store.DefaultNamespace()
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	if !strings.HasSuffix(rest, "/") {
		rest += "/"
	}
	return corpuspath.Normalize(corpuspath.Join(ns, rest))
}

// ConvertModelJSON reads data as a model.json stored in folderPath.
func (s *Service) ConvertModelJSON(ctx context.Context, data []byte, folderPath string) (*Conversion, error) {
	var m modeljson.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bridge: decode model.json: %v: %w", err, apperr.ErrInvalidWire)
	}
	folder := s.folderOf(folderPath)
	cctx, diags := s.newContext()
	manifest, err := modeljson.DocumentFromData(ctx, cctx, &m, folder, s.global, s.opts)
	if err != nil {
		return nil, fmt.Errorf("bridge: convert: %w", err)
	}
	if manifest == nil {
		return nil, fmt.Errorf("bridge: convert %s: %w", m.Name, apperr.ErrConversionFailed)
	}
	return &Conversion{
		Manifest:    manifest,
		Path:        manifest.AtCorpusPath(),
		Checksum:    storage.Checksum(data),
		Diagnostics: diags.Entries(),
	}, nil
}

// LoadModelJSON reads and converts the model.json stored at corpusPath.
func (s *Service) LoadModelJSON(ctx context.Context, corpusPath string) (*Conversion, error) {
	data, err := s.read(corpusPath)
	if err != nil {
		return nil, err
	}
	return s.ConvertModelJSON(ctx, data, corpuspath.Folder(corpusPath))
}

// RoundTripModelJSON reads data as a model.json stored in folderPath and
// writes it straight back.
func (s *Service) RoundTripModelJSON(ctx context.Context, data []byte, folderPath string) ([]byte, []logger.Entry, error) {
	conv, err := s.ConvertModelJSON(ctx, data, folderPath)
	if err != nil {
		return nil, nil, err
	}
	cctx, diags := s.newContext()
	out, err := modeljson.DocumentToData(ctx, cctx, conv.Manifest, s.opts)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge: write model.json: %w", err)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("bridge: encode model.json: %w", err)
	}
	return b, append(conv.Diagnostics, diags.Entries()...), nil
}

// Inspect reports the format and declared names of the document stored at
// corpusPath without converting it.
func (s *Service) Inspect(_ context.Context, corpusPath string) (*parser.Result, error) {
	data, err := s.read(corpusPath)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("bridge: inspect %s: %w", corpusPath, err)
	}
	if res.Format == parser.FormatUnknown {
		res.Format = parser.FormatOf(corpusPath)
	}
	return res, nil
}

// Manifests lists the catalogued manifests.
func (s *Service) Manifests(_ context.Context) ([]models.ManifestSummary, error) {
	if s.db == nil {
		return []models.ManifestSummary{}, nil
	}
	return s.db.ListManifests()
}

// Entities lists the catalogued entities of manifest, or of all manifests.
func (s *Service) Entities(_ context.Context, manifest string) ([]models.EntitySummary, error) {
	if s.db == nil {
		return []models.EntitySummary{}, nil
	}
	return s.db.Entities(manifest)
}

// Relationships lists the catalogued relationships touching entity, or all.
func (s *Service) Relationships(_ context.Context, entity string) ([]models.RelationshipEdge, error) {
	if s.db == nil {
		return []models.RelationshipEdge{}, nil
	}
	return s.db.Relationships(entity)
}

// Graph returns the entity relationship graph of the catalog.
func (s *Service) Graph(_ context.Context) ([]catalog.GraphNode, []catalog.GraphLink, error) {
	if s.db == nil {
		return []catalog.GraphNode{}, []catalog.GraphLink{}, nil
	}
	return s.db.Graph()
}

// SearchEntities finds catalogued entities by name, description or
// attribute name.
func (s *Service) SearchEntities(_ context.Context, query string, limit int) ([]models.SearchHit, error) {
	if s.db == nil {
		return []models.SearchHit{}, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("bridge: search: empty query: %w", apperr.ErrInvalidWire)
	}
	return s.db.SearchEntities(query, limit)
}

// Catalogue converts the model.json at corpusPath from data and records it.
// Exported so that sync and the watcher can reuse it.
func (s *Service) Catalogue(ctx context.Context, corpusPath string, data []byte) (*Conversion, error) {
	if s.db == nil {
		return nil, fmt.Errorf("bridge: catalogue %s: no catalog: %w", corpusPath, apperr.ErrUnsupported)
	}
	conv, err := s.ConvertModelJSON(ctx, data, corpuspath.Folder(corpusPath))
	if err != nil {
		return nil, err
	}
	summary, entities, rels := s.summarize(conv)
	if err := s.db.UpsertManifest(summary, entities, rels); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Service) summarize(conv *Conversion) (models.ManifestSummary, []models.EntitySummary, []models.RelationshipEdge) {
	m := conv.Manifest
	cctx, _ := s.newContext()
	summary := models.ManifestSummary{
		Path:      conv.Path,
		Name:      m.ManifestName,
		Checksum:  conv.Checksum,
		UpdatedAt: time.Now().UTC(),
	}
	entities := make([]models.EntitySummary, 0, len(m.Entities))
	for _, d := range m.Entities {
		abs := s.store.CreateAbsoluteCorpusPath(d.EntityPath, &m.Document)
		e := models.EntitySummary{
			Manifest:   conv.Path,
			Name:       d.EntityName,
			Path:       abs,
			Partitions: len(d.DataPartitions),
		}
		if def, ok := s.corpus.FetchEntity(abs); ok {
			e.Attributes = len(def.Attributes)
			e.AttributeNames = attributeNames(def)
			e.Description = traitmap.New(cctx, &def.ExhibitsTraits).FetchString("description")
		}
		entities = append(entities, e)
	}
	rels := make([]models.RelationshipEdge, 0, len(m.Relationships))
	for _, r := range m.Relationships {
		rels = append(rels, models.RelationshipEdge{
			Manifest:      conv.Path,
			Name:          r.Name,
			FromEntity:    entityindex.EntityName(r.FromEntity),
			FromAttribute: r.FromEntityAttribute,
			ToEntity:      entityindex.EntityName(r.ToEntity),
			ToAttribute:   r.ToEntityAttribute,
		})
	}
	return summary, entities, rels
}

func attributeNames(def *cdm.Entity) []string {
	names := make([]string, 0, len(def.Attributes))
	for _, a := range def.Attributes {
		if n := a.GetName(); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func (s *Service) read(corpusPath string) ([]byte, error) {
	a, rest, err := s.store.Resolve(corpusPath)
	if err != nil {
		return nil, err
	}
	data, err := a.Read(rest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("bridge: %s: %w", corpusPath, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}
