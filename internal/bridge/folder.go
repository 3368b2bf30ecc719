package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/corpuspath"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/parser"
	"github.com/starford/cdmbridge/internal/persistence/cdmfolder"
	"github.com/starford/cdmbridge/internal/storage"
)

// FolderDocument is the outcome of reading one "*.cdm.json" document.
type FolderDocument struct {
	Document *cdm.Document `json:"-"`
	Path     string        `json:"path"`
	Checksum string        `json:"checksum"`
	// Entities lists the entity definitions that converted.
	Entities []string `json:"entities"`
	// Normalized is the document written back from the object model.
	Normalized  json.RawMessage `json:"normalized"`
	Diagnostics []logger.Entry  `json:"diagnostics"`
}

// ConvertCdmFolderDocument reads data as the CDM folder document stored at
// corpusPath and registers it in the session corpus, replacing any document
// already loaded there. Definitions that fail to convert are dropped and
// reported in the diagnostics.
func (s *Service) ConvertCdmFolderDocument(ctx context.Context, data []byte, corpusPath string) (*FolderDocument, error) {
	name := corpuspath.LastSegment(corpusPath)
	if parser.FormatOf(name) != parser.FormatDocument {
		return nil, fmt.Errorf("bridge: %s is not a CDM folder document: %w", corpusPath, apperr.ErrUnsupported)
	}
	var obj cdmfolder.Document
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("bridge: decode %s: %v: %w", name, err, apperr.ErrInvalidWire)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folder := s.folderOf(corpuspath.Folder(corpusPath))
	cctx, diags := s.newContext()
	doc := cdmfolder.DocumentFromData(cctx, name, folder, &obj)
	if doc == nil {
		return nil, fmt.Errorf("bridge: convert %s: %w", name, apperr.ErrConversionFailed)
	}
	s.corpus.AddDocument(doc)

	normalized, err := json.MarshalIndent(cdmfolder.DocumentToData(cctx, doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s: %w", name, err)
	}
	out := &FolderDocument{
		Document:    doc,
		Path:        doc.AtCorpusPath(),
		Checksum:    storage.Checksum(data),
		Entities:    []string{},
		Normalized:  normalized,
		Diagnostics: diags.Entries(),
	}
	for _, def := range doc.Definitions {
		if e, ok := def.(*cdm.Entity); ok {
			out.Entities = append(out.Entities, e.EntityName)
		}
	}
	return out, nil
}

// LoadCdmFolderDocument reads and converts the CDM folder document stored
// at corpusPath.
func (s *Service) LoadCdmFolderDocument(ctx context.Context, corpusPath string) (*FolderDocument, error) {
	data, err := s.read(corpusPath)
	if err != nil {
		return nil, err
	}
	return s.ConvertCdmFolderDocument(ctx, data, corpusPath)
}
