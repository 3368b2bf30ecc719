package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/persistence/cdmfolder"
)

// Export is a model.json rendered as CDM folder documents keyed by file
// name.
type Export struct {
	Folder      string                     `json:"folder"`
	Documents   map[string]json.RawMessage `json:"documents"`
	Written     bool                       `json:"written"`
	Diagnostics []logger.Entry             `json:"diagnostics"`
}

// ExportCdmFolder converts data, a model.json stored in folderPath, into one
// document per entity plus the extension document when the model carries
// extensions. With write set the documents are stored next to it.
func (s *Service) ExportCdmFolder(ctx context.Context, data []byte, folderPath string, write bool) (*Export, error) {
	conv, err := s.ConvertModelJSON(ctx, data, folderPath)
	if err != nil {
		return nil, err
	}
	m := conv.Manifest
	cctx, diags := s.newContext()

	docs := make([]*cdm.Document, 0, len(m.Entities)+1)
	for _, d := range m.Entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs := s.store.CreateAbsoluteCorpusPath(d.EntityPath, &m.Document)
		doc, ok := s.corpus.FetchDocument(folderPart(abs))
		if !ok {
			logger.Error("ExportCdmFolder", cctx, fmt.Sprintf("There was an error while trying to fetch the entity '%s'.", abs), "ToData")
			continue
		}
		docs = append(docs, doc)
	}
	if m.ExtensionDocument != nil {
		docs = append(docs, m.ExtensionDocument)
	}

	out := &Export{Folder: m.FolderPath, Documents: make(map[string]json.RawMessage, len(docs))}
	for _, doc := range docs {
		b, err := json.MarshalIndent(cdmfolder.DocumentToData(cctx, doc), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("bridge: encode %s: %w", doc.Name, err)
		}
		out.Documents[doc.Name] = b
	}

	if write {
		for _, doc := range docs {
			if err := s.write(doc.AtCorpusPath(), out.Documents[doc.Name]); err != nil {
				return nil, err
			}
		}
		out.Written = true
	}
	out.Diagnostics = append(conv.Diagnostics, diags.Entries()...)
	return out, nil
}

// folderPart strips the object name from "<document path>/<name>".
func folderPart(objectPath string) string {
	for i := len(objectPath) - 1; i >= 0; i-- {
		if objectPath[i] == '/' {
			return objectPath[:i]
		}
	}
	return objectPath
}

func (s *Service) write(corpusPath string, content []byte) error {
	a, rest, err := s.store.Resolve(corpusPath)
	if err != nil {
		return err
	}
	if err := a.Write(rest, content); err != nil {
		return fmt.Errorf("bridge: write %s: %w", corpusPath, err)
	}
	return nil
}
