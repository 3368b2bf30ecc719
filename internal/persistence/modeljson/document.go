package modeljson

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/entityindex"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/traitmap"
)

const documentComponent = "ManifestPersistence"

// ManifestDocumentName is the file name of a model.json manifest.
const ManifestDocumentName = "model.json"

// DefaultVersion is written when a manifest carries no version.
const DefaultVersion = "1.0"

// DocumentFromData converts a model.json read from folderPath into a
// manifest. Entities are converted concurrently; the Entity-Name Index is
// then built from all of them before any relationship is resolved. Extension
// definitions first seen in this model are collected in the manifest's
// extension document. The manifest and every entity document are registered
// with the corpus. Only cancellation of ctx is returned as an error.
func DocumentFromData(ctx context.Context, cctx *cdm.CorpusContext, obj *Model, folderPath string, global *extension.Pool, opts Options) (*cdm.Manifest, error) {
	corpus := corpusOf(cctx)
	local := extension.NewPool()

	manifest := cdm.Make[*cdm.Manifest](corpus, cdm.ManifestDef, obj.Name)
	manifest.Document.Name = ManifestDocumentName
	manifest.Document.FolderPath = folderPath
	manifest.Explanation = obj.Description
	manifest.LastFileModifiedTime = obj.ModifiedTime

	m := traitmap.New(cctx, &manifest.ExhibitsTraits)
	for _, p := range []struct{ prop, value string }{
		{"version", obj.Version},
		{"culture", obj.Culture},
		{"application", obj.Application},
	} {
		if p.value != "" {
			_ = m.UpdatePropertyValue(p.prop, p.value)
		}
	}
	if obj.IsHidden {
		m.SetTraitPresence(traitmap.TraitIsHidden, true)
	}
	if !processAnnotationsFromData(cctx, &obj.DataObject, &manifest.ExhibitsTraits) {
		return nil, nil
	}
	for _, imp := range obj.Imports {
		if imp == nil {
			continue
		}
		i := cdm.Make[*cdm.Import](corpus, cdm.ImportDef, imp.CorpusPath)
		i.Moniker = imp.Moniker
		manifest.Imports = append(manifest.Imports, i)
	}

	var locals []*LocalEntity
	for _, node := range obj.Entities {
		switch e := node.(type) {
		case *LocalEntity:
			locals = append(locals, e)
		case *UnsupportedNode:
			logger.Warning(documentComponent, cctx, fmt.Sprintf("Entity of type '%s' is not supported and was skipped.", e.Tag), "FromData")
		}
	}

	decls := make([]*cdm.LocalEntityDeclaration, len(locals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for i, e := range locals {
		g.Go(func() error {
			decl, err := LocalEntityFromData(gctx, cctx, e, manifest, global, local, opts)
			if err != nil {
				return err
			}
			decls[i] = decl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("modeljson: model %s: %w", obj.Name, err)
	}

	entries := make([]entityindex.Entry, 0, len(decls))
	for _, d := range decls {
		if d == nil {
			continue
		}
		manifest.Entities = append(manifest.Entities, d)
		entries = append(entries, entityindex.Entry{
			Name: d.EntityName,
			Path: absoluteTo(cctx, d.EntityPath, &manifest.Document),
		})
	}
	idx := entityindex.Build(entries)
	for _, name := range idx.Duplicates() {
		logger.Warning(documentComponent, cctx, fmt.Sprintf("Entity name '%s' is declared more than once; relationships resolve to the first by path.", name), "FromData")
	}

	for _, node := range obj.Relationships {
		if rel := RelationshipFromData(cctx, node, idx, &manifest.Document, global, local); rel != nil {
			manifest.Relationships = append(manifest.Relationships, rel)
		}
	}

	extension.FromData(cctx, obj.Extensions, nil, &manifest.ExhibitsTraits, global, local)

	if doc := extension.NewDocument(cctx, local, folderPath); doc != nil {
		manifest.ExtensionDocument = doc
		corpus.AddDocument(doc)
	}
	corpus.AddDocument(&manifest.Document)
	return manifest, nil
}

// DocumentToData converts manifest back into a model.json. Entities are
// converted concurrently and keep their order; entities and relationships
// that fail are dropped. Only cancellation of ctx is returned as an error.
func DocumentToData(ctx context.Context, cctx *cdm.CorpusContext, manifest *cdm.Manifest, opts Options) (*Model, error) {
	m := traitmap.New(cctx, &manifest.ExhibitsTraits)
	out := &Model{
		DataObject: DataObject{
			Name:        manifest.ManifestName,
			Description: manifest.Explanation,
			IsHidden:    m.FetchBool("isHidden"),
		},
		Version:      m.FetchString("version"),
		Culture:      m.FetchString("culture"),
		Application:  m.FetchString("application"),
		ModifiedTime: manifest.LastFileModifiedTime,
		Entities:     EntityList{},
	}
	if out.Version == "" {
		out.Version = DefaultVersion
	}
	processAnnotationsToData(cctx, &out.DataObject, &manifest.ExhibitsTraits,
		projectedTraits(cctx, &manifest.ExhibitsTraits, "isHidden", "version", "culture", "application"))
	for _, imp := range manifest.Imports {
		out.Imports = append(out.Imports, &Import{CorpusPath: imp.CorpusPath, Moniker: imp.Moniker})
	}

	entities := make([]*LocalEntity, len(manifest.Entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for i, decl := range manifest.Entities {
		if decl == nil {
			continue
		}
		g.Go(func() error {
			e, err := LocalEntityToData(gctx, cctx, decl, opts)
			if err != nil {
				return err
			}
			entities[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("modeljson: manifest %s: %w", manifest.ManifestName, err)
	}
	for _, e := range entities {
		if e != nil {
			out.Entities = append(out.Entities, e)
		}
	}

	for _, rel := range manifest.Relationships {
		if r := RelationshipToData(cctx, rel); r != nil {
			out.Relationships = append(out.Relationships, r)
		}
	}

	out.Extensions = extension.NewProperties()
	extension.ToData(cctx, &manifest.ExhibitsTraits, out.Extensions)
	return out, nil
}

func absoluteTo(cctx *cdm.CorpusContext, p string, doc *cdm.Document) string {
	if ps := paths(cctx); ps != nil {
		return ps.CreateAbsoluteCorpusPath(p, doc)
	}
	return p
}
