package modeljson

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/corpuspath"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/traitmap"
)

const entityComponent = "LocalEntityDeclarationPersistence"

// DocumentSuffix names the document holding each converted entity.
const DocumentSuffix = ".cdm.json"

// Options tunes composite conversions.
type Options struct {
	// Workers bounds concurrent child conversions; zero or less means one.
	Workers int
}

func (o Options) limit() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// LocalEntityFromData converts a LocalEntity of manifest. The entity
// definition goes into its own "<Name>.cdm.json" document next to the
// manifest, registered with the corpus; the returned declaration points at
// it with a manifest-relative path. Partitions are converted concurrently
// and the ones that fail are dropped.
func LocalEntityFromData(ctx context.Context, cctx *cdm.CorpusContext, obj *LocalEntity, manifest *cdm.Manifest, global, local *extension.Pool, opts Options) (*cdm.LocalEntityDeclaration, error) {
	if err := obj.DecodeError(); err != nil {
		logger.Error(entityComponent, cctx, fmt.Sprintf("Entity '%s' could not be read: %v", obj.Name, err), "FromData")
		return nil, nil
	}
	corpus := corpusOf(cctx)

	doc := cdm.Make[*cdm.Document](corpus, cdm.DocumentDef, obj.Name+DocumentSuffix)
	doc.FolderPath = manifest.FolderPath

	entity := cdm.Make[*cdm.Entity](corpus, cdm.EntityDef, obj.Name)
	entity.InDocument = doc
	entity.CdmSchemas = obj.Schemas

	m := traitmap.New(cctx, &entity.ExhibitsTraits)
	if obj.Description != "" {
		_ = m.UpdatePropertyValue("description", obj.Description)
	}
	if obj.IsHidden {
		m.SetTraitPresence(traitmap.TraitIsHidden, true)
	}
	if !processAnnotationsFromData(cctx, &obj.DataObject, &entity.ExhibitsTraits) {
		return nil, nil
	}
	extension.FromData(cctx, obj.Extensions, nil, &entity.ExhibitsTraits, global, local)

	for _, a := range obj.Attributes {
		if a == nil {
			continue
		}
		if att := AttributeFromData(cctx, a, global, local); att != nil {
			entity.Attributes = append(entity.Attributes, att)
		}
	}

	decl := cdm.Make[*cdm.LocalEntityDeclaration](corpus, cdm.LocalEntityDeclarationDef, obj.Name)
	decl.EntityPath = doc.Name + "/" + entity.EntityName
	decl.LastFileModifiedTime = obj.LastFileModifiedTime
	decl.InDocument = &manifest.Document

	partitions := make([]*cdm.DataPartition, len(obj.Partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for i, p := range obj.Partitions {
		if p == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partitions[i] = DataPartitionFromData(cctx, p, global, local, &manifest.Document)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("modeljson: entity %s partitions: %w", obj.Name, err)
	}
	for _, p := range partitions {
		if p != nil {
			decl.DataPartitions = append(decl.DataPartitions, p)
		}
	}

	doc.Definitions = append(doc.Definitions, entity)
	corpus.AddDocument(doc)
	return decl, nil
}

// LocalEntityToData converts decl back, fetching its entity definition
// through the corpus. Partitions are converted concurrently and the ones
// that fail are dropped.
func LocalEntityToData(ctx context.Context, cctx *cdm.CorpusContext, decl *cdm.LocalEntityDeclaration, opts Options) (*LocalEntity, error) {
	entityPath := decl.EntityPath
	if ps := paths(cctx); ps != nil {
		entityPath = ps.CreateAbsoluteCorpusPath(decl.EntityPath, decl.InDocument)
	} else if decl.InDocument != nil {
		entityPath = corpuspath.ToAbsolute(decl.EntityPath, decl.InDocument.FolderPath)
	}
	entity, ok := corpusOf(cctx).FetchEntity(entityPath)
	if !ok {
		logger.Error(entityComponent, cctx, fmt.Sprintf("There was an error while trying to fetch the entity '%s'.", entityPath), "ToData")
		return nil, nil
	}

	m := traitmap.New(cctx, &entity.ExhibitsTraits)
	out := &LocalEntity{
		DataObject: DataObject{
			Type:        TypeLocalEntity,
			Name:        entity.EntityName,
			Description: m.FetchString("description"),
			IsHidden:    m.FetchBool("isHidden"),
		},
		Schemas:              entity.CdmSchemas,
		LastFileModifiedTime: decl.LastFileModifiedTime,
	}
	processAnnotationsToData(cctx, &out.DataObject, &entity.ExhibitsTraits,
		projectedTraits(cctx, &entity.ExhibitsTraits, "isHidden", "description"))
	out.Extensions = extension.NewProperties()
	extension.ToData(cctx, &entity.ExhibitsTraits, out.Extensions)

	for _, a := range entity.Attributes {
		switch att := a.(type) {
		case *cdm.TypeAttribute:
			out.Attributes = append(out.Attributes, AttributeToData(cctx, att))
		default:
			logger.Warning(entityComponent, cctx, fmt.Sprintf("Attribute '%s' of entity '%s' cannot be expressed in model.json and was skipped.", a.GetName(), entity.EntityName), "ToData")
		}
	}

	partitions := make([]*Partition, len(decl.DataPartitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for i, p := range decl.DataPartitions {
		if p == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partitions[i] = DataPartitionToData(cctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("modeljson: entity %s partitions: %w", entity.EntityName, err)
	}
	for _, p := range partitions {
		if p != nil {
			out.Partitions = append(out.Partitions, p)
		}
	}
	return out, nil
}
