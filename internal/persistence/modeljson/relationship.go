package modeljson

import (
	"fmt"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/entityindex"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
)

const relationshipComponent = "RelationshipPersistence"

// RelationshipFromData converts a relationship node. Only
// SingleKeyRelationship is supported; other shapes and relationships whose
// endpoint entities are not in idx are skipped with a warning. Endpoints are
// stored relative to doc.
func RelationshipFromData(ctx *cdm.CorpusContext, node RelationshipNode, idx *entityindex.Index, doc *cdm.Document, global, local *extension.Pool) *cdm.E2ERelationship {
	obj, ok := node.(*SingleKeyRelationship)
	if !ok || obj == nil {
		tag := ""
		if u, isU := node.(*UnsupportedNode); isU && u != nil {
			tag = u.Tag
		}
		logger.Warning(relationshipComponent, ctx, fmt.Sprintf("Relationship of type '%s' is not supported and was skipped.", tag), "FromData")
		return nil
	}

	if err := obj.DecodeError(); err != nil {
		logger.Error(relationshipComponent, ctx, fmt.Sprintf("Relationship '%s' could not be read: %v", obj.Name, err), "FromData")
		return nil
	}

	from, ok := resolveEndpoint(idx, obj.FromAttribute)
	if !ok {
		logger.Warning(relationshipComponent, ctx, fmt.Sprintf("Relationship's source entity '%s' is not defined.", endpointEntity(obj.FromAttribute)), "FromData")
		return nil
	}
	to, ok := resolveEndpoint(idx, obj.ToAttribute)
	if !ok {
		logger.Warning(relationshipComponent, ctx, fmt.Sprintf("Relationship's target entity '%s' is not defined.", endpointEntity(obj.ToAttribute)), "FromData")
		return nil
	}

	rel := cdm.Make[*cdm.E2ERelationship](corpusOf(ctx), cdm.E2ERelationshipDef, obj.Name)
	if !processAnnotationsFromData(ctx, &obj.DataObject, &rel.ExhibitsTraits) {
		return nil
	}
	rel.Explanation = obj.Description
	rel.FromEntity = relativeTo(ctx, from, doc)
	rel.ToEntity = relativeTo(ctx, to, doc)
	rel.FromEntityAttribute = obj.FromAttribute.AttributeName
	rel.ToEntityAttribute = obj.ToAttribute.AttributeName
	extension.FromData(ctx, obj.Extensions, nil, &rel.ExhibitsTraits, global, local)
	return rel
}

// RelationshipToData converts rel back, naming each endpoint entity by the
// last segment of its corpus path.
func RelationshipToData(ctx *cdm.CorpusContext, rel *cdm.E2ERelationship) *SingleKeyRelationship {
	out := &SingleKeyRelationship{
		DataObject: DataObject{
			Type:        TypeSingleKeyRelationship,
			Name:        rel.Name,
			Description: rel.Explanation,
		},
		FromAttribute: &AttributeReference{
			EntityName:    entityindex.EntityName(rel.FromEntity),
			AttributeName: rel.FromEntityAttribute,
		},
		ToAttribute: &AttributeReference{
			EntityName:    entityindex.EntityName(rel.ToEntity),
			AttributeName: rel.ToEntityAttribute,
		},
	}
	processAnnotationsToData(ctx, &out.DataObject, &rel.ExhibitsTraits, nil)
	out.Extensions = extension.NewProperties()
	extension.ToData(ctx, &rel.ExhibitsTraits, out.Extensions)
	return out
}

func resolveEndpoint(idx *entityindex.Index, ref *AttributeReference) (string, bool) {
	if ref == nil {
		return "", false
	}
	return idx.Resolve(ref.EntityName)
}

func endpointEntity(ref *AttributeReference) string {
	if ref == nil {
		return ""
	}
	return ref.EntityName
}

func relativeTo(ctx *cdm.CorpusContext, corpusPath string, doc *cdm.Document) string {
	if ps := paths(ctx); ps != nil {
		return ps.CreateRelativeCorpusPath(corpusPath, doc)
	}
	return corpusPath
}
