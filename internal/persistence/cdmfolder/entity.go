package cdmfolder

import (
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/traitmap"
)

// AttributeGroupFromData reads an attribute group. A nil object yields nil;
// a malformed exhibited trait fails the group.
func AttributeGroupFromData(ctx *cdm.CorpusContext, obj *AttributeGroup) *cdm.AttributeGroup {
	if obj == nil {
		return nil
	}
	group := cdm.Make[*cdm.AttributeGroup](corpusOf(ctx), cdm.AttributeGroupDef, obj.AttributeGroupName)
	group.Explanation = obj.Explanation
	group.AttributeContext = obj.AttributeContext
	refs, ok := TraitReferenceListFromData(ctx, obj.ExhibitsTraits)
	if !ok {
		return nil
	}
	group.ExhibitsTraits.AddAll(refs)
	extension.FromData(ctx, obj.Extensions, nil, &group.ExhibitsTraits, nil, nil)
	group.Members = AttributeListFromData(ctx, obj.Members)
	return group
}

// AttributeGroupToData writes an attribute group.
func AttributeGroupToData(ctx *cdm.CorpusContext, group *cdm.AttributeGroup) *AttributeGroup {
	if group == nil {
		return nil
	}
	return &AttributeGroup{
		AttributeGroupName: group.AttributeGroupName,
		Explanation:        group.Explanation,
		AttributeContext:   group.AttributeContext,
		ExhibitsTraits:     TraitReferenceListToData(ctx, &group.ExhibitsTraits),
		Members:            AttributeListToData(ctx, group.Members),
		Extensions:         extensionsToData(ctx, &group.ExhibitsTraits),
	}
}

// EntityFromData reads an entity definition. displayName, description,
// version and sourceName become exhibited traits.
func EntityFromData(ctx *cdm.CorpusContext, obj *Entity) *cdm.Entity {
	if obj == nil {
		return nil
	}
	entity := cdm.Make[*cdm.Entity](corpusOf(ctx), cdm.EntityDef, obj.EntityName)
	entity.Explanation = obj.Explanation
	entity.ExtendsEntity = obj.ExtendsEntity
	entity.AttributeContext = obj.AttributeContext
	entity.CdmSchemas = obj.CdmSchemas

	refs, ok := TraitReferenceListFromData(ctx, obj.ExhibitsTraits)
	if !ok {
		return nil
	}
	entity.ExhibitsTraits.AddAll(refs)
	extension.FromData(ctx, obj.Extensions, nil, &entity.ExhibitsTraits, nil, nil)

	m := traitmap.New(ctx, &entity.ExhibitsTraits)
	for _, p := range []struct{ prop, value string }{
		{"sourceName", obj.SourceName},
		{"displayName", obj.DisplayName},
		{"description", obj.Description},
		{"version", obj.Version},
	} {
		if p.value != "" {
			_ = m.UpdatePropertyValue(p.prop, p.value)
		}
	}

	entity.Attributes = AttributeListFromData(ctx, obj.HasAttributes)
	return entity
}

// EntityToData writes an entity definition.
func EntityToData(ctx *cdm.CorpusContext, entity *cdm.Entity) *Entity {
	if entity == nil {
		return nil
	}
	m := traitmap.New(ctx, &entity.ExhibitsTraits)
	return &Entity{
		EntityName:       entity.EntityName,
		Explanation:      entity.Explanation,
		ExtendsEntity:    entity.ExtendsEntity,
		ExhibitsTraits:   TraitReferenceListToData(ctx, &entity.ExhibitsTraits),
		AttributeContext: entity.AttributeContext,
		HasAttributes:    AttributeListToData(ctx, entity.Attributes),
		SourceName:       m.FetchString("sourceName"),
		DisplayName:      m.FetchString("displayName"),
		Description:      m.FetchString("description"),
		Version:          m.FetchString("version"),
		CdmSchemas:       entity.CdmSchemas,
		Extensions:       extensionsToData(ctx, &entity.ExhibitsTraits),
	}
}
