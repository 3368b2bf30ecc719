package cdmfolder

import (
	"encoding/json"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/persistence/wire"
)

// TraitDefinitionFromData reads a trait definition. A malformed
// extendsTrait fails the definition.
func TraitDefinitionFromData(ctx *cdm.CorpusContext, obj *TraitDefinition) *cdm.TraitDefinition {
	if obj == nil {
		return nil
	}
	def := cdm.Make[*cdm.TraitDefinition](corpusOf(ctx), cdm.TraitDef, obj.TraitName)
	def.Explanation = obj.Explanation
	if len(obj.ExtendsTrait) > 0 {
		def.ExtendsTrait = TraitReferenceFromData(ctx, obj.ExtendsTrait)
		if def.ExtendsTrait == nil {
			return nil
		}
	}
	return def
}

// TraitDefinitionToData writes def.
func TraitDefinitionToData(ctx *cdm.CorpusContext, def *cdm.TraitDefinition) *TraitDefinition {
	if def == nil {
		return nil
	}
	out := &TraitDefinition{TraitName: def.TraitName, Explanation: def.Explanation}
	if def.ExtendsTrait != nil {
		raw, err := MarshalTraitReference(def.ExtendsTrait)
		if err != nil {
			logger.Error("TraitPersistence", ctx, err.Error(), "ToData")
			return nil
		}
		out.ExtendsTrait = raw
	}
	return out
}

// FolderFromData reads a folder descriptor.
func FolderFromData(ctx *cdm.CorpusContext, obj *Folder) *cdm.Folder {
	if obj == nil {
		return nil
	}
	folder := cdm.Make[*cdm.Folder](corpusOf(ctx), cdm.FolderDef, obj.FolderName)
	folder.Explanation = obj.Explanation
	refs, ok := TraitReferenceListFromData(ctx, obj.ExhibitsTraits)
	if !ok {
		return nil
	}
	folder.ExhibitsTraits.AddAll(refs)
	extension.FromData(ctx, obj.Extensions, nil, &folder.ExhibitsTraits, nil, nil)
	return folder
}

// FolderToData writes a folder descriptor.
func FolderToData(ctx *cdm.CorpusContext, folder *cdm.Folder) *Folder {
	if folder == nil {
		return nil
	}
	return &Folder{
		FolderName:     folder.FolderName,
		Explanation:    folder.Explanation,
		ExhibitsTraits: TraitReferenceListToData(ctx, &folder.ExhibitsTraits),
		Extensions:     extensionsToData(ctx, &folder.ExhibitsTraits),
	}
}

// extensionsToData turns the extension arguments of traits back into
// properties. It returns nil when there are none.
func extensionsToData(ctx *cdm.CorpusContext, traits *cdm.TraitCollection) *wire.Extensions {
	ext := extension.NewProperties()
	extension.ToData(ctx, traits, ext)
	if ext.Len() == 0 {
		return nil
	}
	return ext
}

// corpusOf returns a corpus for object construction even without a
// context.
func corpusOf(ctx *cdm.CorpusContext) *cdm.Corpus {
	if ctx != nil && ctx.Corpus != nil {
		return ctx.Corpus
	}
	return cdm.NewCorpus(nil)
}

func unmarshalDefinition[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
