package cdmfolder

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/logger"
)

// DocumentFromData reads a "*.cdm.json" document named name inside
// folderPath. Definitions are dispatched on their identifying key; unknown
// shapes are skipped with a warning and definitions that fail to convert
// are dropped.
func DocumentFromData(ctx *cdm.CorpusContext, name, folderPath string, obj *Document) *cdm.Document {
	if obj == nil {
		return nil
	}
	doc := cdm.Make[*cdm.Document](corpusOf(ctx), cdm.DocumentDef, name)
	doc.FolderPath = folderPath
	for _, imp := range obj.Imports {
		i := cdm.Make[*cdm.Import](corpusOf(ctx), cdm.ImportDef, imp.CorpusPath)
		i.Moniker = imp.Moniker
		doc.Imports = append(doc.Imports, i)
	}

	for _, raw := range obj.Definitions {
		def := definitionFromData(ctx, raw)
		if def == nil {
			continue
		}
		switch d := def.(type) {
		case *cdm.Entity:
			d.InDocument = doc
		case *cdm.AttributeGroup:
			d.InDocument = doc
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	return doc
}

// DocumentToData writes doc.
func DocumentToData(ctx *cdm.CorpusContext, doc *cdm.Document) *Document {
	if doc == nil {
		return nil
	}
	out := &Document{
		JSONSchemaSemanticVersion: JSONSchemaSemanticVersion,
		Definitions:               []json.RawMessage{},
	}
	for _, imp := range doc.Imports {
		out.Imports = append(out.Imports, Import{CorpusPath: imp.CorpusPath, Moniker: imp.Moniker})
	}
	for _, def := range doc.Definitions {
		var v any
		switch d := def.(type) {
		case *cdm.Entity:
			if e := EntityToData(ctx, d); e != nil {
				v = e
			}
		case *cdm.AttributeGroup:
			if g := AttributeGroupToData(ctx, d); g != nil {
				v = g
			}
		case *cdm.TraitDefinition:
			if t := TraitDefinitionToData(ctx, d); t != nil {
				v = t
			}
		default:
			logger.Warning("DocumentPersistence", ctx, fmt.Sprintf("Skipping definition '%s' of kind %s.", def.GetName(), def.ObjectType()), "ToData")
		}
		if v == nil {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			logger.Error("DocumentPersistence", ctx, err.Error(), "ToData")
			continue
		}
		out.Definitions = append(out.Definitions, raw)
	}
	return out
}

func definitionFromData(ctx *cdm.CorpusContext, raw json.RawMessage) cdm.Object {
	switch {
	case hasKey(raw, "entityName"):
		obj, err := unmarshalDefinition[Entity](raw)
		if err != nil {
			logger.Error("EntityPersistence", ctx, err.Error(), "FromData")
			return nil
		}
		if e := EntityFromData(ctx, obj); e != nil {
			return e
		}
	case hasKey(raw, "attributeGroupName"):
		obj, err := unmarshalDefinition[AttributeGroup](raw)
		if err != nil {
			logger.Error("AttributeGroupPersistence", ctx, err.Error(), "FromData")
			return nil
		}
		if g := AttributeGroupFromData(ctx, obj); g != nil {
			return g
		}
	case hasKey(raw, "traitName"):
		obj, err := unmarshalDefinition[TraitDefinition](raw)
		if err != nil {
			logger.Error("TraitPersistence", ctx, err.Error(), "FromData")
			return nil
		}
		if t := TraitDefinitionFromData(ctx, obj); t != nil {
			return t
		}
	default:
		logger.Warning("DocumentPersistence", ctx, "Skipping definition of unsupported shape.", "FromData")
	}
	return nil
}

func hasKey(raw json.RawMessage, key string) bool {
	_, _, _, err := jsonparser.Get(raw, key)
	return err == nil
}
