package modeljson

import (
	"fmt"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/traitmap"
)

const attributeComponent = "TypeAttributePersistence"

// model.json data type -> CDM data type. Types absent from the table are
// spelled the same in both.
var dataTypeToCdm = map[string]string{
	"int64": "bigInteger",
}

// CDM data type -> model.json data type.
var dataTypeToModelJSON = map[string]string{
	"bigInteger":   "int64",
	"integer":      "int64",
	"smallInteger": "int64",
	"float":        "double",
	"date":         "dateTime",
	"time":         "dateTime",
	"char":         "string",
}

var sharedDataTypes = map[string]struct{}{
	"string": {}, "double": {}, "dateTime": {}, "dateTimeOffset": {},
	"decimal": {}, "boolean": {}, "guid": {}, "json": {},
}

// AttributeFromData converts a model.json attribute into a type attribute.
func AttributeFromData(ctx *cdm.CorpusContext, obj *Attribute, global, local *extension.Pool) *cdm.TypeAttribute {
	if err := obj.DecodeError(); err != nil {
		logger.Error(attributeComponent, ctx, fmt.Sprintf("Attribute '%s' could not be read: %v", obj.Name, err), "FromData")
		return nil
	}
	att := cdm.Make[*cdm.TypeAttribute](corpusOf(ctx), cdm.TypeAttributeDef, obj.Name)
	att.DataType = mapDataType(ctx, obj.DataType, dataTypeToCdm, "FromData")

	m := traitmap.New(ctx, &att.AppliedTraits)
	if obj.Description != "" {
		_ = m.UpdatePropertyValue("description", obj.Description)
	}
	if obj.IsHidden {
		m.SetTraitPresence(traitmap.TraitIsHidden, true)
	}
	if !processAnnotationsFromData(ctx, &obj.DataObject, &att.AppliedTraits) {
		return nil
	}
	extension.FromData(ctx, obj.Extensions, nil, &att.AppliedTraits, global, local)
	return att
}

// AttributeToData converts a type attribute into a model.json attribute.
func AttributeToData(ctx *cdm.CorpusContext, att *cdm.TypeAttribute) *Attribute {
	m := traitmap.New(ctx, &att.AppliedTraits)
	out := &Attribute{
		DataObject: DataObject{
			Name:        att.Name,
			Description: m.FetchString("description"),
			IsHidden:    m.FetchBool("isHidden"),
		},
		DataType: mapDataType(ctx, att.DataType, dataTypeToModelJSON, "ToData"),
	}
	processAnnotationsToData(ctx, &out.DataObject, &att.AppliedTraits,
		projectedTraits(ctx, &att.AppliedTraits, "isHidden", "description"))
	out.Extensions = extension.NewProperties()
	extension.ToData(ctx, &att.AppliedTraits, out.Extensions)
	return out
}

// mapDataType translates through table. Unknown types are kept verbatim
// with a warning.
func mapDataType(ctx *cdm.CorpusContext, dataType string, table map[string]string, operation string) string {
	if dataType == "" {
		return ""
	}
	if mapped, ok := table[dataType]; ok {
		return mapped
	}
	if _, ok := sharedDataTypes[dataType]; !ok {
		logger.Warning(attributeComponent, ctx, fmt.Sprintf("Data type '%s' has no known mapping and is kept as is.", dataType), operation)
	}
	return dataType
}
