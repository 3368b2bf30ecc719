package cdmfolder

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/traitmap"
)

// AttributeFromData reads one attribute list element: a string or
// attributeGroupReference object yields a group reference, an object with a
// name yields a type attribute. Unknown shapes are skipped with a warning.
func AttributeFromData(ctx *cdm.CorpusContext, raw json.RawMessage) cdm.Attribute {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			logger.Error("AttributePersistence", ctx, err.Error(), "FromData")
			return nil
		}
		return cdm.Make[*cdm.AttributeGroupReference](corpusOf(ctx), cdm.AttributeGroupRef, name)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		logger.Error("AttributePersistence", ctx, err.Error(), "FromData")
		return nil
	}
	if _, ok := fields["attributeGroupReference"]; ok {
		var ref AttributeGroupReference
		if err := json.Unmarshal(raw, &ref); err != nil {
			logger.Error("AttributePersistence", ctx, fmt.Sprintf("attributeGroupReference must be a name: %v", err), "FromData")
			return nil
		}
		return cdm.Make[*cdm.AttributeGroupReference](corpusOf(ctx), cdm.AttributeGroupRef, ref.AttributeGroupReference)
	}
	if _, ok := fields["name"]; ok {
		var obj TypeAttribute
		if err := json.Unmarshal(raw, &obj); err != nil {
			logger.Error("TypeAttributePersistence", ctx, err.Error(), "FromData")
			return nil
		}
		if att := TypeAttributeFromData(ctx, &obj); att != nil {
			return att
		}
		return nil
	}
	logger.Warning("AttributePersistence", ctx, "Skipping attribute of unsupported shape.", "FromData")
	return nil
}

// AttributeToData writes one attribute list element.
func AttributeToData(ctx *cdm.CorpusContext, att cdm.Attribute) any {
	switch a := att.(type) {
	case *cdm.TypeAttribute:
		if out := TypeAttributeToData(ctx, a); out != nil {
			return out
		}
		return nil
	case *cdm.AttributeGroupReference:
		return AttributeGroupReference{AttributeGroupReference: a.Reference}
	default:
		return nil
	}
}

// AttributeListFromData reads an attribute list, dropping elements that
// could not be read.
func AttributeListFromData(ctx *cdm.CorpusContext, raws []json.RawMessage) []cdm.Attribute {
	var out []cdm.Attribute
	for _, raw := range raws {
		if att := AttributeFromData(ctx, raw); att != nil {
			out = append(out, att)
		}
	}
	return out
}

// AttributeListToData writes an attribute list.
func AttributeListToData(ctx *cdm.CorpusContext, atts []cdm.Attribute) []json.RawMessage {
	var out []json.RawMessage
	for _, att := range atts {
		v := AttributeToData(ctx, att)
		if v == nil {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			logger.Error("AttributePersistence", ctx, err.Error(), "ToData")
			continue
		}
		out = append(out, raw)
	}
	return out
}

// TypeAttributeFromData reads a type attribute, projecting its descriptive
// fields onto applied traits.
func TypeAttributeFromData(ctx *cdm.CorpusContext, obj *TypeAttribute) *cdm.TypeAttribute {
	att := cdm.Make[*cdm.TypeAttribute](corpusOf(ctx), cdm.TypeAttributeDef, obj.Name)
	att.Explanation = obj.Explanation

	name, err := dataTypeName(obj.DataType)
	if err != nil {
		logger.Error("TypeAttributePersistence", ctx, fmt.Sprintf("There was an error while trying to convert from JSON to DataTypeRef. Reason: '%v'", err), "FromData")
		return nil
	}
	att.DataType = name

	refs, ok := TraitReferenceListFromData(ctx, obj.AppliedTraits)
	if !ok {
		return nil
	}
	att.AppliedTraits.AddAll(refs)
	extension.FromData(ctx, obj.Extensions, nil, &att.AppliedTraits, nil, nil)

	m := traitmap.New(ctx, &att.AppliedTraits)
	m.SetTraitPresence(traitmap.TraitIsNullable, obj.IsNullable)
	m.SetTraitPresence(traitmap.TraitIsReadOnly, obj.IsReadOnly)
	for _, p := range []struct{ prop, value string }{
		{"sourceName", obj.SourceName},
		{"displayName", obj.DisplayName},
		{"description", obj.Description},
	} {
		if p.value != "" {
			_ = m.UpdatePropertyValue(p.prop, p.value)
		}
	}
	if obj.MaximumLength != nil {
		_ = m.UpdatePropertyValue("maximumLength", *obj.MaximumLength)
	}
	return att
}

// TypeAttributeToData writes a type attribute.
func TypeAttributeToData(ctx *cdm.CorpusContext, att *cdm.TypeAttribute) *TypeAttribute {
	m := traitmap.New(ctx, &att.AppliedTraits)
	out := &TypeAttribute{
		Name:          att.Name,
		Explanation:   att.Explanation,
		AppliedTraits: TraitReferenceListToData(ctx, &att.AppliedTraits),
		IsNullable:    m.FetchBool("isNullable"),
		IsReadOnly:    m.FetchBool("isReadOnly"),
		SourceName:    m.FetchString("sourceName"),
		DisplayName:   m.FetchString("displayName"),
		Description:   m.FetchString("description"),
		Extensions:    extensionsToData(ctx, &att.AppliedTraits),
	}
	if att.DataType != "" {
		out.DataType, _ = json.Marshal(att.DataType)
	}
	if v, ok := m.FetchPropertyValue("maximumLength"); ok {
		n := v.(int)
		out.MaximumLength = &n
	}
	return out
}

// dataTypeName accepts a bare name or a {"dataTypeReference": name} object.
func dataTypeName(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var ref DataTypeReference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", err
	}
	return ref.DataTypeReference, nil
}
