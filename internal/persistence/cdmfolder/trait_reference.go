package cdmfolder

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
)

// TraitReferenceFromData reads a trait reference in string or object form.
// A malformed reference is logged as an error and yields nil.
func TraitReferenceFromData(ctx *cdm.CorpusContext, raw json.RawMessage) *cdm.TraitReference {
	ref, err := decodeTraitReference(ctx, raw)
	if err != nil {
		logger.Error("TraitReferencePersistence", ctx, fmt.Sprintf("There was an error while trying to convert from JSON to TraitReference. Reason: '%v'", err), "FromData")
		return nil
	}
	return ref
}

// TraitReferenceToData writes ref as a bare name when it is a simple
// reference without arguments and in object form otherwise.
func TraitReferenceToData(ref *cdm.TraitReference) any {
	if ref == nil {
		return nil
	}
	if ref.SimpleNamedReference && len(ref.Arguments) == 0 {
		return ref.NamedReference
	}
	out := TraitReference{TraitReference: ref.NamedReference}
	for _, a := range ref.Arguments {
		if a.Name == "" {
			out.Arguments = append(out.Arguments, encodeValue(a.Value))
			continue
		}
		out.Arguments = append(out.Arguments, Argument{Name: a.Name, Value: encodeValue(a.Value)})
	}
	return out
}

// MarshalTraitReference encodes ref with TraitReferenceToData.
func MarshalTraitReference(ref *cdm.TraitReference) (json.RawMessage, error) {
	b, err := json.Marshal(TraitReferenceToData(ref))
	if err != nil {
		return nil, fmt.Errorf("cdmfolder: marshal trait %s: %w", ref.NamedReference, err)
	}
	return b, nil
}

// TraitReferenceListFromData reads a trait list. ok is false when any
// element was malformed; the well-formed ones are still returned.
func TraitReferenceListFromData(ctx *cdm.CorpusContext, raws []json.RawMessage) (refs []*cdm.TraitReference, ok bool) {
	ok = true
	for _, raw := range raws {
		ref := TraitReferenceFromData(ctx, raw)
		if ref == nil {
			ok = false
			continue
		}
		refs = append(refs, ref)
	}
	return refs, ok
}

// TraitReferenceListToData writes every trait of traits that did not come
// from a projected property. Extension traits with arguments are written
// as properties instead.
func TraitReferenceListToData(ctx *cdm.CorpusContext, traits *cdm.TraitCollection) []json.RawMessage {
	var out []json.RawMessage
	for _, ref := range traits.Items() {
		if ref.IsFromProperty || (extension.IsExtensionTrait(ref.NamedReference) && len(ref.Arguments) > 0) {
			continue
		}
		raw, err := MarshalTraitReference(ref)
		if err != nil {
			logger.Warning("TraitReferencePersistence", ctx, err.Error(), "ToData")
			continue
		}
		out = append(out, raw)
	}
	return out
}

func decodeTraitReference(ctx *cdm.CorpusContext, raw json.RawMessage) (*cdm.TraitReference, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty trait reference: %w", apperr.ErrStructural)
	}
	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("empty trait name: %w", apperr.ErrStructural)
		}
		return makeRef(ctx, name, true), nil
	case '{':
		var obj struct {
			TraitReference json.RawMessage   `json:"traitReference"`
			Arguments      []json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		var name string
		if err := json.Unmarshal(obj.TraitReference, &name); err != nil || name == "" {
			return nil, fmt.Errorf("traitReference must be a trait name: %w", apperr.ErrStructural)
		}
		ref := makeRef(ctx, name, false)
		for _, a := range obj.Arguments {
			arg, err := decodeArgument(a)
			if err != nil {
				return nil, err
			}
			ref.Arguments = append(ref.Arguments, arg)
		}
		return ref, nil
	default:
		return nil, fmt.Errorf("unexpected trait reference %s: %w", raw, apperr.ErrStructural)
	}
}

var argumentKeys = map[string]struct{}{"name": {}, "value": {}, "explanation": {}}

// decodeArgument treats an object carrying "value" and nothing beyond
// name/value/explanation as a named argument and anything else as a
// positional value.
func decodeArgument(raw json.RawMessage) (*cdm.Argument, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		if value, ok := fields["value"]; ok && onlyArgumentKeys(fields) {
			var name string
			if n, ok := fields["name"]; ok {
				if err := json.Unmarshal(n, &name); err != nil {
					return nil, fmt.Errorf("argument name: %w", apperr.ErrStructural)
				}
			}
			v, err := decodeValue(value)
			if err != nil {
				return nil, err
			}
			return &cdm.Argument{Name: name, Value: v}, nil
		}
	}
	v, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}
	return &cdm.Argument{Value: v}, nil
}

func onlyArgumentKeys(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if _, ok := argumentKeys[k]; !ok {
			return false
		}
	}
	return true
}

// decodeValue keeps scalars as Go values, numbers as json.Number, and
// objects and arrays as raw JSON.
func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '{' || raw[0] == '[' {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("invalid argument value: %w", apperr.ErrStructural)
		}
		out := make(json.RawMessage, len(raw))
		copy(out, raw)
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid argument value: %v: %w", err, apperr.ErrStructural)
	}
	return v, nil
}

func encodeValue(v any) any {
	if raw, ok := v.(json.RawMessage); ok && len(raw) == 0 {
		return nil
	}
	return v
}

func makeRef(ctx *cdm.CorpusContext, name string, simple bool) *cdm.TraitReference {
	if ctx != nil && ctx.Corpus != nil {
		if ref := ctx.Corpus.MakeRef(cdm.TraitRef, name, simple); ref != nil {
			return ref
		}
	}
	return cdm.NewTraitReference(name, simple)
}
