// Package extension keeps vendor JSON properties that the wire schema does
// not model. Each property becomes an argument on an "is.extension.<ns>"
// trait reference and is written back unchanged.
//
// A property "ns:local" maps to trait "is.extension.ns" with a named
// argument "local". A property without a namespace separator maps to
// "is.extension.<name>" with a positional argument. Namespaces are
// case-sensitive and split on the first separator.
package extension

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/logger"
)

const (
	// BaseTrait is extended by every synthesized definition.
	BaseTrait = "is.extension"
	// TraitPrefix starts every extension trait name.
	TraitPrefix = BaseTrait + "."
	// DocumentName is the per-manifest document holding local definitions.
	DocumentName = "custom.extension.cdm.json"

	separator = ":"
	component = "ExtensionHelper"
)

// Properties is an ordered set of raw JSON properties.
type Properties = orderedmap.OrderedMap[string, json.RawMessage]

// NewProperties returns an empty property set.
func NewProperties() *Properties {
	return orderedmap.New[string, json.RawMessage]()
}

// SplitProperty separates a property name into namespace and local name. A
// name without a usable separator is all namespace.
func SplitProperty(name string) (namespace, local string) {
	i := strings.Index(name, separator)
	if i <= 0 || i == len(name)-len(separator) {
		return name, ""
	}
	return name[:i], name[i+len(separator):]
}

// TraitName returns the extension trait name for namespace.
func TraitName(namespace string) string {
	return TraitPrefix + namespace
}

// Namespace returns the namespace encoded in an extension trait name.
func Namespace(traitName string) (string, bool) {
	if !IsExtensionTrait(traitName) {
		return "", false
	}
	return strings.TrimPrefix(traitName, TraitPrefix), true
}

// IsExtensionTrait reports whether traitName follows the extension naming
// convention.
func IsExtensionTrait(traitName string) bool {
	return strings.HasPrefix(traitName, TraitPrefix) && len(traitName) > len(TraitPrefix)
}

// FromData turns every property of props not listed in reserved into an
// argument on the matching extension trait of traits. Properties of one
// namespace accumulate on a single reference. Definitions are resolved
// through the pools, which may be shared with concurrent callers.
func FromData(ctx *cdm.CorpusContext, props *Properties, reserved map[string]struct{}, traits *cdm.TraitCollection, global, local *Pool) {
	if props == nil || traits == nil {
		return
	}
	for p := props.Oldest(); p != nil; p = p.Next() {
		if _, skip := reserved[p.Key]; skip {
			continue
		}
		ns, name := SplitProperty(p.Key)
		traitName := TraitName(ns)
		Resolve(ctx, traitName, local, global)

		ref := extensionRef(traits, traitName)
		if ref == nil {
			ref = newRef(ctx, traitName)
			traits.Add(ref)
		}
		value := make(json.RawMessage, len(p.Value))
		copy(value, p.Value)
		ref.AddArgument(name, value)
	}
}

// ToData writes every extension trait argument of traits into out, in trait
// order and then argument order. Values that are not raw JSON are
// marshalled; values that cannot be are dropped with a warning.
func ToData(ctx *cdm.CorpusContext, traits *cdm.TraitCollection, out *Properties) {
	if traits == nil || out == nil {
		return
	}
	for _, ref := range traits.Items() {
		if ref.IsFromProperty {
			continue
		}
		ns, ok := Namespace(ref.NamedReference)
		if !ok {
			continue
		}
		for _, a := range ref.Arguments {
			key := ns
			if a.Name != "" {
				key = ns + separator + a.Name
			}
			raw, err := rawValue(a.Value)
			if err != nil {
				logger.Warning(component, ctx, fmt.Sprintf("Extension property '%s' could not be written: %v", key, err), "ToData")
				continue
			}
			out.Set(key, raw)
		}
	}
}

// Has reports whether traits carries any extension reference.
func Has(traits *cdm.TraitCollection) bool {
	if traits == nil {
		return false
	}
	for _, ref := range traits.Items() {
		if !ref.IsFromProperty && IsExtensionTrait(ref.NamedReference) {
			return true
		}
	}
	return false
}

func extensionRef(traits *cdm.TraitCollection, traitName string) *cdm.TraitReference {
	for _, ref := range traits.Items() {
		if ref.NamedReference == traitName && !ref.IsFromProperty {
			return ref
		}
	}
	return nil
}

func newRef(ctx *cdm.CorpusContext, traitName string) *cdm.TraitReference {
	if ctx != nil && ctx.Corpus != nil {
		if ref := ctx.Corpus.MakeRef(cdm.TraitRef, traitName, false); ref != nil {
			return ref
		}
	}
	return cdm.NewTraitReference(traitName, false)
}

func rawValue(v any) (json.RawMessage, error) {
	switch t := v.(type) {
	case json.RawMessage:
		if len(t) == 0 {
			return json.RawMessage("null"), nil
		}
		return t, nil
	case []byte:
		return json.Marshal(string(t))
	default:
		return json.Marshal(t)
	}
}
