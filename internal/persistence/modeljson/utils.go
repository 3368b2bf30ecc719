package modeljson

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/persistence/cdmfolder"
	"github.com/starford/cdmbridge/internal/traitmap"
)

// TraitOtherAnnotations carries model.json annotations, one named argument
// per annotation.
const TraitOtherAnnotations = "is.modelConversion.otherAnnotations"

// processAnnotationsFromData moves annotations and cdm:traits of obj onto
// traits. It reports false when a cdm:traits entry is malformed.
func processAnnotationsFromData(ctx *cdm.CorpusContext, obj *DataObject, traits *cdm.TraitCollection) bool {
	if len(obj.Annotations) > 0 {
		ref := newRef(ctx, TraitOtherAnnotations)
		ref.IsFromProperty = true
		for _, a := range obj.Annotations {
			if a == nil {
				continue
			}
			var v any
			if a.Value != nil {
				v = *a.Value
			}
			ref.AddArgument(a.Name, v)
		}
		traits.Add(ref)
	}
	refs, ok := cdmfolder.TraitReferenceListFromData(ctx, obj.Traits)
	traits.AddAll(refs)
	return ok
}

// projectedTraits returns the traits behind those of props that hold a value
// on traits. The object's writer emits them as properties.
func projectedTraits(ctx *cdm.CorpusContext, traits *cdm.TraitCollection, props ...string) map[string]struct{} {
	m := traitmap.New(ctx, traits)
	out := make(map[string]struct{}, len(props))
	for _, prop := range props {
		if _, ok := m.FetchPropertyValue(prop); !ok {
			continue
		}
		if trait, known := traitmap.TraitFor(prop); known {
			out[trait] = struct{}{}
		}
	}
	return out
}

// processAnnotationsToData fills the annotations and cdm:traits of obj from
// traits. Traits in projected, property traits and extension traits are left
// to their own writers.
func processAnnotationsToData(ctx *cdm.CorpusContext, obj *DataObject, traits *cdm.TraitCollection, projected map[string]struct{}) {
	for _, ref := range traits.Items() {
		if ref.NamedReference == TraitOtherAnnotations {
			for _, a := range ref.Arguments {
				ann := &Annotation{Name: a.Name}
				if a.Value != nil {
					s, err := cast.ToStringE(a.Value)
					if err != nil {
						b, _ := json.Marshal(a.Value)
						s = string(b)
					}
					ann.Value = &s
				}
				obj.Annotations = append(obj.Annotations, ann)
			}
			continue
		}
		if ref.IsFromProperty || extension.IsExtensionTrait(ref.NamedReference) {
			continue
		}
		if _, ok := projected[ref.NamedReference]; ok {
			continue
		}
		raw, err := cdmfolder.MarshalTraitReference(ref)
		if err != nil {
			logger.Warning("Utils", ctx, fmt.Sprintf("Trait '%s' could not be written to cdm:traits: %v", ref.NamedReference, err), "ToData")
			continue
		}
		obj.Traits = append(obj.Traits, raw)
	}
}

func newRef(ctx *cdm.CorpusContext, name string) *cdm.TraitReference {
	if ctx != nil && ctx.Corpus != nil {
		if ref := ctx.Corpus.MakeRef(cdm.TraitRef, name, false); ref != nil {
			return ref
		}
	}
	return cdm.NewTraitReference(name, false)
}

func corpusOf(ctx *cdm.CorpusContext) *cdm.Corpus {
	if ctx != nil && ctx.Corpus != nil {
		return ctx.Corpus
	}
	return cdm.NewCorpus(nil)
}

// paths returns the storage path service, or nil when the context has none.
func paths(ctx *cdm.CorpusContext) cdm.PathService {
	if ctx != nil && ctx.Corpus != nil {
		return ctx.Corpus.Storage
	}
	return nil
}
