// Package traitmap projects fixed wire properties onto trait references and
// back. A Map is bound to one object's trait collection for the duration of
// a single conversion call.
package traitmap

import (
	"fmt"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
)

// Map reads and writes projected properties on one trait collection.
type Map struct {
	ctx    *cdm.CorpusContext
	traits *cdm.TraitCollection
}

// New binds a Map to traits. ctx supplies the corpus used to construct new
// references and may be nil.
func New(ctx *cdm.CorpusContext, traits *cdm.TraitCollection) *Map {
	return &Map{ctx: ctx, traits: traits}
}

// FetchTraitReference returns the first reference named name, or nil.
func (m *Map) FetchTraitReference(name string) *cdm.TraitReference {
	return m.traits.Item(name)
}

// UpdateTraitArgument sets argName on the trait, creating the trait when it
// is absent. The trait is marked as coming from a property.
func (m *Map) UpdateTraitArgument(traitName, argName string, value any) *cdm.TraitReference {
	ref := m.fetchOrCreate(traitName, false)
	ref.SetArgument(argName, value)
	return ref
}

// SetTraitPresence adds a simple reference to traitName when present is true
// and removes every reference to it otherwise.
func (m *Map) SetTraitPresence(traitName string, present bool) {
	if !present {
		m.traits.Remove(traitName)
		return
	}
	m.fetchOrCreate(traitName, true)
}

// RemoveTrait removes every reference named traitName.
func (m *Map) RemoveTrait(traitName string) {
	m.traits.Remove(traitName)
}

// FetchPropertyValue decodes the named property from its trait. ok is false
// when the property is not set.
func (m *Map) FetchPropertyValue(property string) (value any, ok bool) {
	h, found := properties[property]
	if !found {
		return nil, false
	}
	ref := m.traits.Item(h.trait)
	if ref == nil {
		return nil, false
	}
	return h.decode(ref)
}

// FetchString returns a text property, "" when unset.
func (m *Map) FetchString(property string) string {
	v, ok := m.FetchPropertyValue(property)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// FetchBool returns a presence property.
func (m *Map) FetchBool(property string) bool {
	v, ok := m.FetchPropertyValue(property)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// UpdatePropertyValue encodes value into the property's trait. A zero value
// clears the property.
func (m *Map) UpdatePropertyValue(property string, value any) error {
	h, found := properties[property]
	if !found {
		return fmt.Errorf("traitmap: %q: %w", property, apperr.ErrUnknownProperty)
	}
	return h.encode(m, value)
}

func (m *Map) fetchOrCreate(traitName string, simple bool) *cdm.TraitReference {
	if ref := m.traits.Item(traitName); ref != nil {
		return ref
	}
	var ref *cdm.TraitReference
	if m.ctx != nil && m.ctx.Corpus != nil {
		ref = m.ctx.Corpus.MakeRef(cdm.TraitRef, traitName, simple)
	} else {
		ref = cdm.NewTraitReference(traitName, simple)
	}
	ref.IsFromProperty = true
	return m.traits.Add(ref)
}
