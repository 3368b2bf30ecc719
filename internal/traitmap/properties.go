package traitmap

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
)

// Trait names backing projected properties.
const (
	TraitIsHidden    = "is.hidden"
	TraitIsNullable  = "is.nullable"
	TraitIsReadOnly  = "is.readOnly"
	TraitDescribedAs = "is.localized.describedAs"
	TraitDisplayedAs = "is.localized.displayedAs"
	TraitVersion     = "is.CDM.entityVersion"
	TraitSourceNamed = "is.CDS.sourceNamed"
	TraitCulture     = "is.partition.culture"
	TraitManagedBy   = "is.managedBy"
	TraitConstrained = "is.constrained"
)

type handler struct {
	trait  string
	decode func(*cdm.TraitReference) (any, bool)
	encode func(*Map, any) error
}

var properties = map[string]handler{
	"isHidden":      presence(TraitIsHidden),
	"isNullable":    presence(TraitIsNullable),
	"isReadOnly":    presence(TraitIsReadOnly),
	"description":   text(TraitDescribedAs, "localizedDisplayText"),
	"displayName":   text(TraitDisplayedAs, "localizedDisplayText"),
	"version":       text(TraitVersion, "versionNumber"),
	"sourceName":    text(TraitSourceNamed, "name"),
	"culture":       text(TraitCulture, "culture"),
	"application":   text(TraitManagedBy, "application"),
	"maximumLength": integer(TraitConstrained, "maximumLength"),
}

// Properties lists the projected property names in sorted order.
func Properties() []string {
	out := make([]string, 0, len(properties))
	for p := range properties {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// TraitFor returns the trait name backing property.
func TraitFor(property string) (string, bool) {
	h, ok := properties[property]
	return h.trait, ok
}

// presence maps a boolean property onto the existence of a trait.
func presence(trait string) handler {
	return handler{
		trait: trait,
		decode: func(*cdm.TraitReference) (any, bool) {
			return true, true
		},
		encode: func(m *Map, v any) error {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return fmt.Errorf("traitmap: %s: %v: %w", trait, err, apperr.ErrStructural)
			}
			m.SetTraitPresence(trait, b)
			return nil
		},
	}
}

// text maps a string property onto one named trait argument.
func text(trait, arg string) handler {
	return handler{
		trait: trait,
		decode: func(ref *cdm.TraitReference) (any, bool) {
			a, ok := ref.Argument(arg)
			if !ok && len(ref.Arguments) > 0 && ref.Arguments[0].Name == "" {
				a, ok = ref.Arguments[0], true
			}
			if !ok {
				return nil, false
			}
			s, err := cast.ToStringE(a.Value)
			if err != nil || s == "" {
				return nil, false
			}
			return s, true
		},
		encode: func(m *Map, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return fmt.Errorf("traitmap: %s: %v: %w", trait, err, apperr.ErrStructural)
			}
			if s == "" {
				m.RemoveTrait(trait)
				return nil
			}
			m.UpdateTraitArgument(trait, arg, s)
			return nil
		},
	}
}

// integer maps a numeric property onto one named trait argument.
func integer(trait, arg string) handler {
	return handler{
		trait: trait,
		decode: func(ref *cdm.TraitReference) (any, bool) {
			a, ok := ref.Argument(arg)
			if !ok {
				return nil, false
			}
			n, err := cast.ToIntE(a.Value)
			if err != nil {
				return nil, false
			}
			return n, true
		},
		encode: func(m *Map, v any) error {
			if v == nil {
				m.RemoveTrait(trait)
				return nil
			}
			n, err := cast.ToIntE(v)
			if err != nil {
				return fmt.Errorf("traitmap: %s: %v: %w", trait, err, apperr.ErrStructural)
			}
			if n == 0 {
				m.RemoveTrait(trait)
				return nil
			}
			m.UpdateTraitArgument(trait, arg, n)
			return nil
		},
	}
}
