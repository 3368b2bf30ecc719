package cdm

// Argument is a named or positional value passed to a trait. Positional
// arguments have an empty Name.
type Argument struct {
	Name  string
	Value any
}

// TraitReference names a trait definition and carries its arguments.
type TraitReference struct {
	NamedReference       string
	SimpleNamedReference bool
	Arguments            []*Argument

	// IsFromProperty marks references synthesized from a wire property.
	// They are written back as that property, never as a trait entry.
	IsFromProperty bool
}

// NewTraitReference returns a reference to the named trait.
func NewTraitReference(name string, simple bool) *TraitReference {
	return &TraitReference{NamedReference: name, SimpleNamedReference: simple}
}

func (t *TraitReference) ObjectType() ObjectType { return TraitRef }
func (t *TraitReference) GetName() string        { return t.NamedReference }

// Argument returns the first argument with the given name.
func (t *TraitReference) Argument(name string) (*Argument, bool) {
	for _, a := range t.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// SetArgument sets the first argument with the given name, appending a new
// one when none exists. A reference with arguments is no longer simple.
func (t *TraitReference) SetArgument(name string, value any) {
	t.SimpleNamedReference = false
	if a, ok := t.Argument(name); ok {
		a.Value = value
		return
	}
	t.Arguments = append(t.Arguments, &Argument{Name: name, Value: value})
}

// AddArgument always appends, allowing repeated names.
func (t *TraitReference) AddArgument(name string, value any) *Argument {
	t.SimpleNamedReference = false
	a := &Argument{Name: name, Value: value}
	t.Arguments = append(t.Arguments, a)
	return a
}

// TraitDefinition declares a trait. Extension traits are synthesized at
// conversion time and extend the base "is.extension" trait.
type TraitDefinition struct {
	TraitName    string
	Explanation  string
	ExtendsTrait *TraitReference
}

func (t *TraitDefinition) ObjectType() ObjectType { return TraitDef }
func (t *TraitDefinition) GetName() string        { return t.TraitName }

// TraitCollection is the ordered set of trait references owned by an object.
// Duplicate names are tolerated; lookups return the first match.
type TraitCollection struct {
	items []*TraitReference
}

// Add appends ref and returns it.
func (c *TraitCollection) Add(ref *TraitReference) *TraitReference {
	c.items = append(c.items, ref)
	return ref
}

// AddAll appends every non-nil reference.
func (c *TraitCollection) AddAll(refs []*TraitReference) {
	for _, r := range refs {
		if r != nil {
			c.items = append(c.items, r)
		}
	}
}

// Item returns the first reference with the given trait name, or nil.
func (c *TraitCollection) Item(name string) *TraitReference {
	for _, r := range c.items {
		if r.NamedReference == name {
			return r
		}
	}
	return nil
}

// Remove drops every reference with the given name and reports how many
// were removed.
func (c *TraitCollection) Remove(name string) int {
	kept := c.items[:0]
	removed := 0
	for _, r := range c.items {
		if r.NamedReference == name {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = nil
	}
	c.items = kept
	return removed
}

// Items returns the references in order. The slice must not be modified.
func (c *TraitCollection) Items() []*TraitReference {
	return c.items
}

// Len returns the number of references.
func (c *TraitCollection) Len() int {
	return len(c.items)
}
