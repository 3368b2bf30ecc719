// Package cdmfolder converts between the CDM object model and the
// "*.cdm.json" CdmFolder wire format.
package cdmfolder

import (
	"encoding/json"

	"github.com/starford/cdmbridge/internal/persistence/wire"
)

// JSONSchemaSemanticVersion is written on every document.
const JSONSchemaSemanticVersion = "1.0.0"

// TraitReference is the object form of a trait reference. The string form
// is a bare trait name.
type TraitReference struct {
	TraitReference string `json:"traitReference"`
	Arguments      []any  `json:"arguments,omitempty"`
}

// Argument is a named trait argument. Positional arguments are written as
// their bare value.
type Argument struct {
	Name        string `json:"name"`
	Value       any    `json:"value"`
	Explanation string `json:"explanation,omitempty"`
}

// TraitDefinition declares a trait.
type TraitDefinition struct {
	TraitName    string          `json:"traitName"`
	Explanation  string          `json:"explanation,omitempty"`
	ExtendsTrait json.RawMessage `json:"extendsTrait,omitempty"`
}

// TypeAttribute is a typed attribute. Descriptive fields are projections of
// applied traits.
type TypeAttribute struct {
	Name          string            `json:"name"`
	Explanation   string            `json:"explanation,omitempty"`
	DataType      json.RawMessage   `json:"dataType,omitempty"`
	AppliedTraits []json.RawMessage `json:"appliedTraits,omitempty"`
	IsNullable    bool              `json:"isNullable,omitempty"`
	IsReadOnly    bool              `json:"isReadOnly,omitempty"`
	SourceName    string            `json:"sourceName,omitempty"`
	DisplayName   string            `json:"displayName,omitempty"`
	Description   string            `json:"description,omitempty"`
	MaximumLength *int              `json:"maximumLength,omitempty"`

	Extensions *wire.Extensions `json:"-"`
}

// AttributeGroupReference points at an attribute group.
type AttributeGroupReference struct {
	AttributeGroupReference string `json:"attributeGroupReference"`
}

// DataTypeReference is the object form of a data type reference.
type DataTypeReference struct {
	DataTypeReference string `json:"dataTypeReference"`
}

// AttributeGroup is a named set of attributes.
type AttributeGroup struct {
	AttributeGroupName string            `json:"attributeGroupName"`
	Explanation        string            `json:"explanation,omitempty"`
	AttributeContext   string            `json:"attributeContext,omitempty"`
	ExhibitsTraits     []json.RawMessage `json:"exhibitsTraits,omitempty"`
	Members            []json.RawMessage `json:"members,omitempty"`

	Extensions *wire.Extensions `json:"-"`
}

// Entity is an entity definition.
type Entity struct {
	EntityName       string            `json:"entityName"`
	Explanation      string            `json:"explanation,omitempty"`
	ExtendsEntity    string            `json:"extendsEntity,omitempty"`
	ExhibitsTraits   []json.RawMessage `json:"exhibitsTraits,omitempty"`
	AttributeContext string            `json:"attributeContext,omitempty"`
	HasAttributes    []json.RawMessage `json:"hasAttributes,omitempty"`
	SourceName       string            `json:"sourceName,omitempty"`
	DisplayName      string            `json:"displayName,omitempty"`
	Description      string            `json:"description,omitempty"`
	Version          string            `json:"version,omitempty"`
	CdmSchemas       []string          `json:"cdmSchemas,omitempty"`

	Extensions *wire.Extensions `json:"-"`
}

// Folder describes a corpus folder.
type Folder struct {
	FolderName     string            `json:"folderName"`
	Explanation    string            `json:"explanation,omitempty"`
	ExhibitsTraits []json.RawMessage `json:"exhibitsTraits,omitempty"`

	Extensions *wire.Extensions `json:"-"`
}

// Import is a document import.
type Import struct {
	CorpusPath string `json:"corpusPath"`
	Moniker    string `json:"moniker,omitempty"`
}

// Document is the top-level shape of a "*.cdm.json" file.
type Document struct {
	JSONSchemaSemanticVersion string            `json:"jsonSchemaSemanticVersion,omitempty"`
	Imports                   []Import          `json:"imports,omitempty"`
	Definitions               []json.RawMessage `json:"definitions"`
}

// Objects that carry traits keep undeclared properties in Extensions so
// vendor keys survive a read and write.

func (a *TypeAttribute) UnmarshalJSON(data []byte) error {
	type alias TypeAttribute
	ext, err := wire.Decode(data, a, (*alias)(a))
	if err != nil {
		return err
	}
	a.Extensions = ext
	return nil
}

func (a TypeAttribute) MarshalJSON() ([]byte, error) {
	type alias TypeAttribute
	return wire.Encode(alias(a), a.Extensions)
}

func (g *AttributeGroup) UnmarshalJSON(data []byte) error {
	type alias AttributeGroup
	ext, err := wire.Decode(data, g, (*alias)(g))
	if err != nil {
		return err
	}
	g.Extensions = ext
	return nil
}

func (g AttributeGroup) MarshalJSON() ([]byte, error) {
	type alias AttributeGroup
	return wire.Encode(alias(g), g.Extensions)
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	type alias Entity
	ext, err := wire.Decode(data, e, (*alias)(e))
	if err != nil {
		return err
	}
	e.Extensions = ext
	return nil
}

func (e Entity) MarshalJSON() ([]byte, error) {
	type alias Entity
	return wire.Encode(alias(e), e.Extensions)
}

func (f *Folder) UnmarshalJSON(data []byte) error {
	type alias Folder
	ext, err := wire.Decode(data, f, (*alias)(f))
	if err != nil {
		return err
	}
	f.Extensions = ext
	return nil
}

func (f Folder) MarshalJSON() ([]byte, error) {
	type alias Folder
	return wire.Encode(alias(f), f.Extensions)
}
