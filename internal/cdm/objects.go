package cdm

import (
	"time"

	"github.com/starford/cdmbridge/internal/corpuspath"
)

// Import is a document import by corpus path.
type Import struct {
	CorpusPath string
	Moniker    string
}

func (i *Import) ObjectType() ObjectType { return ImportDef }
func (i *Import) GetName() string        { return i.CorpusPath }

// Document is a persisted unit holding definitions. FolderPath is the
// absolute corpus path of the containing folder, ending with a slash.
type Document struct {
	Name        string
	FolderPath  string
	Imports     []*Import
	Definitions []Object
}

func (d *Document) ObjectType() ObjectType { return DocumentDef }
func (d *Document) GetName() string        { return d.Name }

// AtCorpusPath returns the absolute corpus path of the document.
func (d *Document) AtCorpusPath() string {
	return corpuspath.Normalize(d.FolderPath) + d.Name
}

// Definition returns the first definition with the given name.
func (d *Document) Definition(name string) (Object, bool) {
	for _, o := range d.Definitions {
		if o.GetName() == name {
			return o, true
		}
	}
	return nil, false
}

// Attribute is a member of an entity or attribute group.
type Attribute interface {
	Object
	isAttribute()
}

// TypeAttribute is a single typed attribute.
type TypeAttribute struct {
	Name          string
	Explanation   string
	DataType      string
	AppliedTraits TraitCollection
}

func (a *TypeAttribute) ObjectType() ObjectType { return TypeAttributeDef }
func (a *TypeAttribute) GetName() string        { return a.Name }
func (a *TypeAttribute) isAttribute()           {}

// AttributeGroupReference points at an attribute group by name or path.
type AttributeGroupReference struct {
	Reference string
}

func (a *AttributeGroupReference) ObjectType() ObjectType { return AttributeGroupRef }
func (a *AttributeGroupReference) GetName() string        { return a.Reference }
func (a *AttributeGroupReference) isAttribute()           {}

// AttributeGroup is a named, reusable set of attributes.
type AttributeGroup struct {
	AttributeGroupName string
	Explanation        string
	AttributeContext   string
	ExhibitsTraits     TraitCollection
	Members            []Attribute
	InDocument         *Document
}

func (g *AttributeGroup) ObjectType() ObjectType { return AttributeGroupDef }
func (g *AttributeGroup) GetName() string        { return g.AttributeGroupName }

// Entity is an entity definition. Descriptive properties such as
// description, display name and version live in ExhibitsTraits.
type Entity struct {
	EntityName       string
	Explanation      string
	ExtendsEntity    string
	AttributeContext string
	ExhibitsTraits   TraitCollection
	Attributes       []Attribute
	CdmSchemas       []string
	InDocument       *Document
}

func (e *Entity) ObjectType() ObjectType { return EntityDef }
func (e *Entity) GetName() string        { return e.EntityName }

// DataPartition describes one data file of an entity. Location is a corpus
// path, normally relative to InDocument's folder.
type DataPartition struct {
	Name                    string
	Description             string
	Location                string
	RefreshTime             *time.Time
	LastFileModifiedTime    *time.Time
	LastFileStatusCheckTime *time.Time
	ExhibitsTraits          TraitCollection
	InDocument              *Document
}

func (p *DataPartition) ObjectType() ObjectType { return DataPartitionDef }
func (p *DataPartition) GetName() string        { return p.Name }

// E2ERelationship links an attribute of one entity to an attribute of
// another. Entities are referenced by corpus path.
type E2ERelationship struct {
	Name                string
	Explanation         string
	FromEntity          string
	FromEntityAttribute string
	ToEntity            string
	ToEntityAttribute   string
	ExhibitsTraits      TraitCollection
}

func (r *E2ERelationship) ObjectType() ObjectType { return E2ERelationshipDef }
func (r *E2ERelationship) GetName() string        { return r.Name }

// LocalEntityDeclaration declares an entity inside a manifest together with
// its data partitions.
type LocalEntityDeclaration struct {
	EntityName           string
	EntityPath           string
	Explanation          string
	LastFileModifiedTime *time.Time
	DataPartitions       []*DataPartition
	ExhibitsTraits       TraitCollection
	InDocument           *Document
}

func (d *LocalEntityDeclaration) ObjectType() ObjectType { return LocalEntityDeclarationDef }
func (d *LocalEntityDeclaration) GetName() string        { return d.EntityName }

// Folder is a corpus folder.
type Folder struct {
	FolderName     string
	Explanation    string
	FolderPath     string
	ExhibitsTraits TraitCollection
	ChildFolders   []*Folder
	Documents      []*Document
}

func (f *Folder) ObjectType() ObjectType { return FolderDef }
func (f *Folder) GetName() string        { return f.FolderName }

// Manifest is a document listing entity declarations and the relationships
// between them.
type Manifest struct {
	Document

	ManifestName         string
	Explanation          string
	LastFileModifiedTime *time.Time
	Entities             []*LocalEntityDeclaration
	Relationships        []*E2ERelationship
	ExhibitsTraits       TraitCollection

	// ExtensionDocument holds the extension trait definitions created while
	// reading this manifest, nil when there were none.
	ExtensionDocument *Document
}

func (m *Manifest) ObjectType() ObjectType { return ManifestDef }
func (m *Manifest) GetName() string        { return m.ManifestName }
