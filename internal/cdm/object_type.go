// Package cdm defines the in-memory metadata model the persistence layer
// converts to and from: trait references, definitions, documents and the
// corpus that constructs and registers them.
package cdm

// ObjectType identifies the kind of a model object.
type ObjectType int

const (
	ErrorType ObjectType = iota
	ImportDef
	ArgumentDef
	TraitDef
	TraitRef
	DataTypeRef
	TypeAttributeDef
	AttributeGroupDef
	AttributeGroupRef
	EntityDef
	DocumentDef
	ManifestDef
	FolderDef
	DataPartitionDef
	LocalEntityDeclarationDef
	E2ERelationshipDef
)

var objectTypeNames = map[ObjectType]string{
	ErrorType:                 "Error",
	ImportDef:                 "Import",
	ArgumentDef:               "ArgumentDef",
	TraitDef:                  "TraitDef",
	TraitRef:                  "TraitRef",
	DataTypeRef:               "DataTypeRef",
	TypeAttributeDef:          "TypeAttributeDef",
	AttributeGroupDef:         "AttributeGroupDef",
	AttributeGroupRef:         "AttributeGroupRef",
	EntityDef:                 "EntityDef",
	DocumentDef:               "DocumentDef",
	ManifestDef:               "ManifestDef",
	FolderDef:                 "FolderDef",
	DataPartitionDef:          "DataPartitionDef",
	LocalEntityDeclarationDef: "LocalEntityDeclarationDef",
	E2ERelationshipDef:        "E2ERelationshipDef",
}

// String returns the name of the object type.
func (t ObjectType) String() string {
	if s, ok := objectTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// Object is implemented by every model object.
type Object interface {
	ObjectType() ObjectType
	GetName() string
}
