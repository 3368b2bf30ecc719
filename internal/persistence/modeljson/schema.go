package modeljson

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of a model.json document. Entities and
// relationships are polymorphic on $type, so their items only pin the
// discriminant.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(EntityList(nil)):
				return nodeList("Entities keyed by $type. LocalEntity is converted, other types are skipped.", TypeLocalEntity)
			case reflect.TypeOf(RelationshipList(nil)):
				return nodeList("Relationships keyed by $type. Only SingleKeyRelationship is converted.", TypeSingleKeyRelationship)
			}
			return nil
		},
	}
	s := r.Reflect(&Model{})
	s.Title = ManifestDocumentName
	s.Required = append(s.Required[:0:0], "name", "entities")
	return s
}

func nodeList(description, known string) *jsonschema.Schema {
	item := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"$type"},
	}
	item.Properties = jsonschema.NewProperties()
	item.Properties.Set("$type", &jsonschema.Schema{Type: "string", Examples: []any{known}})
	item.Properties.Set("name", &jsonschema.Schema{Type: "string"})
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       item,
	}
}
