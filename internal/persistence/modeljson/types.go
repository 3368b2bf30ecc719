// Package modeljson converts between the CDM object model and the
// "model.json" wire format.
package modeljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/persistence/wire"
)

// Discriminant values of polymorphic nodes.
const (
	TypeLocalEntity           = "LocalEntity"
	TypeSingleKeyRelationship = "SingleKeyRelationship"
	TypeCsvFormatSettings     = "CsvFormatSettings"
)

// DataObject holds the fields shared by every model.json object. Properties
// not declared by the concrete type are kept in Extensions.
type DataObject struct {
	Type        string            `json:"$type,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	IsHidden    bool              `json:"isHidden,omitempty"`
	Annotations []*Annotation     `json:"annotations,omitempty"`
	Traits      []json.RawMessage `json:"cdm:traits,omitempty"`

	Extensions *wire.Extensions `json:"-"`

	// decodeErr is set on list elements that could not be decoded. Such an
	// object only carries its $type and name.
	decodeErr error
}

// DecodeError reports why the object could not be decoded.
func (d *DataObject) DecodeError() error { return d.decodeErr }

func (d *DataObject) object() *DataObject { return d }

// malformed keeps what can be salvaged from an element that failed to decode.
func malformed(raw []byte, err error) DataObject {
	name, _ := jsonparser.GetString(raw, "name")
	return DataObject{Type: wire.Discriminant(raw), Name: name, decodeErr: err}
}

// Annotation is a free-form name/value pair.
type Annotation struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

// Import is a CDM document import carried by a model.
type Import struct {
	CorpusPath string `json:"corpusPath"`
	Moniker    string `json:"moniker,omitempty"`
}

// Model is the root of a model.json document.
type Model struct {
	DataObject
	Application   string           `json:"application,omitempty"`
	Version       string           `json:"version"`
	Culture       string           `json:"culture,omitempty"`
	ModifiedTime  *time.Time       `json:"modifiedTime,omitempty"`
	Imports       []*Import        `json:"cdm:imports,omitempty"`
	Entities      EntityList       `json:"entities"`
	Relationships RelationshipList `json:"relationships,omitempty"`
}

// LocalEntity is an entity whose schema is defined inline.
type LocalEntity struct {
	DataObject
	Attributes           AttributeList `json:"attributes,omitempty"`
	Partitions           PartitionList `json:"partitions,omitempty"`
	Schemas              []string      `json:"schemas,omitempty"`
	LastFileModifiedTime *time.Time    `json:"cdm:lastFileModifiedTime,omitempty"`
}

// Attribute is a typed entity attribute.
type Attribute struct {
	DataObject
	DataType string `json:"dataType"`
}

// Partition is one data file of an entity.
type Partition struct {
	DataObject
	RefreshTime             *time.Time         `json:"refreshTime,omitempty"`
	Location                string             `json:"location,omitempty"`
	FileFormatSettings      *CsvFormatSettings `json:"fileFormatSettings,omitempty"`
	LastFileStatusCheckTime *time.Time         `json:"cdm:lastFileStatusCheckTime,omitempty"`
	LastFileModifiedTime    *time.Time         `json:"cdm:lastFileModifiedTime,omitempty"`
}

// CsvFormatSettings describes how a CSV partition is encoded. Decoding never
// fails: a malformed setting is recorded and reported when the partition is
// converted, so it fails only the partition that carries it.
type CsvFormatSettings struct {
	Type          string `json:"$type"`
	ColumnHeaders any    `json:"columnHeaders,omitempty"`
	CsvStyle      string `json:"csvStyle,omitempty"`
	Delimiter     string `json:"delimiter,omitempty"`
	QuoteStyle    string `json:"quoteStyle,omitempty"`
	Encoding      string `json:"encoding,omitempty"`

	invalid error
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CsvFormatSettings) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		c.invalid = fmt.Errorf("fileFormatSettings is not an object")
		return nil
	}
	str := func(key string) string {
		v, ok := raw[key]
		if !ok || v == nil {
			return ""
		}
		s, isString := v.(string)
		if !isString && c.invalid == nil {
			c.invalid = fmt.Errorf("%s must be a string, got %v", key, v)
		}
		return s
	}
	c.Type = str(wire.TypeKey)
	c.CsvStyle = str("csvStyle")
	c.Delimiter = str("delimiter")
	c.QuoteStyle = str("quoteStyle")
	c.Encoding = str("encoding")
	c.ColumnHeaders = raw["columnHeaders"]
	return nil
}

// AttributeReference names an attribute of an entity.
type AttributeReference struct {
	EntityName    string `json:"entityName"`
	AttributeName string `json:"attributeName"`
}

// SingleKeyRelationship links one attribute of an entity to one of another.
type SingleKeyRelationship struct {
	DataObject
	FromAttribute *AttributeReference `json:"fromAttribute"`
	ToAttribute   *AttributeReference `json:"toAttribute"`
}

// UnsupportedNode is an entity or relationship whose $type is not handled.
// It is kept verbatim.
type UnsupportedNode struct {
	Tag string
	Raw json.RawMessage
}

// MarshalJSON writes the node unchanged.
func (u UnsupportedNode) MarshalJSON() ([]byte, error) {
	return u.Raw, nil
}

// EntityNode is a LocalEntity or an UnsupportedNode.
type EntityNode interface{ entityNode() }

func (*LocalEntity) entityNode()     {}
func (*UnsupportedNode) entityNode() {}

// RelationshipNode is a SingleKeyRelationship or an UnsupportedNode.
type RelationshipNode interface{ relationshipNode() }

func (*SingleKeyRelationship) relationshipNode() {}
func (*UnsupportedNode) relationshipNode()       {}

// decodable is a wire object that can stand in for a list element that
// failed to decode.
type decodable[T any] interface {
	*T
	json.Unmarshaler
	object() *DataObject
}

// decodeEach decodes a JSON array element by element. An element that fails
// to decode is replaced by a placeholder carrying the error, so its
// siblings still convert.
func decodeEach[T any, P decodable[T]](data []byte, field string) ([]P, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]P, 0, len(raws))
	for i, raw := range raws {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			out = append(out, nil)
			continue
		}
		var v P = new(T)
		if err := v.UnmarshalJSON(raw); err != nil {
			v = new(T)
			*v.object() = malformed(raw, fmt.Errorf("%s[%d]: %w", field, i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

// AttributeList decodes attributes one by one.
type AttributeList []*Attribute

// UnmarshalJSON implements json.Unmarshaler.
func (l *AttributeList) UnmarshalJSON(data []byte) error {
	out, err := decodeEach[Attribute](data, "attributes")
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// PartitionList decodes partitions one by one.
type PartitionList []*Partition

// UnmarshalJSON implements json.Unmarshaler.
func (l *PartitionList) UnmarshalJSON(data []byte) error {
	out, err := decodeEach[Partition](data, "partitions")
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// EntityList decodes entities by their $type.
type EntityList []EntityNode

// UnmarshalJSON implements json.Unmarshaler.
func (l *EntityList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(EntityList, 0, len(raws))
	for i, raw := range raws {
		tag := wire.Discriminant(raw)
		if tag != TypeLocalEntity {
			out = append(out, &UnsupportedNode{Tag: tag, Raw: raw})
			continue
		}
		e := &LocalEntity{}
		if err := e.UnmarshalJSON(raw); err != nil {
			e = &LocalEntity{DataObject: malformed(raw, fmt.Errorf("entities[%d]: %w", i, err))}
		}
		out = append(out, e)
	}
	*l = out
	return nil
}

// RelationshipList decodes relationships by their $type.
type RelationshipList []RelationshipNode

// UnmarshalJSON implements json.Unmarshaler.
func (l *RelationshipList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(RelationshipList, 0, len(raws))
	for i, raw := range raws {
		tag := wire.Discriminant(raw)
		if tag != TypeSingleKeyRelationship {
			out = append(out, &UnsupportedNode{Tag: tag, Raw: raw})
			continue
		}
		r := &SingleKeyRelationship{}
		if err := r.UnmarshalJSON(raw); err != nil {
			r = &SingleKeyRelationship{DataObject: malformed(raw, fmt.Errorf("relationships[%d]: %w", i, err))}
		}
		out = append(out, r)
	}
	*l = out
	return nil
}

func (m *Model) UnmarshalJSON(data []byte) error {
	type alias Model
	aux := struct {
		*alias
		ModifiedTime any `json:"modifiedTime"`
	}{alias: (*alias)(m)}
	ext, err := wire.Decode(data, m, &aux)
	if err != nil {
		return err
	}
	m.Extensions = ext
	m.ModifiedTime, err = parseTime("modifiedTime", aux.ModifiedTime)
	return err
}

func (m Model) MarshalJSON() ([]byte, error) {
	type alias Model
	return wire.Encode(alias(m), m.Extensions)
}

func (e *LocalEntity) UnmarshalJSON(data []byte) error {
	type alias LocalEntity
	aux := struct {
		*alias
		LastFileModifiedTime any `json:"cdm:lastFileModifiedTime"`
	}{alias: (*alias)(e)}
	ext, err := wire.Decode(data, e, &aux)
	if err != nil {
		return err
	}
	e.Extensions = ext
	e.LastFileModifiedTime, err = parseTime("cdm:lastFileModifiedTime", aux.LastFileModifiedTime)
	return err
}

func (e LocalEntity) MarshalJSON() ([]byte, error) {
	type alias LocalEntity
	return wire.Encode(alias(e), e.Extensions)
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	type alias Attribute
	ext, err := wire.Decode(data, a, (*alias)(a))
	if err != nil {
		return err
	}
	a.Extensions = ext
	return nil
}

func (a Attribute) MarshalJSON() ([]byte, error) {
	type alias Attribute
	return wire.Encode(alias(a), a.Extensions)
}

func (p *Partition) UnmarshalJSON(data []byte) error {
	type alias Partition
	aux := struct {
		*alias
		RefreshTime             any `json:"refreshTime"`
		LastFileStatusCheckTime any `json:"cdm:lastFileStatusCheckTime"`
		LastFileModifiedTime    any `json:"cdm:lastFileModifiedTime"`
	}{alias: (*alias)(p)}
	ext, err := wire.Decode(data, p, &aux)
	if err != nil {
		return err
	}
	p.Extensions = ext
	if p.RefreshTime, err = parseTime("refreshTime", aux.RefreshTime); err != nil {
		return err
	}
	if p.LastFileStatusCheckTime, err = parseTime("cdm:lastFileStatusCheckTime", aux.LastFileStatusCheckTime); err != nil {
		return err
	}
	p.LastFileModifiedTime, err = parseTime("cdm:lastFileModifiedTime", aux.LastFileModifiedTime)
	return err
}

func (p Partition) MarshalJSON() ([]byte, error) {
	type alias Partition
	return wire.Encode(alias(p), p.Extensions)
}

func (r *SingleKeyRelationship) UnmarshalJSON(data []byte) error {
	type alias SingleKeyRelationship
	ext, err := wire.Decode(data, r, (*alias)(r))
	if err != nil {
		return err
	}
	r.Extensions = ext
	return nil
}

func (r SingleKeyRelationship) MarshalJSON() ([]byte, error) {
	type alias SingleKeyRelationship
	return wire.Encode(alias(r), r.Extensions)
}

// parseTime reads a timestamp in any layout spf13/cast understands.
func parseTime(field string, v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s: timestamp %v is not a string", field, v)
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &t, nil
}
