// Package wire captures the JSON properties a wire struct does not declare
// and writes them back after the declared ones, preserving their order and
// their raw bytes.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/buger/jsonparser"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/extension"
)

// Extensions holds undeclared properties in document order.
type Extensions = extension.Properties

// TypeKey is the discriminant property of polymorphic model.json nodes.
const TypeKey = "$type"

// SplitUnknown separates the top-level properties of the JSON object data.
// It returns an object holding only the properties named exactly in known,
// and the remaining ones in document order (nil when there are none).
// Names match case-sensitively, so a property differing from a declared one
// only by case stays an extension and never reaches the declared field.
func SplitUnknown(data []byte, known map[string]struct{}) ([]byte, *Extensions, error) {
	var ext *Extensions
	var kept bytes.Buffer
	kept.Grow(len(data))
	kept.WriteByte('{')
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		if _, ok := known[name]; ok {
			if kept.Len() > 1 {
				kept.WriteByte(',')
			}
			kept.WriteByte('"')
			kept.Write(key)
			kept.WriteString(`":`)
			kept.Write(rawOf(value, dataType))
			return nil
		}
		if ext == nil {
			ext = extension.NewProperties()
		}
		ext.Set(name, rawOf(value, dataType))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: scan properties: %v: %w", err, apperr.ErrInvalidWire)
	}
	kept.WriteByte('}')
	return kept.Bytes(), ext, nil
}

// Decode unmarshals the properties of data declared by the struct type of v
// into dst and returns the undeclared ones. dst is usually an alias of v
// without its UnmarshalJSON method.
func Decode(data []byte, v, dst any) (*Extensions, error) {
	known, ext, err := SplitUnknown(data, KnownFields(v))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(known, dst); err != nil {
		return nil, err
	}
	return ext, nil
}

// Encode marshals v and appends ext after its declared properties.
func Encode(v any, ext *Extensions) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return MergeExtensions(b, ext)
}

// MergeExtensions appends ext to the JSON object base. Properties already
// present in base are not duplicated.
func MergeExtensions(base []byte, ext *Extensions) ([]byte, error) {
	if ext == nil || ext.Len() == 0 {
		return base, nil
	}
	present := make(map[string]struct{})
	err := jsonparser.ObjectEach(base, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		present[string(key)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("wire: merge extensions: %w", err)
	}

	end := bytes.LastIndexByte(base, '}')
	if end < 0 {
		return nil, fmt.Errorf("wire: merge extensions: base is not an object: %w", apperr.ErrInvalidWire)
	}
	var buf bytes.Buffer
	buf.Grow(len(base) + 64*ext.Len())
	buf.Write(base[:end])
	first := len(present) == 0
	for p := ext.Oldest(); p != nil; p = p.Next() {
		if _, dup := present[p.Key]; dup {
			continue
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, fmt.Errorf("wire: merge extensions: %w", err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		if len(p.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(p.Value)
		}
	}
	buf.Write(base[end:])
	return buf.Bytes(), nil
}

// Discriminant returns the "$type" value of a JSON object, "" when absent.
func Discriminant(data []byte) string {
	s, err := jsonparser.GetString(data, TypeKey)
	if err != nil {
		return ""
	}
	return s
}

var knownCache sync.Map // reflect.Type -> map[string]struct{}

// KnownFields returns the JSON property names declared by the struct type of
// v through its json tags, including those of embedded structs.
func KnownFields(v any) map[string]struct{} {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := knownCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	out := make(map[string]struct{})
	collect(t, out)
	knownCache.Store(t, out)
	return out
}

func collect(t reflect.Type, out map[string]struct{}) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collect(ft, out)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = struct{}{}
	}
}

func rawOf(value []byte, dataType jsonparser.ValueType) json.RawMessage {
	if dataType == jsonparser.String {
		raw := make(json.RawMessage, 0, len(value)+2)
		raw = append(raw, '"')
		raw = append(raw, value...)
		return append(raw, '"')
	}
	if dataType == jsonparser.Null {
		return json.RawMessage("null")
	}
	raw := make(json.RawMessage, len(value))
	copy(raw, value)
	return raw
}
