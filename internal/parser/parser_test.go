package parser

import (
	"errors"
	"testing"

	"github.com/starford/cdmbridge/internal/apperr"
)

func TestParse_ModelJSON(t *testing.T) {
	input := []byte(`{
		"name": "Sales",
		"version": "1.0",
		"pbi:mashup": {},
		"pbi:x": 1,
		"cdm:traits": [],
		"cdm:imports": [{"corpusPath": "a.cdm.json"}, {"corpusPath": "a.cdm.json"}],
		"entities": [{"$type": "LocalEntity", "name": "Customer"}, {"$type": "LocalEntity", "name": "Order"}, "junk"],
		"relationships": [{}, {}]
	}`)
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Format != FormatModelJSON {
		t.Errorf("format = %q, want %q", r.Format, FormatModelJSON)
	}
	if r.Title != "Sales" {
		t.Errorf("title = %q, want %q", r.Title, "Sales")
	}
	if len(r.Entities) != 2 || r.Entities[0] != "Customer" || r.Entities[1] != "Order" {
		t.Errorf("entities = %v, want [Customer Order]", r.Entities)
	}
	if len(r.Imports) != 1 {
		t.Errorf("imports = %v, want one", r.Imports)
	}
	if len(r.Namespaces) != 1 || r.Namespaces[0] != "pbi" {
		t.Errorf("namespaces = %v, want [pbi]", r.Namespaces)
	}
	if r.Relationships != 2 {
		t.Errorf("relationships = %d, want 2", r.Relationships)
	}
}

func TestParse_Manifest(t *testing.T) {
	r, err := Parse([]byte(`{"manifestName": "default", "entities": [{"entityName": "A"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Format != FormatManifest || r.Title != "default" {
		t.Errorf("got %q %q", r.Format, r.Title)
	}
	if len(r.Entities) != 1 || r.Entities[0] != "A" {
		t.Errorf("entities = %v", r.Entities)
	}
}

func TestParse_Document(t *testing.T) {
	input := []byte(`{"jsonSchemaSemanticVersion": "1.0.0", "imports": [{"corpusPath": "cdm:/foundations.cdm.json"}], "definitions": [{"traitName": "t"}, {"entityName": "Customer"}]}`)
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Format != FormatDocument {
		t.Errorf("format = %q", r.Format)
	}
	if r.Title != "Customer" {
		t.Errorf("title = %q, want Customer", r.Title)
	}
	if len(r.Imports) != 1 || r.Imports[0] != "cdm:/foundations.cdm.json" {
		t.Errorf("imports = %v", r.Imports)
	}
}

func TestParse_UnknownObject(t *testing.T) {
	r, err := Parse([]byte(`{"hello": "world"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Format != FormatUnknown {
		t.Errorf("format = %q, want unknown", r.Format)
	}
}

func TestParse_NotAnObject(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"str"`, ``, `{not json`} {
		if _, err := Parse([]byte(in)); !errors.Is(err, apperr.ErrInvalidWire) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidWire", in, err)
		}
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"model.json", FormatModelJSON},
		{"/data/sales/Model.JSON", FormatModelJSON},
		{"default.manifest.cdm.json", FormatManifest},
		{"Customer.cdm.json", FormatDocument},
		{`C:\corpus\Customer.cdm.json`, FormatDocument},
		{"readme.md", FormatUnknown},
	}
	for _, tt := range tests {
		if got := FormatOf(tt.name); got != tt.want {
			t.Errorf("FormatOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", " ", "b", "a", " b "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("dedupe = %v, want [a b]", got)
	}
}
