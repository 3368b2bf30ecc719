// Package parser inspects raw JSON documents and reports which persistence
// format they are in, together with the names they declare.
package parser

import (
	"fmt"
	"path"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/starford/cdmbridge/internal/apperr"
)

// Format is a persistence wire format.
type Format string

const (
	FormatUnknown   Format = ""
	FormatModelJSON Format = "model.json"
	FormatManifest  Format = "manifest.cdm.json"
	FormatDocument  Format = "cdm.json"
)

// Result holds what Parse found in a document.
type Result struct {
	Format Format `json:"format"`
	// Title is the model, manifest or first entity name.
	Title string `json:"title"`
	// Entities lists declared entity names in document order.
	Entities []string `json:"entities"`
	// Imports lists imported corpus paths, deduplicated.
	Imports []string `json:"imports,omitempty"`
	// Namespaces lists top-level extension namespaces, deduplicated.
	Namespaces []string `json:"namespaces,omitempty"`
	// Relationships counts declared relationships.
	Relationships int `json:"relationships"`
}

// FormatOf guesses the format from a file name alone.
func FormatOf(name string) Format {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	switch {
	case base == "model.json":
		return FormatModelJSON
	case strings.HasSuffix(base, ".manifest.cdm.json"):
		return FormatManifest
	case strings.HasSuffix(base, ".cdm.json"):
		return FormatDocument
	}
	return FormatUnknown
}

// Parse inspects data without decoding it fully. A document that is not a
// JSON object fails with apperr.ErrInvalidWire; an object of no known shape
// yields FormatUnknown.
func Parse(data []byte) (*Result, error) {
	if _, typ, _, err := jsonparser.Get(data); err != nil || typ != jsonparser.Object {
		return nil, fmt.Errorf("parser: not a JSON object: %w", apperr.ErrInvalidWire)
	}

	r := &Result{Format: detect(data)}
	switch r.Format {
	case FormatModelJSON:
		r.Title, _ = jsonparser.GetString(data, "name")
		r.Entities = collectStrings(data, "name", "entities")
		r.Imports = dedupe(collectStrings(data, "corpusPath", "cdm:imports"))
		r.Relationships = count(data, "relationships")
		r.Namespaces = extensionNamespaces(data)
	case FormatManifest:
		r.Title, _ = jsonparser.GetString(data, "manifestName")
		r.Entities = collectStrings(data, "entityName", "entities")
		r.Imports = dedupe(collectStrings(data, "corpusPath", "imports"))
		r.Relationships = count(data, "relationships")
	case FormatDocument:
		r.Entities = collectStrings(data, "entityName", "definitions")
		r.Imports = dedupe(collectStrings(data, "corpusPath", "imports"))
		if len(r.Entities) > 0 {
			r.Title = r.Entities[0]
		}
	}
	return r, nil
}

// detect classifies the object by its distinguishing top-level keys.
func detect(data []byte) Format {
	if hasKey(data, "manifestName") {
		return FormatManifest
	}
	if hasKey(data, "definitions") || hasKey(data, "jsonSchemaSemanticVersion") {
		return FormatDocument
	}
	if hasKey(data, "entities") && hasKey(data, "name") {
		return FormatModelJSON
	}
	return FormatUnknown
}

func hasKey(data []byte, key string) bool {
	_, _, _, err := jsonparser.Get(data, key)
	return err == nil
}

// collectStrings returns field of every object in the array at key,
// skipping elements where it is absent.
func collectStrings(data []byte, field string, key string) []string {
	var out []string
	_, _ = jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, _ error) {
		if typ != jsonparser.Object {
			return
		}
		if s, err := jsonparser.GetString(value, field); err == nil && s != "" {
			out = append(out, s)
		}
	}, key)
	return out
}

func count(data []byte, key string) int {
	n := 0
	_, _ = jsonparser.ArrayEach(data, func([]byte, jsonparser.ValueType, int, error) { n++ }, key)
	return n
}

// extensionNamespaces returns the namespaces of top-level "ns:name" keys.
func extensionNamespaces(data []byte) []string {
	var names []string
	_ = jsonparser.ObjectEach(data, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		k := string(key)
		if i := strings.Index(k, ":"); i > 0 && i < len(k)-1 && k[:i] != "cdm" {
			names = append(names, k[:i])
		}
		return nil
	})
	return dedupe(names)
}

// dedupe drops repeated and empty values, keeping first occurrences.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
