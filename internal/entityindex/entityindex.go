// Package entityindex maps declared entity names to absolute corpus paths so
// relationship endpoints can be resolved across a whole model.
package entityindex

import (
	"sort"

	"github.com/starford/cdmbridge/internal/corpuspath"
)

// Entry is one declared entity.
type Entry struct {
	Name string
	Path string
}

// Index is immutable once built and safe for concurrent reads.
type Index struct {
	paths      map[string]string
	names      []string
	duplicates []string
}

// Build indexes entries. The result does not depend on the order of
// entries: when a name is declared more than once the lexicographically
// smallest path wins and the name is reported by Duplicates.
func Build(entries []Entry) *Index {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Path < sorted[j].Path
	})

	idx := &Index{paths: make(map[string]string, len(sorted))}
	for _, e := range sorted {
		if _, seen := idx.paths[e.Name]; seen {
			if n := len(idx.duplicates); n == 0 || idx.duplicates[n-1] != e.Name {
				idx.duplicates = append(idx.duplicates, e.Name)
			}
			continue
		}
		idx.paths[e.Name] = e.Path
		idx.names = append(idx.names, e.Name)
	}
	return idx
}

// Resolve returns the corpus path declared for name.
func (i *Index) Resolve(name string) (string, bool) {
	if i == nil {
		return "", false
	}
	p, ok := i.paths[name]
	return p, ok
}

// Len returns the number of distinct names.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.names)
}

// Names returns the indexed names in sorted order.
func (i *Index) Names() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.names...)
}

// Duplicates returns the names declared more than once, sorted.
func (i *Index) Duplicates() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.duplicates...)
}

// EntityName returns the entity name addressed by an entity corpus path,
// which is its last segment.
func EntityName(corpusPath string) string {
	return corpuspath.LastSegment(corpusPath)
}
