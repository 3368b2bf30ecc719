package storage

import (
	"fmt"
	"strings"
	"sync"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/corpuspath"
)

// Manager routes corpus paths to adapters by namespace. It implements
// cdm.PathService.
type Manager struct {
	defaultNamespace string

	mu       sync.RWMutex
	adapters map[string]Adapter
	order    []string
}

var _ cdm.PathService = (*Manager)(nil)

// NewManager creates a manager. Paths without a namespace resolve to
// defaultNamespace.
func NewManager(defaultNamespace string) *Manager {
	return &Manager{
		defaultNamespace: defaultNamespace,
		adapters:         make(map[string]Adapter),
	}
}

// DefaultNamespace returns the namespace used for paths without one.
func (m *Manager) DefaultNamespace() string {
	return m.defaultNamespace
}

// Mount registers a under namespace, replacing any previous adapter there.
// Adapters are tried in mount order when mapping adapter paths back.
func (m *Manager) Mount(namespace string, a Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.adapters[namespace]; !exists {
		m.order = append(m.order, namespace)
	}
	m.adapters[namespace] = a
}

// Adapter returns the adapter mounted under namespace.
func (m *Manager) Adapter(namespace string) (Adapter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.adapters[namespace]
	return a, ok
}

// Resolve returns the adapter and namespace-free path for an absolute
// corpus path.
func (m *Manager) Resolve(corpusPath string) (Adapter, string, error) {
	ns, rest := corpuspath.Split(corpusPath)
	if ns == "" {
		ns = m.defaultNamespace
	}
	a, ok := m.Adapter(ns)
	if !ok {
		return nil, "", fmt.Errorf("storage: namespace %q: %w", ns, apperr.ErrNotFound)
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return a, rest, nil
}

// AdapterPathToCorpusPath finds the first mounted adapter that owns
// adapterPath and returns the namespaced corpus path, or "" when no adapter
// does.
func (m *Manager) AdapterPathToCorpusPath(adapterPath string) string {
	if adapterPath == "" {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ns := range m.order {
		if cp, ok := m.adapters[ns].CreateCorpusPath(adapterPath); ok {
			return corpuspath.Join(ns, cp)
		}
	}
	return ""
}

// CorpusPathToAdapterPath maps an absolute corpus path to the native path of
// its adapter, or "" when it cannot be mapped.
func (m *Manager) CorpusPathToAdapterPath(corpusPath string) string {
	if corpusPath == "" {
		return ""
	}
	a, rest, err := m.Resolve(corpusPath)
	if err != nil {
		return ""
	}
	p, err := a.CreateAdapterPath(rest)
	if err != nil {
		return ""
	}
	return p
}

// CreateRelativeCorpusPath expresses corpusPath relative to the folder of
// relativeTo when it lies under it.
func (m *Manager) CreateRelativeCorpusPath(corpusPath string, relativeTo *cdm.Document) string {
	if relativeTo == nil {
		return corpusPath
	}
	return corpuspath.ToRelative(corpusPath, m.folderOf(relativeTo))
}

// CreateAbsoluteCorpusPath resolves objectPath against the folder of
// relativeTo.
func (m *Manager) CreateAbsoluteCorpusPath(objectPath string, relativeTo *cdm.Document) string {
	if relativeTo == nil {
		return objectPath
	}
	return corpuspath.ToAbsolute(objectPath, m.folderOf(relativeTo))
}

func (m *Manager) folderOf(doc *cdm.Document) string {
	ns, rest := corpuspath.Split(doc.FolderPath)
	if ns == "" && m.defaultNamespace != "" {
		if !strings.HasPrefix(rest, "/") {
			rest = "/" + rest
		}
		return corpuspath.Join(m.defaultNamespace, rest)
	}
	return doc.FolderPath
}
