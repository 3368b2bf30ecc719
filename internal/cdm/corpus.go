package cdm

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/cdmbridge/internal/corpuspath"
)

// PathService maps between storage adapter paths and corpus paths and
// between absolute and document-relative corpus paths.
type PathService interface {
	AdapterPathToCorpusPath(adapterPath string) string
	CorpusPathToAdapterPath(corpusPath string) string
	CreateRelativeCorpusPath(corpusPath string, relativeTo *Document) string
	CreateAbsoluteCorpusPath(objectPath string, relativeTo *Document) string
}

// Corpus constructs model objects and keeps the documents produced during
// conversion addressable by corpus path.
type Corpus struct {
	Storage PathService

	mu        sync.RWMutex
	documents map[string]*Document
}

// NewCorpus creates an empty corpus using paths for path translation.
func NewCorpus(paths PathService) *Corpus {
	return &Corpus{
		Storage:   paths,
		documents: make(map[string]*Document),
	}
}

// MakeObject creates an empty object of the given kind. The returned value is
// a pointer to the concrete type; nil is returned for kinds that cannot be
// constructed by name.
func (c *Corpus) MakeObject(kind ObjectType, name string) Object {
	switch kind {
	case ImportDef:
		return &Import{CorpusPath: name}
	case TraitDef:
		return &TraitDefinition{TraitName: name}
	case TraitRef:
		return NewTraitReference(name, false)
	case TypeAttributeDef:
		return &TypeAttribute{Name: name}
	case AttributeGroupDef:
		return &AttributeGroup{AttributeGroupName: name}
	case AttributeGroupRef:
		return &AttributeGroupReference{Reference: name}
	case EntityDef:
		return &Entity{EntityName: name}
	case DocumentDef:
		return &Document{Name: name}
	case ManifestDef:
		return &Manifest{ManifestName: name}
	case FolderDef:
		return &Folder{FolderName: name}
	case DataPartitionDef:
		return &DataPartition{Name: name}
	case LocalEntityDeclarationDef:
		return &LocalEntityDeclaration{EntityName: name}
	case E2ERelationshipDef:
		return &E2ERelationship{Name: name}
	default:
		return nil
	}
}

// MakeRef creates a trait reference to target. simple marks a bare
// by-name reference without arguments.
func (c *Corpus) MakeRef(kind ObjectType, target string, simple bool) *TraitReference {
	if kind != TraitRef {
		return nil
	}
	return NewTraitReference(target, simple)
}

// Make is a typed wrapper over MakeObject.
func Make[T Object](c *Corpus, kind ObjectType, name string) T {
	obj, _ := c.MakeObject(kind, name).(T)
	return obj
}

// AddDocument registers doc under its absolute corpus path, replacing any
// document previously registered there.
func (c *Corpus) AddDocument(doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents[doc.AtCorpusPath()] = doc
}

// FetchDocument returns the document registered at corpusPath.
func (c *Corpus) FetchDocument(corpusPath string) (*Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.documents[corpuspath.Normalize(corpusPath)]
	return doc, ok
}

// FetchEntity resolves "<document path>/<entity name>" to an entity
// definition.
func (c *Corpus) FetchEntity(corpusPath string) (*Entity, bool) {
	i := strings.LastIndex(corpusPath, "/")
	if i < 0 {
		return nil, false
	}
	doc, ok := c.FetchDocument(corpusPath[:i])
	if !ok {
		return nil, false
	}
	obj, ok := doc.Definition(corpusPath[i+1:])
	if !ok {
		return nil, false
	}
	e, ok := obj.(*Entity)
	return e, ok
}

// Documents returns the number of registered documents.
func (c *Corpus) Documents() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.documents)
}

// CorpusContext carries the collaborators of one conversion pass.
type CorpusContext struct {
	Corpus        *Corpus
	Logger        *slog.Logger
	CorrelationID string
}

// NewContext creates a context with a fresh correlation ID. A nil logger
// falls back to slog.Default at log time.
func NewContext(corpus *Corpus, logger *slog.Logger) *CorpusContext {
	return &CorpusContext{
		Corpus:        corpus,
		Logger:        logger,
		CorrelationID: uuid.NewString(),
	}
}
