package extension

import (
	"sort"
	"sync"

	"github.com/starford/cdmbridge/internal/cdm"
)

// Pool holds extension trait definitions in creation order. A session keeps
// one global pool; each manifest being read gets its own local pool.
type Pool struct {
	mu     sync.Mutex
	defs   []*cdm.TraitDefinition
	byName map[string]*cdm.TraitDefinition
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{byName: make(map[string]*cdm.TraitDefinition)}
}

// Lookup returns the definition named traitName.
func (p *Pool) Lookup(traitName string) (*cdm.TraitDefinition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.byName[traitName]
	return d, ok
}

// Definitions returns the definitions in the order they were added.
func (p *Pool) Definitions() []*cdm.TraitDefinition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*cdm.TraitDefinition, len(p.defs))
	copy(out, p.defs)
	return out
}

// Len returns the number of definitions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.defs)
}

// caller holds p.mu.
func (p *Pool) addLocked(d *cdm.TraitDefinition) {
	if _, ok := p.byName[d.TraitName]; ok {
		return
	}
	p.byName[d.TraitName] = d
	p.defs = append(p.defs, d)
}

// Resolve returns the definition for traitName, looking in local first and
// then global. A definition found only in global is added to local so the
// manifest's extension document lists every namespace it uses. When neither
// pool has it a new definition extending the base trait is created in both.
// Either pool may be nil. The whole check-then-create runs with both pools
// locked, local before global.
func Resolve(ctx *cdm.CorpusContext, traitName string, local, global *Pool) *cdm.TraitDefinition {
	if local == global {
		global = nil
	}
	if local != nil {
		local.mu.Lock()
		defer local.mu.Unlock()
		if d, ok := local.byName[traitName]; ok {
			return d
		}
	}
	if global != nil {
		global.mu.Lock()
		defer global.mu.Unlock()
		if d, ok := global.byName[traitName]; ok {
			if local != nil {
				local.addLocked(d)
			}
			return d
		}
	}

	d := newDefinition(ctx, traitName)
	if local != nil {
		local.addLocked(d)
	}
	if global != nil {
		global.addLocked(d)
	}
	return d
}

func newDefinition(ctx *cdm.CorpusContext, traitName string) *cdm.TraitDefinition {
	var d *cdm.TraitDefinition
	var base *cdm.TraitReference
	if ctx != nil && ctx.Corpus != nil {
		d = cdm.Make[*cdm.TraitDefinition](ctx.Corpus, cdm.TraitDef, traitName)
		base = ctx.Corpus.MakeRef(cdm.TraitRef, BaseTrait, true)
	}
	if d == nil {
		d = &cdm.TraitDefinition{TraitName: traitName}
	}
	if base == nil {
		base = cdm.NewTraitReference(BaseTrait, true)
	}
	d.ExtendsTrait = base
	return d
}

// NewDocument wraps the local pool's definitions, sorted by name, in the
// extension document stored next to the manifest at folderPath. It returns
// nil for an empty pool.
func NewDocument(ctx *cdm.CorpusContext, local *Pool, folderPath string) *cdm.Document {
	if local == nil || local.Len() == 0 {
		return nil
	}
	var doc *cdm.Document
	if ctx != nil && ctx.Corpus != nil {
		doc = cdm.Make[*cdm.Document](ctx.Corpus, cdm.DocumentDef, DocumentName)
	}
	if doc == nil {
		doc = &cdm.Document{Name: DocumentName}
	}
	doc.FolderPath = folderPath
	defs := local.Definitions()
	sort.Slice(defs, func(i, j int) bool { return defs[i].TraitName < defs[j].TraitName })
	for _, d := range defs {
		doc.Definitions = append(doc.Definitions, d)
	}
	return doc
}
