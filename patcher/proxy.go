package patcher

import "github.com/chazu/dexpatch/pkg/dex"

// ---------------------------------------------------------------------------
// ClassProxy: copy-on-write wrapper over one pool entry
// ---------------------------------------------------------------------------

// ClassProxy wraps one class definition by its pool index. The wrapped
// definition stays untouched until the first Mutable call, which clones it;
// from then on the clone is authoritative and the original is retained only
// for inspection. Most classes in a real pool are never touched by any
// patch, so cloning is deferred to the first write.
type ClassProxy struct {
	index    int
	original *dex.ClassDef
	mutated  *dex.ClassDef
	used     bool
}

func newClassProxy(index int, original *dex.ClassDef) *ClassProxy {
	return &ClassProxy{index: index, original: original}
}

// Index returns the pool index this proxy wraps.
func (p *ClassProxy) Index() int { return p.index }

// Original returns the immutable class definition as loaded. Callers must
// not mutate it; use Mutable for writes.
func (p *ClassProxy) Original() *dex.ClassDef { return p.original }

// Mutable returns the mutable clone of the wrapped definition, creating it
// on first call. Repeated calls return the same instance, so edits
// accumulate rather than re-cloning.
func (p *ClassProxy) Mutable() *dex.ClassDef {
	if !p.used {
		p.mutated = p.original.Clone()
		p.used = true
	}
	return p.mutated
}

// Used reports whether any mutation was requested through this proxy.
func (p *ClassProxy) Used() bool { return p.used }

// Definition returns the effective definition: the mutated clone once the
// proxy has been used, the original otherwise. The serialization fold reads
// the pool through this view.
func (p *ClassProxy) Definition() *dex.ClassDef {
	if p.used {
		return p.mutated
	}
	return p.original
}
