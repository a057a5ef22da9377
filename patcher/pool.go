package patcher

import (
	"slices"

	"github.com/chazu/dexpatch/pkg/dex"
)

// ---------------------------------------------------------------------------
// Pool: the ordered class pool loaded from one or more containers
// ---------------------------------------------------------------------------

// Pool is the ordered collection of immutable class definitions loaded from
// an application package, plus the per-container opcode context needed to
// serialize them again. Positions are stable until a merge overwrites an
// entry.
type Pool struct {
	classes []*dex.ClassDef
	sources []string // container name per class index
	opsets  map[string]dex.OpcodeSet
	order   []string // container names in load order
	byType  map[string]int
}

// NewPool builds a pool from containers in the given order. Type names are
// unique in the pool: a type repeated across (or within) the initial
// containers keeps its first definition, and the repeat is logged.
func NewPool(containers []*dex.Container) *Pool {
	p := &Pool{
		opsets: make(map[string]dex.OpcodeSet),
		byType: make(map[string]int),
	}
	for _, c := range containers {
		p.appendContainer(c)
	}
	return p
}

func (p *Pool) appendContainer(c *dex.Container) {
	p.opsets[c.Name] = c.OpSet
	p.order = append(p.order, c.Name)
	for _, def := range c.Classes {
		if _, exists := p.byType[def.Type]; exists {
			log.Warningf("duplicate class %s at load time, keeping the first definition", def.Type)
			continue
		}
		p.byType[def.Type] = len(p.classes)
		p.classes = append(p.classes, def)
		p.sources = append(p.sources, c.Name)
	}
}

// Len returns the number of classes in the pool.
func (p *Pool) Len() int { return len(p.classes) }

// At returns the class definition at the given pool index.
func (p *Pool) At(index int) *dex.ClassDef { return p.classes[index] }

// Source returns the container name the class at index came from.
func (p *Pool) Source(index int) string { return p.sources[index] }

// IndexOf returns the pool index of the class with the given type name,
// or -1 if absent.
func (p *Pool) IndexOf(typeName string) int {
	if i, ok := p.byType[typeName]; ok {
		return i
	}
	return -1
}

// ContainerNames returns the source container names in load order.
func (p *Pool) ContainerNames() []string {
	return slices.Clone(p.order)
}

// OpSet returns the opcode context of the named source container.
func (p *Pool) OpSet(name string) dex.OpcodeSet { return p.opsets[name] }

// Merge merges one container into the pool. For each incoming class:
// absent type names are appended; present ones are replaced in place when
// listed in allowedOverwrites; otherwise the merge fails with
// DuplicateClassError under strict mode or silently keeps the existing
// definition.
//
// Returns the pool indices that were overwritten, so the caller can
// invalidate any proxy still referencing the discarded definitions.
//
// Under strict mode conflicts are detected before any class is merged, so
// a failing call leaves the pool exactly as it was.
func (p *Pool) Merge(c *dex.Container, allowedOverwrites []string, strict bool) ([]int, error) {
	if strict {
		// A type repeated within the incoming container is a duplicate
		// too: its first occurrence would be in the pool by the time the
		// second merges.
		seen := make(map[string]bool, len(c.Classes))
		for _, def := range c.Classes {
			_, exists := p.byType[def.Type]
			if (exists || seen[def.Type]) && !slices.Contains(allowedOverwrites, def.Type) {
				return nil, &DuplicateClassError{Type: def.Type}
			}
			seen[def.Type] = true
		}
	}

	if _, known := p.opsets[c.Name]; !known {
		p.opsets[c.Name] = c.OpSet
		p.order = append(p.order, c.Name)
	}

	var overwritten []int
	for _, def := range c.Classes {
		i, exists := p.byType[def.Type]
		switch {
		case !exists:
			p.byType[def.Type] = len(p.classes)
			p.classes = append(p.classes, def)
			p.sources = append(p.sources, c.Name)
		case slices.Contains(allowedOverwrites, def.Type):
			p.classes[i] = def
			overwritten = append(overwritten, i)
		default:
			// Keep the existing definition.
		}
	}
	return overwritten, nil
}
