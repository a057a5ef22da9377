package patcher

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/dexpatch/pkg/dex"
)

var log = commonlog.GetLogger("dexpatch.patcher")

// ---------------------------------------------------------------------------
// Patcher: load, merge, resolve, apply, save
// ---------------------------------------------------------------------------

// Patcher orchestrates one patching session: it loads containers into the
// Cache, merges additional containers, triggers signature resolution exactly
// once, runs the registered patches in order, and serializes the mutated
// pool back into output containers.
type Patcher struct {
	cache   *Cache
	patches []Patch
	byName  map[string]bool
}

// New reads the primary containers from the given paths and builds the
// patching session around them and the declared signature set. Returns a
// ContainerReadError if any container is malformed or unreadable.
func New(paths []string, signatures []*MethodSignature) (*Patcher, error) {
	containers := make([]*dex.Container, 0, len(paths))
	for _, path := range paths {
		c, err := dex.ReadContainerFile(path)
		if err != nil {
			return nil, &ContainerReadError{Path: path, Err: err}
		}
		containers = append(containers, c)
	}
	log.Infof("loaded %d containers", len(containers))
	return NewFromContainers(containers, signatures), nil
}

// NewFromContainers builds a patching session from already-decoded
// containers, in the given order. Useful for embedding and tests.
func NewFromContainers(containers []*dex.Container, signatures []*MethodSignature) *Patcher {
	return &Patcher{
		cache:  newCache(NewPool(containers), signatures),
		byName: make(map[string]bool),
	}
}

// Cache returns the session's shared cache.
func (p *Patcher) Cache() *Cache { return p.cache }

// AddContainers merges additional container files into the pool: new types
// append, types in allowedOverwrites replace in place, other duplicates
// fail under strict mode or are skipped. A failure
// aborts the remaining paths; containers merged before it are retained.
func (p *Patcher) AddContainers(paths []string, allowedOverwrites []string, strict bool) error {
	for _, path := range paths {
		c, err := dex.ReadContainerFile(path)
		if err != nil {
			return &ContainerReadError{Path: path, Err: err}
		}
		if err := p.cache.merge(c, allowedOverwrites, strict); err != nil {
			return err
		}
		log.Infof("merged container %s (%d classes)", c.Name, len(c.Classes))
	}
	return nil
}

// AddPatches registers patches for execution. Registration has set
// semantics keyed by patch name: a name seen before is ignored, and the
// first registration's position fixes execution order.
func (p *Patcher) AddPatches(patches ...Patch) {
	for _, patch := range patches {
		if p.byName[patch.Name()] {
			continue
		}
		p.byName[patch.Name()] = true
		p.patches = append(p.patches, patch)
	}
}

// ApplyPatches runs every registered patch in registration order against
// the shared Cache and returns the outcome per patch name. Signature
// resolution runs lazily here, once, before the first patch.
//
// onProgress, if non-nil, is called with each patch's name before it runs.
// With stopOnError set, the pipeline halts after the first failure and the
// remaining patches stay absent from the result map; otherwise every patch
// runs regardless of earlier failures.
func (p *Patcher) ApplyPatches(stopOnError bool, onProgress func(name string)) map[string]PatchResult {
	p.cache.resolve()

	results := make(map[string]PatchResult, len(p.patches))
	for _, patch := range p.patches {
		name := patch.Name()
		if onProgress != nil {
			onProgress(name)
		}

		result := runPatch(patch, p.cache)
		results[name] = result

		if result.OK {
			log.Infof("patch %s succeeded", name)
			continue
		}
		log.Errorf("patch %s failed: %s", name, result.Message)
		if stopOnError {
			break
		}
	}
	return results
}

// runPatch executes one patch, normalizing explicit errors and panics into
// the same failure representation so nothing escapes the pipeline.
func runPatch(patch Patch, cache *Cache) (result PatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failureResult(&PatchExecutionError{
				Patch: patch.Name(),
				Err:   fmt.Errorf("panic: %v", r),
			})
		}
	}()

	value, err := patch.Execute(cache)
	if err != nil {
		return failureResult(&PatchExecutionError{Patch: patch.Name(), Err: err})
	}
	return successResult(value)
}

// Save folds every used proxy's mutated definition over its pool entry and
// serializes the effective class set per source container. The fold is a
// view, not a destructive rewrite: repeated calls are safe as long as no
// new mutations occur between them.
func (p *Patcher) Save() (map[string][]byte, error) {
	pool := p.cache.pool

	// Group effective definitions by source container, preserving pool
	// order within each.
	grouped := make(map[string][]*dex.ClassDef)
	for i := 0; i < pool.Len(); i++ {
		def := pool.At(i)
		if proxy, ok := p.cache.proxies[i]; ok && proxy.Used() {
			def = proxy.Definition()
		}
		name := pool.Source(i)
		grouped[name] = append(grouped[name], def)
	}

	outputs := make(map[string][]byte, len(grouped))
	for _, name := range pool.ContainerNames() {
		c := &dex.Container{
			Name:    name,
			OpSet:   pool.OpSet(name),
			Classes: grouped[name],
		}
		data, err := c.Serialize()
		if err != nil {
			return nil, fmt.Errorf("patcher: serialize %s: %w", name, err)
		}
		outputs[name] = data
	}
	log.Infof("serialized %d output containers", len(outputs))
	return outputs, nil
}
