package patcher

import "github.com/chazu/dexpatch/pkg/dex"

// ---------------------------------------------------------------------------
// Cache: the shared mutable context patches operate on
// ---------------------------------------------------------------------------

// Cache combines the class pool, the live proxy set, and the resolved-method
// lookup. It is created once per patching session and is the only object
// patches are allowed to touch; patches borrow it for the duration of
// Execute and must not retain references afterward.
type Cache struct {
	pool       *Pool
	proxies    map[int]*ClassProxy
	signatures []*MethodSignature
	lookup     map[string]*ResolvedMethod
	resolved   bool
}

func newCache(pool *Pool, signatures []*MethodSignature) *Cache {
	return &Cache{
		pool:       pool,
		proxies:    make(map[int]*ClassProxy),
		signatures: signatures,
	}
}

// Pool returns the class pool.
func (c *Cache) Pool() *Pool { return c.pool }

// ProxyFor returns the proxy for the given pool index, creating and
// registering one if none exists yet.
func (c *Cache) ProxyFor(index int) *ClassProxy {
	if p, ok := c.proxies[index]; ok {
		return p
	}
	p := newClassProxy(index, c.pool.At(index))
	c.proxies[index] = p
	return p
}

// ProxyForType returns the proxy for the class with the given type name.
// Returns nil if no such class exists in the pool.
func (c *Cache) ProxyForType(typeName string) *ClassProxy {
	i := c.pool.IndexOf(typeName)
	if i < 0 {
		return nil
	}
	return c.ProxyFor(i)
}

// Method returns the resolved method for the given signature name.
// A fingerprint that matched nothing surfaces here as
// UnresolvedSignatureError, not at resolution time, so signatures unused by
// the current patch set never fail anything.
func (c *Cache) Method(name string) (*ResolvedMethod, error) {
	r, declared := c.lookup[name]
	if !declared || r == nil {
		return nil, &UnresolvedSignatureError{Name: name}
	}
	return r, nil
}

// Resolve forces signature resolution without running any patches. Patch
// application resolves on its own; this is for inspection tools that want
// to query resolved methods directly.
func (c *Cache) Resolve() {
	c.resolve()
}

// resolve matches every declared signature against the pool and populates
// the method lookup. First match in pool order wins, so results are
// deterministic for a fixed pool ordering. Resolution runs at most once per
// session; later calls are no-ops.
func (c *Cache) resolve() {
	if c.resolved {
		return
	}
	c.resolved = true

	c.lookup = make(map[string]*ResolvedMethod, len(c.signatures))
	for _, sig := range c.signatures {
		c.lookup[sig.Name] = c.resolveOne(sig)
	}
}

// resolveOne scans the pool for the first method matching the signature.
// Returns nil when nothing matches: the unresolved sentinel Method reports
// lazily.
func (c *Cache) resolveOne(sig *MethodSignature) *ResolvedMethod {
	for i := 0; i < c.pool.Len(); i++ {
		def := c.pool.At(i)
		for j := range def.Methods {
			if offset, ok := sig.Matches(&def.Methods[j]); ok {
				return &ResolvedMethod{
					Proxy:         c.ProxyFor(i),
					MethodIndex:   j,
					PatternOffset: offset,
				}
			}
		}
	}
	return nil
}

// merge folds a container into the pool and drops any proxy whose index was
// overwritten: a stale proxy would fold discarded content back into the
// output. The next ProxyFor call at that index rebuilds against the new
// definition.
func (c *Cache) merge(container *dex.Container, allowedOverwrites []string, strict bool) error {
	overwritten, err := c.pool.Merge(container, allowedOverwrites, strict)
	for _, i := range overwritten {
		delete(c.proxies, i)
	}
	return err
}
