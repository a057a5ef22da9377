package patcher

import (
	"testing"

	"github.com/chazu/dexpatch/pkg/dex"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	return newCache(NewPool([]*dex.Container{
		container("classes.dexc",
			classDef("La;"),
			classDef("Lb;"),
			classDef("Lc;"),
		),
	}), nil)
}

func TestProxyForReturnsSameProxy(t *testing.T) {
	cache := testCache(t)

	first := cache.ProxyFor(1)
	second := cache.ProxyFor(1)
	if first != second {
		t.Error("ProxyFor returned two proxies for the same index")
	}
	if first.Index() != 1 {
		t.Errorf("Index() = %d, want 1", first.Index())
	}
}

func TestProxyForType(t *testing.T) {
	cache := testCache(t)

	p := cache.ProxyForType("Lb;")
	if p == nil {
		t.Fatal("ProxyForType(Lb;) = nil")
	}
	if p.Original().Type != "Lb;" {
		t.Errorf("proxy wraps %q, want Lb;", p.Original().Type)
	}
	if cache.ProxyForType("Lmissing;") != nil {
		t.Error("ProxyForType returned a proxy for an absent type")
	}
}

func TestProxyLazyClone(t *testing.T) {
	cache := testCache(t)
	p := cache.ProxyFor(0)

	if p.Used() {
		t.Error("fresh proxy reports Used")
	}
	if p.Definition() != p.Original() {
		t.Error("unused proxy's Definition is not the original")
	}

	m := p.Mutable()
	if !p.Used() {
		t.Error("proxy does not report Used after Mutable")
	}
	if m == p.Original() {
		t.Error("Mutable returned the original instead of a clone")
	}
	if p.Definition() != m {
		t.Error("used proxy's Definition is not the mutable clone")
	}
}

func TestProxyMutableIdentityStable(t *testing.T) {
	cache := testCache(t)
	p := cache.ProxyFor(0)

	first := p.Mutable()
	first.Fields = append(first.Fields, dex.Field{Name: "added", Type: "I"})

	second := p.Mutable()
	if first != second {
		t.Error("repeated Mutable calls returned different clones")
	}
	if second.FieldIndex("added") != 0 {
		t.Error("mutation lost across repeated Mutable calls")
	}
}

func TestProxyWriteIsolation(t *testing.T) {
	cache := testCache(t)

	cache.ProxyFor(0).Mutable().Fields = []dex.Field{{Name: "touched", Type: "I"}}
	cache.ProxyFor(2).Mutable()

	// Class 1 was never touched: no proxy mutation, original untouched.
	if cache.ProxyFor(1).Used() {
		t.Error("untouched class's proxy reports Used")
	}
	if cache.Pool().At(1).FieldIndex("touched") != -1 {
		t.Error("mutation of class 0 leaked into class 1")
	}
	if cache.Pool().At(0).FieldIndex("touched") != -1 {
		t.Error("mutation through proxy leaked into the immutable pool entry")
	}
}

func TestMergeOverwriteInvalidatesProxy(t *testing.T) {
	cache := testCache(t)

	stale := cache.ProxyFor(0)
	stale.Mutable() // mutate the soon-to-be-discarded definition

	replacement := classDef("La;")
	replacement.Fields = []dex.Field{{Name: "fresh", Type: "I"}}
	if err := cache.merge(container("patch.dexc", replacement), []string{"La;"}, false); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	rebuilt := cache.ProxyFor(0)
	if rebuilt == stale {
		t.Error("overwrite merge kept the stale proxy")
	}
	if rebuilt.Original().FieldIndex("fresh") != 0 {
		t.Error("rebuilt proxy does not wrap the replacement definition")
	}
}
