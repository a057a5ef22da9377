package patcher

import (
	"fmt"
	"slices"

	"github.com/chazu/dexpatch/pkg/dex"
)

// ---------------------------------------------------------------------------
// MethodSignature: declarative method fingerprints
// ---------------------------------------------------------------------------

// OpPattern is one slot of an opcode pattern. Any marks a don't-care slot
// that matches any single opcode, which keeps fingerprints stable across
// app versions that shuffle registers or constants.
type OpPattern struct {
	Op  dex.Opcode
	Any bool
}

// MethodSignature is a declarative fingerprint used to locate a method whose
// name may be obfuscated or unknown ahead of time. A method matches when its
// access flags contain FlagsMask, its return type and parameter types agree
// with the declared ones, and its opcode sequence contains Pattern.
type MethodSignature struct {
	// Name is the handle patches use to look up the resolved method.
	Name string

	// FlagsMask is an access-flag mask; every set bit must be present on
	// the candidate method. Zero matches any flags.
	FlagsMask dex.AccessFlags

	// ReturnType must equal the candidate's return type when non-empty.
	ReturnType string

	// Params must equal the candidate's parameter types when non-nil.
	// A nil slice is a wildcard; an empty non-nil slice means "no
	// parameters".
	Params []string

	// Pattern is the opcode sequence the candidate's code must contain.
	// An empty pattern matches any code.
	Pattern []OpPattern
}

// Matches reports whether the method fits this fingerprint, and if so the
// instruction offset at which the opcode pattern starts.
func (s *MethodSignature) Matches(m *dex.Method) (offset int, ok bool) {
	if !m.Flags.Has(s.FlagsMask) {
		return 0, false
	}
	if s.ReturnType != "" && m.ReturnType != s.ReturnType {
		return 0, false
	}
	if s.Params != nil && !slices.Equal(s.Params, m.Params) {
		return 0, false
	}
	return patternIndex(m.Opcodes(), s.Pattern)
}

// patternIndex returns the first offset at which pattern occurs in ops.
// Don't-care slots match any single opcode. An empty pattern matches at
// offset 0.
func patternIndex(ops []dex.Opcode, pattern []OpPattern) (int, bool) {
	if len(pattern) == 0 {
		return 0, true
	}
	if len(pattern) > len(ops) {
		return 0, false
	}
	for start := 0; start <= len(ops)-len(pattern); start++ {
		matched := true
		for i, p := range pattern {
			if !p.Any && ops[start+i] != p.Op {
				matched = false
				break
			}
		}
		if matched {
			return start, true
		}
	}
	return 0, false
}

// ParsePattern compiles a mnemonic pattern into opcode slots. Each entry is
// a dex-style mnemonic, or "*" for a don't-care slot. This is the form the
// bundle manifest declares patterns in.
func ParsePattern(mnemonics []string) ([]OpPattern, error) {
	pattern := make([]OpPattern, len(mnemonics))
	for i, m := range mnemonics {
		if m == "*" {
			pattern[i] = OpPattern{Any: true}
			continue
		}
		op, ok := dex.FromMnemonic(m)
		if !ok {
			return nil, fmt.Errorf("patcher: unknown mnemonic %q in pattern", m)
		}
		pattern[i] = OpPattern{Op: op}
	}
	return pattern, nil
}

// ---------------------------------------------------------------------------
// ResolvedMethod: a fingerprint bound to a concrete pool location
// ---------------------------------------------------------------------------

// ResolvedMethod binds a signature's declared name to a concrete class
// proxy and method index, plus the instruction offset where the opcode
// pattern matched. Binding to a proxy rather than a raw pool index means
// any later mutation of the owning class is already proxy-aware.
type ResolvedMethod struct {
	Proxy         *ClassProxy
	MethodIndex   int
	PatternOffset int
}

// Method returns a read-only view of the resolved method, taken from the
// proxy's effective definition so earlier patches' mutations are visible.
func (r *ResolvedMethod) Method() *dex.Method {
	return &r.Proxy.Definition().Methods[r.MethodIndex]
}

// MutableMethod returns the resolved method from the proxy's mutable clone,
// triggering copy-on-write on the owning class.
func (r *ResolvedMethod) MutableMethod() *dex.Method {
	return &r.Proxy.Mutable().Methods[r.MethodIndex]
}
