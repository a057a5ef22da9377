package patcher

import "fmt"

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ContainerReadError indicates a malformed or unreadable container input.
// Fatal to the load call that produced it.
type ContainerReadError struct {
	Path string
	Err  error
}

func (e *ContainerReadError) Error() string {
	return fmt.Sprintf("patcher: cannot read container %s: %v", e.Path, e.Err)
}

func (e *ContainerReadError) Unwrap() error { return e.Err }

// DuplicateClassError indicates a merge conflict under strict mode: the
// incoming container declares a type that already exists in the pool and is
// not in the allowed-overwrite set.
type DuplicateClassError struct {
	Type string
}

func (e *DuplicateClassError) Error() string {
	return fmt.Sprintf("patcher: duplicate class %s in merge", e.Type)
}

// UnresolvedSignatureError indicates a declared method fingerprint matched
// nothing in the pool. It surfaces lazily, when a patch dereferences the
// missing entry, not at resolution time.
type UnresolvedSignatureError struct {
	Name string
}

func (e *UnresolvedSignatureError) Error() string {
	return fmt.Sprintf("patcher: signature %q did not resolve to any method", e.Name)
}

// PatchExecutionError wraps a failure raised while a patch runs, whether an
// explicit error return or a recovered panic. It is captured per patch and
// never propagates past the pipeline.
type PatchExecutionError struct {
	Patch string
	Err   error
}

func (e *PatchExecutionError) Error() string {
	return fmt.Sprintf("patcher: patch %q failed: %v", e.Patch, e.Err)
}

func (e *PatchExecutionError) Unwrap() error { return e.Err }
