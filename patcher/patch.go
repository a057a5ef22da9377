package patcher

// ---------------------------------------------------------------------------
// Patch: an external unit of work over the Cache
// ---------------------------------------------------------------------------

// Patch is a named unit of patching logic. Execute reads and mutates the
// shared Cache and returns a result payload or an error. Patches are
// stateless between invocations except through the Cache, and must not
// retain Cache references past the Execute call.
type Patch interface {
	Name() string
	Execute(c *Cache) (any, error)
}

// PatchFunc adapts a plain function into a Patch.
type PatchFunc struct {
	PatchName string
	Fn        func(c *Cache) (any, error)
}

// Name returns the patch name.
func (p PatchFunc) Name() string { return p.PatchName }

// Execute runs the wrapped function.
func (p PatchFunc) Execute(c *Cache) (any, error) { return p.Fn(c) }

// PatchResult is the normalized outcome of one patch: success with an
// arbitrary payload, or failure with a message. Explicit error returns and
// panics raised during Execute both normalize into the failure form.
type PatchResult struct {
	OK      bool
	Value   any
	Message string
	Err     error
}

func successResult(value any) PatchResult {
	return PatchResult{OK: true, Value: value}
}

func failureResult(err error) PatchResult {
	return PatchResult{OK: false, Message: err.Error(), Err: err}
}
