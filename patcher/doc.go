// Package patcher is the resolution and copy-on-write core of the patching
// engine. It loads an application package into an ordered class pool, lets
// registered patches locate methods through declarative fingerprints and
// mutate classes through copy-on-write proxies, and folds the mutations back
// into serialized output containers.
//
// A session revolves around three pieces:
//
//   - Pool: the ordered, type-name-unique class pool loaded from one or
//     more containers, with a merge operation governed by an
//     allowed-overwrite list and a strict-duplicate flag
//
//   - Cache: the single shared mutable context. It owns the pool, a sparse
//     proxy map (one copy-on-write ClassProxy per class ever touched), and
//     the fingerprint lookup populated by a one-shot resolution pass
//
//   - Patcher: the orchestrator. Patches run sequentially in registration
//     order against the same Cache, each outcome normalized into a
//     PatchResult; Save substitutes every used proxy's clone at its pool
//     index and re-serializes per source container
//
// Execution is strictly single-threaded: later patches observe earlier
// patches' proxy mutations, and correctness rests on that ordering rather
// than on locks.
package patcher
