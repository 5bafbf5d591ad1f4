// Package store coordinates a storage backend and an in-memory triple index.
//
// GraphStore is the only component that mutates either side, and it keeps
// them in agreement:
//
//   - Open rebuilds the whole index from a backend scan. There is no
//     persisted index, so nothing can drift at rest.
//   - Writers (Insert, InsertBatch, Delete) hold the exclusive lock for the
//     duplicate check, the backend write and the index update.
//   - Readers (Find, Traverse, Stats) hold the shared lock only while
//     resolving candidate IDs; full triples are fetched from the backend
//     after the lock is released.
//
// # Partial failure window
//
// Writes go to the backend before the index. If the process dies, or a
// panic escapes, between the two steps, the backend holds a triple the
// index does not. Nothing rolls the backend write back. A restart repairs
// the gap because Open rebuilds from the backend.
//
// # Poisoning
//
// A panic that escapes a write-locked section marks the store poisoned.
// Every later call fails with ErrIndexPoisoned; the instance must be
// discarded and reopened.
package store
