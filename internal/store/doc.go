// Package store owns the canonical, id-keyed dataset and the two
// operations that mutate it: merging a validated diff and removing a
// previously merged diff by its provenance key.
//
// Invariants maintained here:
//
//   - Slugs are unique per entity type and immutable once assigned.
//   - Every foreign key resolves to an entity present in the same store.
//   - Ids come from persisted per-type counters and are never reused,
//     even after removal (tombstone semantics). A counter at or below an
//     existing id marks the document as corrupt.
//   - Merge and remove are all-or-nothing: they mutate a clone of the
//     document and swap it in only after every row has been applied.
//
// The store is a single-writer resource; one operation runs at a time
// between a load and a persist. Nothing in this package is safe for
// concurrent mutation and nothing needs to be.
package store
