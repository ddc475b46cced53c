// Package game provides the entity/state tree that actions mutate and
// query, plus the ordered participant roster.
//
// The flow engine and action executor treat this package as an external
// collaborator: they only depend on piece queries, ownership, and the
// roster's current pointer. The in-memory implementation here is the
// reference used by the harness, the CLI, and tests.
//
// DETERMINISM:
//
// Query results are returned in document order (depth-first from the
// board root, children in insertion order). Piece IDs are assigned from
// per-kind counters, never from randomness or wall-clock time. Two
// boards built by the same call sequence are byte-identical when
// serialized.
//
// Boards share no state between instances; concurrent games never
// interfere. A single board is NOT safe for concurrent mutation -
// callers serialize calls per game instance.
package game
