// Package session binds the pieces of one running game: the board,
// the roster, the action executor, and the flow engine, behind a
// single-writer facade. A Game instance is not safe for concurrent
// use; callers serialize access per game, and distinct games share
// nothing.
//
// The package also owns durability: snapshots capture the full game
// (board, roster, flow position, move counter) as plain data with a
// content-addressed checkpoint ID, and RestoreGame rebuilds a live
// game from a snapshot plus the original Spec.
package session
