// Package store provides durable checkpoint storage for game
// snapshots, using SQLite with WAL mode for concurrent read access.
//
// Checkpoints are content-addressed: the row key is the snapshot's
// canonical hash, so writing the same game state twice is a no-op and
// two processes can never disagree about what a checkpoint ID refers
// to. Per game, (game_id, seq) is unique; Latest returns the highest
// seq, which is the resume point.
package store
