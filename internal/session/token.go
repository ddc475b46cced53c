package session

import "github.com/google/uuid"

// TokenGenerator produces game instance IDs. The production
// implementation is UUIDv7Generator; tests substitute a fixed
// generator for stable snapshots.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 game IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so IDs sort
// by creation time in listings and checkpoint queries.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
