package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without ambiguity.
const (
	DomainCheckpoint = "gambit/checkpoint/v1"
	DomainTrace      = "gambit/trace/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckpointID computes the content-addressed ID for a serialized flow
// position. Stable across restarts given the same inputs.
func CheckpointID(gameID string, seq int64, position map[string]any) (string, error) {
	obj := map[string]any{
		"game_id":  gameID,
		"seq":      seq,
		"position": position,
	}
	canonical, err := Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("CheckpointID: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainCheckpoint, canonical), nil
}
