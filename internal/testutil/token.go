// Package testutil holds deterministic stand-ins for the randomized
// pieces of the session layer.
package testutil

// FixedTokenGenerator generates the same game token every time.
//
// This enables deterministic test execution and golden snapshot
// comparison: the same scenario with the same FixedTokenGenerator
// produces byte-identical checkpoint IDs.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for
// concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a new fixed token generator.
//
// If token is empty, Generate() returns "test-game-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-game-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements session.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
