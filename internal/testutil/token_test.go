package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedTokenGenerator(t *testing.T) {
	g := NewFixedTokenGenerator("scenario-7")
	assert.Equal(t, "scenario-7", g.Generate())
	assert.Equal(t, "scenario-7", g.Generate())
}

func TestFixedTokenGeneratorDefault(t *testing.T) {
	g := NewFixedTokenGenerator("")
	assert.Equal(t, "test-game-default", g.Generate())
}
