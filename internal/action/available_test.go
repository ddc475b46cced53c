package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gambitlabs/gambit/internal/game"
)

// paintDef wires the classic dependency chain: a static color choice
// followed by a shape choice whose candidates are filtered by the
// color picked first.
func paintDef(shapes []any) *Definition {
	return &Definition{
		Name: "paint",
		Selections: []Selection{
			&Choice{Meta: Meta{Name: "color"}, Options: []any{"red", "blue"}},
			&Choice{
				Meta:      Meta{Name: "shape"},
				Options:   shapes,
				DependsOn: "color",
				FilterKey: "color",
			},
		},
		Effect: func(ctx *Context) error { return nil },
	}
}

func TestAvailabilitySearchesDependencyChains(t *testing.T) {
	t.Run("available when one color leads somewhere", func(t *testing.T) {
		// Every shape is blue: picking red leads nowhere, but the search
		// finds the blue branch.
		def := paintDef([]any{
			map[string]any{"name": "circle", "color": "blue"},
			map[string]any{"name": "square", "color": "blue"},
		})
		_, x := cardTable(t, def)
		assert.True(t, x.IsAvailable(0, "paint", nil))
	})

	t.Run("unavailable when no color leads anywhere", func(t *testing.T) {
		def := paintDef([]any{
			map[string]any{"name": "blob", "color": "green"},
		})
		_, x := cardTable(t, def)
		assert.False(t, x.IsAvailable(0, "paint", nil))
	})

	t.Run("search leaves no bindings behind", func(t *testing.T) {
		def := paintDef([]any{
			map[string]any{"name": "circle", "color": "blue"},
		})
		_, x := cardTable(t, def)
		ctx := x.context(0, nil, nil)
		require.True(t, x.satisfiable(ctx, def.Selections, 0))
		assert.Empty(t, ctx.Args)
	})

	t.Run("a dead-end branch still blocks the actual pick", func(t *testing.T) {
		// Availability said yes via blue; a player who insists on red is
		// rejected at validation time.
		def := paintDef([]any{
			map[string]any{"name": "circle", "color": "blue"},
		})
		_, x := cardTable(t, def)
		require.True(t, x.IsAvailable(0, "paint", nil))

		res := x.Perform("paint", 0, map[string]any{
			"color": "red",
			"shape": map[string]any{"name": "circle", "color": "blue"},
		}, nil)
		require.False(t, res.Success)
		assert.Contains(t, res.Errors[0], `selection "shape"`)
	})
}

func TestAvailabilityDynamicSourceIsNotSearched(t *testing.T) {
	// A dynamically-sourced color is only non-emptiness-checked; the
	// search does not branch over its candidates, so the impossible
	// red/green combination is not discovered up front.
	def := &Definition{
		Name: "paint",
		Selections: []Selection{
			&Choice{
				Meta:   Meta{Name: "color"},
				Source: func(ctx *Context) []any { return []any{"red"} },
			},
			&Choice{
				Meta:      Meta{Name: "shape"},
				Options:   []any{map[string]any{"name": "blob", "color": "green"}},
				DependsOn: "color",
				FilterKey: "color",
			},
		},
	}
	_, x := cardTable(t, def)
	assert.True(t, x.IsAvailable(0, "paint", nil))
}

func TestAvailabilityStaticChoiceWithoutDependentsIsNotSearched(t *testing.T) {
	branched := 0
	def := &Definition{
		Name: "pick",
		Selections: []Selection{
			&Choice{Meta: Meta{Name: "first"}, Options: []any{"a", "b"}},
			&Choice{
				Meta: Meta{
					Name: "second",
					Validate: func(ctx *Context, value any) error {
						branched++
						return nil
					},
				},
				Options: []any{"x"},
			},
		},
	}
	_, x := cardTable(t, def)
	assert.True(t, x.IsAvailable(0, "pick", nil))
	// Non-emptiness checks never run validators.
	assert.Zero(t, branched)
}

func TestAvailabilityEntitySelections(t *testing.T) {
	t.Run("blocked when no pieces match", func(t *testing.T) {
		def := discardDef()
		_, x := cardTable(t, def)
		// Seat 1 owns nothing.
		assert.False(t, x.IsAvailable(1, "discard", nil))
		assert.True(t, x.IsAvailable(0, "discard", nil))
	})

	t.Run("set minimum counts against candidates", func(t *testing.T) {
		def := &Definition{
			Name: "meld",
			Selections: []Selection{
				&PieceSet{Meta: Meta{Name: "cards"}, Kind: "card", Min: 4},
			},
		}
		_, x := cardTable(t, def)
		// Only three cards exist.
		assert.False(t, x.IsAvailable(0, "meld", nil))
	})

	t.Run("panicking filter blocks instead of crashing", func(t *testing.T) {
		def := &Definition{
			Name: "stack",
			Selections: []Selection{
				&PiecePick{Meta: Meta{Name: "onto"}, Kind: "card",
					Where: func(ctx *Context, p *game.Piece) bool {
						// Reads a selection that is never bound during the
						// availability walk.
						base := ctx.Args["base"].(*game.Piece)
						return p.Parent() == base.Parent()
					},
				},
			},
		}
		_, x := cardTable(t, def)
		assert.False(t, x.IsAvailable(0, "stack", nil))
	})
}

func TestAvailabilityOptionalAndFreeFormNeverBlock(t *testing.T) {
	def := &Definition{
		Name: "declare",
		Selections: []Selection{
			&Text{Meta: Meta{Name: "word"}, MinLen: 3},
			&Number{Meta: Meta{Name: "wager"}},
			&Choice{Meta: Meta{Name: "bonus", Optional: true}, Options: nil},
		},
	}
	_, x := cardTable(t, def)
	assert.True(t, x.IsAvailable(0, "declare", nil))
}

func TestAvailableFiltersAndPreservesOrder(t *testing.T) {
	gated := &Definition{
		Name: "closed",
		When: func(ctx *Context) bool { return false },
	}
	_, x := cardTable(t, discardDef(), gated, paintDef([]any{
		map[string]any{"name": "circle", "color": "blue"},
	}))

	assert.Equal(t, []string{"discard", "paint"}, x.Available(0, nil, nil))
	assert.Equal(t, []string{"paint", "discard"}, x.Available(0, []string{"paint", "closed", "discard"}, nil))
	assert.Nil(t, x.Available(0, []string{"closed"}, nil))
}
