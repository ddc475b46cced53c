package action

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gambitlabs/gambit/internal/game"
)

func TestValidateText(t *testing.T) {
	_, x := cardTable(t)
	ctx := x.context(0, nil, nil)
	sel := &Text{
		Meta:    Meta{Name: "word"},
		Pattern: regexp.MustCompile(`^[a-z]+$`),
		MinLen:  3,
		MaxLen:  5,
	}

	assert.Empty(t, x.ValidateSelection(ctx, sel, "abcde"))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, "ab"))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, "abcdef"))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, "ABC"))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, 42))

	// Rune length, not byte length.
	accented := &Text{Meta: Meta{Name: "word"}, MinLen: 3, MaxLen: 3}
	assert.Empty(t, x.ValidateSelection(ctx, accented, "été"))
}

func TestValidateNumber(t *testing.T) {
	_, x := cardTable(t)
	ctx := x.context(0, nil, nil)
	min, max := 1.0, 6.0
	sel := &Number{Meta: Meta{Name: "roll"}, Min: &min, Max: &max, IntegerOnly: true}

	assert.Empty(t, x.ValidateSelection(ctx, sel, 3))
	assert.Empty(t, x.ValidateSelection(ctx, sel, float64(6)))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, 0))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, 7))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, 2.5))
	assert.NotEmpty(t, x.ValidateSelection(ctx, sel, "three"))
}

func TestValidatePieceSet(t *testing.T) {
	board, x := cardTable(t)
	ctx := x.context(0, nil, nil)
	sel := &PieceSet{Meta: Meta{Name: "cards"}, Kind: "card", Min: 2, Max: 3}

	c1, c2 := board.Find("card-1"), board.Find("card-2")

	assert.Empty(t, x.ValidateSelection(ctx, sel, []*game.Piece{c1, c2}))

	errs := x.ValidateSelection(ctx, sel, []*game.Piece{c1})
	assert.Contains(t, errs[0], "need at least 2")

	errs = x.ValidateSelection(ctx, sel, []*game.Piece{c1, c2, c1})
	assert.Contains(t, errs[0], "picked twice")

	pile := board.Query("pile", nil)[0]
	errs = x.ValidateSelection(ctx, sel, []*game.Piece{c1, pile})
	assert.Contains(t, errs[0], "not a current choice")
}

func TestValidateCustomValidatorRunsLast(t *testing.T) {
	_, x := cardTable(t)
	ctx := x.context(0, nil, nil)
	sel := &Choice{
		Meta: Meta{
			Name: "suit",
			Validate: func(ctx *Context, value any) error {
				if value == "cups" {
					return errors.New("cups are banned tonight")
				}
				return nil
			},
		},
		Options: []any{"coins", "cups"},
	}

	assert.Empty(t, x.ValidateSelection(ctx, sel, "coins"))
	errs := x.ValidateSelection(ctx, sel, "cups")
	assert.Contains(t, errs[0], "cups are banned tonight")
}

func TestValidateRepeatSubmittedWholesale(t *testing.T) {
	_, x := cardTable(t)
	ctx := x.context(0, nil, nil)
	sel := &Choice{
		Meta:    Meta{Name: "offers"},
		Options: []any{1, 2, 3, "stop"},
		Repeat:  &Repeat{UntilValue: "stop"},
	}

	assert.Empty(t, x.ValidateSelection(ctx, sel, []any{2, 1, "stop"}))
	assert.Empty(t, x.ValidateSelection(ctx, sel, []any{3}))

	errs := x.ValidateSelection(ctx, sel, []any{999, -5})
	assert.Len(t, errs, 2)
	assert.Contains(t, errs[0], "pick 1 is not a current choice")
	assert.Contains(t, errs[1], "pick 2 is not a current choice")

	errs = x.ValidateSelection(ctx, sel, []any{"stop", 1})
	assert.Contains(t, errs[0], "continue past the terminator")

	errs = x.ValidateSelection(ctx, sel, 5)
	assert.Contains(t, errs[0], "expected accumulated picks")

	// Source-backed sets are checked pick by pick at submission time;
	// only the terminator rule applies to the committed array.
	drawn := &Choice{
		Meta:   Meta{Name: "tokens"},
		Source: func(ctx *Context) []any { return []any{"stop"} },
		Repeat: &Repeat{UntilValue: "stop"},
	}
	assert.Empty(t, x.ValidateSelection(ctx, drawn, []any{"gem", "stop"}))
	errs = x.ValidateSelection(ctx, drawn, []any{"stop", "gem"})
	assert.Contains(t, errs[0], "continue past the terminator")
}

func TestChoicesDependencyFilter(t *testing.T) {
	board, x := cardTable(t)

	t.Run("map candidates filter on key", func(t *testing.T) {
		sel := &Choice{
			Meta:      Meta{Name: "shape"},
			Options:   []any{map[string]any{"color": "red"}, map[string]any{"color": "blue"}},
			DependsOn: "color",
			FilterKey: "color",
		}
		ctx := x.context(0, map[string]any{"color": "blue"}, nil)
		got, err := x.Choices(ctx, sel)
		assert.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"color": "blue"}}, got)
	})

	t.Run("piece prior compares by id", func(t *testing.T) {
		sel := &Choice{
			Meta:      Meta{Name: "slot"},
			Options:   []any{"card-1", "card-2"},
			DependsOn: "card",
		}
		ctx := x.context(0, map[string]any{"card": board.Find("card-2")}, nil)
		got, err := x.Choices(ctx, sel)
		assert.NoError(t, err)
		assert.Equal(t, []any{"card-2"}, got)
	})

	t.Run("absent prior leaves the set unfiltered", func(t *testing.T) {
		sel := &Choice{
			Meta:      Meta{Name: "shape"},
			Options:   []any{"a", "b"},
			DependsOn: "color",
		}
		ctx := x.context(0, nil, nil)
		got, err := x.Choices(ctx, sel)
		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestChoicesFreeFormAreNotEnumerable(t *testing.T) {
	_, x := cardTable(t)
	ctx := x.context(0, nil, nil)

	got, err := x.Choices(ctx, &Text{Meta: Meta{Name: "word"}})
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = x.Choices(ctx, &Number{Meta: Meta{Name: "wager"}})
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestChoicesPanickingFilterReturnsError(t *testing.T) {
	_, x := cardTable(t)
	ctx := x.context(0, nil, nil)
	sel := &PiecePick{Meta: Meta{Name: "onto"}, Kind: "card",
		Where: func(ctx *Context, p *game.Piece) bool {
			return ctx.Args["base"].(*game.Piece) == p.Parent()
		},
	}

	_, err := x.Choices(ctx, sel)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `selection "onto"`)
	assert.Contains(t, err.Error(), "has not been submitted yet")
}
