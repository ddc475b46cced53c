package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gambitlabs/gambit/internal/game"
)

// cardTable builds a board with three cards in seat 0's hand and a
// discard pile, plus an executor over the given definitions.
func cardTable(t *testing.T, defs ...*Definition) (*game.Board, *Executor) {
	t.Helper()
	board := game.NewBoard()
	hand := board.Create("hand", nil, nil)
	hand.SetOwner(0)
	board.Create("pile", nil, map[string]any{"name": "discard"})
	for _, rank := range []int{3, 7, 9} {
		c := board.Create("card", hand, map[string]any{"rank": rank})
		c.SetOwner(0)
	}
	roster := game.NewRoster("alice", "bob")
	return board, NewExecutor(board, roster, defs)
}

func discardDef() *Definition {
	return &Definition{
		Name:   "discard",
		Prompt: "Discard a card",
		Selections: []Selection{
			&PiecePick{
				Meta: Meta{Name: "card"},
				Kind: "card",
				Where: func(ctx *Context, p *game.Piece) bool {
					return p.Owner() == ctx.Player
				},
			},
		},
		Effect: func(ctx *Context) error {
			card := ctx.Args["card"].(*game.Piece)
			pile := ctx.Board.Query("pile", nil)[0]
			return ctx.Board.Move(card, pile)
		},
	}
}

func TestPerformMovesPiece(t *testing.T) {
	board, x := cardTable(t, discardDef())
	card := board.Find("card-1")
	require.NotNil(t, card)

	res := x.Perform("discard", 0, map[string]any{"card": "card-1"}, nil)
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, "pile-1", card.Parent().ID())
}

func TestPerformUnknownAction(t *testing.T) {
	_, x := cardTable(t)
	res := x.Perform("shuffle", 0, nil, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], `unknown action "shuffle"`)
}

func TestPerformRejectsWhenPredicateFails(t *testing.T) {
	def := discardDef()
	def.When = func(ctx *Context) bool { return ctx.Vars["open"] == true }
	board, x := cardTable(t, def)

	res := x.Perform("discard", 0, map[string]any{"card": "card-1"}, nil)
	require.False(t, res.Success)
	assert.Equal(t, "hand-1", board.Find("card-1").Parent().ID())

	res = x.Perform("discard", 0, map[string]any{"card": "card-1"}, map[string]any{"open": true})
	assert.True(t, res.Success)
}

func TestPerformValidationFailureLeavesBoardUntouched(t *testing.T) {
	board, x := cardTable(t, discardDef())

	// card-1 belongs to seat 0; seat 1 cannot pick it.
	res := x.Perform("discard", 1, map[string]any{"card": "card-1"}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "not a current choice")
	assert.Equal(t, "hand-1", board.Find("card-1").Parent().ID())
}

func TestPerformMissingRequiredSelection(t *testing.T) {
	_, x := cardTable(t, discardDef())
	res := x.Perform("discard", 0, nil, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], `selection "card" is required`)
}

func TestPerformEffectErrorBecomesFailure(t *testing.T) {
	def := discardDef()
	def.Effect = func(ctx *Context) error { return errors.New("pile is sealed") }
	_, x := cardTable(t, def)

	res := x.Perform("discard", 0, map[string]any{"card": "card-1"}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "pile is sealed")
}

func TestPerformEffectPanicIsCaught(t *testing.T) {
	var applied bool
	def := discardDef()
	def.Effect = func(ctx *Context) error {
		applied = true
		ctx.Args["card"].(*game.Piece).SetAttr("burned", true)
		panic("deck corrupted")
	}
	board, x := cardTable(t, def)

	res := x.Perform("discard", 0, map[string]any{"card": "card-1"}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "deck corrupted")
	// Side effects applied before the panic stay applied.
	assert.True(t, applied)
	assert.Equal(t, true, board.Find("card-1").Attr("burned"))
}

func TestPerformRejectsForgedRepeatPicks(t *testing.T) {
	def := &Definition{
		Name: "haggle",
		Selections: []Selection{
			&Choice{
				Meta:    Meta{Name: "offers"},
				Options: []any{1, 2, 3, "stop"},
				Repeat:  &Repeat{UntilValue: "stop"},
			},
		},
		Effect: func(ctx *Context) error { return nil },
	}
	_, x := cardTable(t, def)

	res := x.Perform("haggle", 0, map[string]any{"offers": []any{999, -5}}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "not a current choice")

	res = x.Perform("haggle", 0, map[string]any{"offers": []any{"stop", 2}}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "continue past the terminator")

	res = x.Perform("haggle", 0, map[string]any{"offers": []any{2, 1, "stop"}}, nil)
	assert.True(t, res.Success, "errors: %v", res.Errors)
}

func TestResolveArgsRehydratesPieceIDs(t *testing.T) {
	board, x := cardTable(t, discardDef())
	def := x.Definition("discard")
	ctx := x.context(0, map[string]any{"card": "card-2"}, nil)

	require.NoError(t, x.ResolveArgs(ctx, def))
	assert.Same(t, board.Find("card-2"), ctx.Args["card"])

	// Idempotent: a live reference passes through.
	require.NoError(t, x.ResolveArgs(ctx, def))
	assert.Same(t, board.Find("card-2"), ctx.Args["card"])
}

func TestResolveArgsUnknownID(t *testing.T) {
	_, x := cardTable(t, discardDef())
	ctx := x.context(0, map[string]any{"card": "card-99"}, nil)
	err := x.ResolveArgs(ctx, x.Definition("discard"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no piece with id "card-99"`)
}

func TestResolveArgsPieceSetFromIDList(t *testing.T) {
	def := &Definition{
		Name: "meld",
		Selections: []Selection{
			&PieceSet{Meta: Meta{Name: "cards"}, Kind: "card", Min: 2},
		},
	}
	board, x := cardTable(t, def)
	ctx := x.context(0, map[string]any{"cards": []any{"card-1", "card-3"}}, nil)

	require.NoError(t, x.ResolveArgs(ctx, def))
	ps := ctx.Args["cards"].([]*game.Piece)
	require.Len(t, ps, 2)
	assert.Same(t, board.Find("card-1"), ps[0])
	assert.Same(t, board.Find("card-3"), ps[1])
}

func TestDefinitionsPreserveDeclarationOrder(t *testing.T) {
	a := &Definition{Name: "alpha"}
	b := &Definition{Name: "beta"}
	c := &Definition{Name: "gamma"}
	_, x := cardTable(t, c, a, b)

	var names []string
	for _, d := range x.Definitions() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, names)
	assert.Equal(t, "Discard a card", NewExecutor(game.NewBoard(), game.NewRoster("x"), []*Definition{discardDef()}).Prompt("discard"))
	assert.Equal(t, "", x.Prompt("missing"))
}
