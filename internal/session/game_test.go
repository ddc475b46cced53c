package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/game"
)

type fixedTokens struct{ next string }

func (f fixedTokens) Generate() string { return f.next }

// coinSpec is a complete miniature game: five coins on the table,
// players alternate taking one until none remain, most coins wins.
func coinSpec() *Spec {
	unowned := func(ctx *action.Context, p *game.Piece) bool {
		return p.Owner() == game.UnownedSeat
	}
	owned := func(board *game.Board, seat int) int {
		return len(board.Query("coin", func(p *game.Piece) bool { return p.Owner() == seat }))
	}
	return &Spec{
		Name:       "coins",
		MinPlayers: 2,
		MaxPlayers: 4,
		Actions: []*action.Definition{{
			Name:   "take",
			Prompt: "Take a coin",
			Selections: []action.Selection{
				&action.PiecePick{Meta: action.Meta{Name: "coin"}, Kind: "coin", Where: unowned},
			},
			Effect: func(ctx *action.Context) error {
				ctx.Args["coin"].(*game.Piece).SetOwner(ctx.Player)
				return nil
			},
		}},
		Flow: &flow.Definition{
			Setup: func(ctx *flow.Context) {
				for i := 0; i < 5; i++ {
					ctx.Board.Create("coin", nil, nil)
				}
			},
			Root: &flow.Loop{
				While: func(ctx *flow.Context) bool {
					return len(ctx.Board.Query("coin", func(p *game.Piece) bool {
						return p.Owner() == game.UnownedSeat
					})) > 0
				},
				Do: &flow.EachPlayer{Do: &flow.ActionStep{Actions: []string{"take"}}},
			},
			Winners: func(ctx *flow.Context) []int {
				best, winners := -1, []int(nil)
				for _, seat := range ctx.Roster.Seats() {
					n := owned(ctx.Board, seat)
					switch {
					case n > best:
						best, winners = n, []int{seat}
					case n == best:
						winners = append(winners, seat)
					}
				}
				return winners
			},
		},
	}
}

func TestNewGameValidation(t *testing.T) {
	_, err := NewGame(coinSpec(), []string{"alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes 2-4 players")

	bad := coinSpec()
	bad.Flow = nil
	_, err = NewGame(bad, []string{"alice", "bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no flow definition")
}

func TestSpecValidateDuplicates(t *testing.T) {
	s := coinSpec()
	s.Actions = append(s.Actions, &action.Definition{Name: "take"})
	assert.ErrorContains(t, s.Validate(), `duplicate action "take"`)

	s = coinSpec()
	s.Actions[0].Selections = append(s.Actions[0].Selections,
		&action.Text{Meta: action.Meta{Name: "coin"}})
	assert.ErrorContains(t, s.Validate(), `duplicate selection "coin"`)
}

func TestFullGame(t *testing.T) {
	g, err := NewGame(coinSpec(), []string{"alice", "bob"},
		WithTokenGenerator(fixedTokens{next: "game-1"}))
	require.NoError(t, err)
	assert.Equal(t, "game-1", g.ID())
	assert.Equal(t, []string{"alice", "bob"}, g.Players())

	st, err := g.Start()
	require.NoError(t, err)
	require.True(t, st.AwaitingInput)
	assert.Equal(t, 0, st.Player)
	assert.Equal(t, []string{"take"}, st.AvailableActions)

	turn := 0
	for !g.State().Complete {
		st := g.State()
		coins := g.board.Query("coin", func(p *game.Piece) bool {
			return p.Owner() == game.UnownedSeat
		})
		require.NotEmpty(t, coins, "turn %d", turn)
		next, res, err := g.Submit(st.Player, "take", map[string]any{"coin": coins[0].ID()})
		require.NoError(t, err)
		require.True(t, res.Success, "turn %d: %v", turn, res.Errors)
		st = next
		turn++
	}

	assert.Equal(t, 5, turn)
	assert.Equal(t, int64(5), g.Seq())
	// Seats alternate 0,1,0,1,0: seat 0 ends with three coins.
	assert.Equal(t, []int{0}, g.Winners())
}

func TestSubmitRejectionsDoNotAdvance(t *testing.T) {
	g, err := NewGame(coinSpec(), []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	_, res, err := g.Submit(1, "take", map[string]any{"coin": "coin-1"})
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, res, err = g.Submit(0, "flip", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)

	assert.Equal(t, int64(0), g.Seq())
	assert.Equal(t, 0, g.State().Player)
}

func TestSnapshotRoundTrip(t *testing.T) {
	spec := coinSpec()
	g, err := NewGame(spec, []string{"alice", "bob"},
		WithTokenGenerator(fixedTokens{next: "game-7"}))
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	// Two moves in, snapshot mid-game.
	for _, seat := range []int{0, 1} {
		coins := g.board.Query("coin", func(p *game.Piece) bool {
			return p.Owner() == game.UnownedSeat
		})
		_, res, err := g.Submit(seat, "take", map[string]any{"coin": coins[0].ID()})
		require.NoError(t, err)
		require.True(t, res.Success)
	}
	snap := g.Snapshot()
	assert.Equal(t, int64(2), snap.Seq)

	id1, err := snap.CheckpointID()
	require.NoError(t, err)
	id2, err := snap.CheckpointID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)

	restored, err := RestoreGame(spec, snap)
	require.NoError(t, err)
	assert.Equal(t, "game-7", restored.ID())
	assert.Equal(t, g.State(), restored.State())

	// Both copies play out identically.
	for !restored.State().Complete {
		st := restored.State()
		coins := restored.board.Query("coin", func(p *game.Piece) bool {
			return p.Owner() == game.UnownedSeat
		})
		_, res, err := restored.Submit(st.Player, "take", map[string]any{"coin": coins[0].ID()})
		require.NoError(t, err)
		require.True(t, res.Success)
	}
	assert.Equal(t, []int{0}, restored.Winners())
}

func TestRestoreGameRejectsMismatchedSpec(t *testing.T) {
	g, err := NewGame(coinSpec(), []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	other := coinSpec()
	other.Name = "shells"
	_, err = RestoreGame(other, g.Snapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `snapshot is for spec "coins"`)
}

func TestViewMasksForSeats(t *testing.T) {
	spec := coinSpec()
	spec.Flow.Setup = func(ctx *flow.Context) {
		c := ctx.Board.Create("coin", nil, map[string]any{"year": 1901})
		c.SetOwner(0)
		c.SetHidden(true)
	}
	spec.Flow.Root = &flow.ActionStep{Actions: []string{"take"}, SkipIf: func(ctx *flow.Context) bool { return true }}
	g, err := NewGame(spec, []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	mine := g.View(0)["children"].([]any)[0].(map[string]any)
	assert.NotContains(t, mine, "masked")
	theirs := g.View(1)["children"].([]any)[0].(map[string]any)
	assert.Equal(t, true, theirs["masked"])
}

// wagerSpec exercises the step-by-step selection protocol.
func wagerSpec() *Spec {
	max := 10.0
	return &Spec{
		Name:       "wager",
		MinPlayers: 1,
		MaxPlayers: 2,
		Actions: []*action.Definition{{
			Name:   "bid",
			Prompt: "Place a bid",
			Selections: []action.Selection{
				&action.Choice{Meta: action.Meta{Name: "suit", Prompt: "Pick a suit"},
					Options: []any{"coins", "cups"}},
				&action.Number{Meta: action.Meta{Name: "amount"}, Max: &max},
			},
			Effect: func(ctx *action.Context) error {
				ctx.Vars["bid"] = ctx.Args["amount"]
				return nil
			},
		}},
		Flow: &flow.Definition{Root: &flow.ActionStep{Actions: []string{"bid"}}},
	}
}

func TestPendingSelectionProtocol(t *testing.T) {
	g, err := NewGame(wagerSpec(), []string{"alice"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	prompt, err := g.BeginAction(0, "bid")
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "suit", prompt.Selection)
	assert.Equal(t, "Pick a suit", prompt.Prompt)
	assert.Equal(t, []any{"coins", "cups"}, prompt.Choices)

	// A direct submit is locked out while the pending action is open.
	_, res, err := g.Submit(0, "bid", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, res, err = g.SubmitSelection("suit", "cups")
	require.NoError(t, err)
	require.True(t, res.Success)

	prompt, err = g.PendingPrompt()
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "amount", prompt.Selection)
	assert.Nil(t, prompt.Choices)

	st, res, err := g.SubmitSelection("amount", 7)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, st.Complete)
	assert.Equal(t, int64(1), g.Seq())
}

func TestBeginActionGuards(t *testing.T) {
	g, err := NewGame(wagerSpec(), []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	_, err = g.BeginAction(1, "bid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not offered to seat 1")

	_, err = g.BeginAction(0, "fold")
	require.Error(t, err)

	_, err = g.BeginAction(0, "bid")
	require.NoError(t, err)
	_, err = g.BeginAction(0, "bid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already open")
}

func TestCancelActionClearsPending(t *testing.T) {
	g, err := NewGame(wagerSpec(), []string{"alice"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	_, err = g.BeginAction(0, "bid")
	require.NoError(t, err)
	_, res, err := g.SubmitSelection("suit", "coins")
	require.NoError(t, err)
	require.True(t, res.Success)

	g.CancelAction()
	assert.Equal(t, int64(0), g.Seq())

	// The protocol can start over.
	prompt, err := g.BeginAction(0, "bid")
	require.NoError(t, err)
	assert.Equal(t, "suit", prompt.Selection)
}

func TestUUIDv7GeneratorProducesDistinctSortableIDs(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a, b)
}
