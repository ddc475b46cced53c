// Package coinrush is the smallest built-in game: five coins in the
// middle, players take turns grabbing one, most coins wins. It exists
// for smoke tests and as the shortest possible end-to-end example.
package coinrush

import (
	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/game"
	"github.com/gambitlabs/gambit/internal/session"
)

const coinCount = 5

// Spec returns the coinrush rule set. The returned value is freshly
// built on every call; callers may register actions or flow against it
// without affecting other games.
func Spec() *session.Spec {
	return &session.Spec{
		Name:        "coinrush",
		Description: "Grab coins until none remain.",
		MinPlayers:  2,
		MaxPlayers:  5,
		Actions:     []*action.Definition{takeDef()},
		Flow: &flow.Definition{
			Setup: func(ctx *flow.Context) {
				for i := 0; i < coinCount; i++ {
					ctx.Board.Create("coin", nil, nil)
				}
			},
			Winners: winners,
			Root: &flow.Loop{
				While: func(ctx *flow.Context) bool {
					return len(unclaimed(ctx.Board)) > 0
				},
				MaxIterations: coinCount + 1,
				Do: &flow.EachPlayer{Do: &flow.ActionStep{
					Actions: []string{"take"},
					Prompt:  "Take a coin",
				}},
			},
		},
	}
}

func takeDef() *action.Definition {
	return &action.Definition{
		Name:   "take",
		Prompt: "Take a coin",
		Selections: []action.Selection{
			&action.PiecePick{
				Meta: action.Meta{Name: "coin", Prompt: "Which coin?"},
				Kind: "coin",
				Where: func(ctx *action.Context, p *game.Piece) bool {
					return p.Owner() == game.UnownedSeat
				},
			},
		},
		When: func(ctx *action.Context) bool {
			return len(unclaimed(ctx.Board)) > 0
		},
		Effect: func(ctx *action.Context) error {
			ctx.Args["coin"].(*game.Piece).SetOwner(ctx.Player)
			return nil
		},
	}
}

func unclaimed(b *game.Board) []*game.Piece {
	return b.Query("coin", func(p *game.Piece) bool {
		return p.Owner() == game.UnownedSeat
	})
}

func winners(ctx *flow.Context) []int {
	counts := make(map[int]int)
	best := 0
	for _, p := range ctx.Board.Query("coin", nil) {
		counts[p.Owner()]++
		if counts[p.Owner()] > best {
			best = counts[p.Owner()]
		}
	}
	var out []int
	for _, seat := range ctx.Roster.Seats() {
		if counts[seat] == best {
			out = append(out, seat)
		}
	}
	return out
}
