// Package caravan is a built-in trading game used by the CLI and the
// conformance harness. It is fully deterministic: no dice, no shuffle,
// every outcome follows from the players' moves.
//
// A game runs through four phases. In the market phase players take
// turns loading goods from the market into their wagons until the
// market is empty. In the auction phase everyone bids gold at the same
// time; the highest bidder becomes the price leader. The leader sets
// one market rate in the appraise phase, the remaining wares fall back
// to their base rates. In the sell phase each player sells a lot,
// haggles for pocket change, or passes. Most gold wins.
package caravan

import (
	"fmt"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/game"
	"github.com/gambitlabs/gambit/internal/session"
)

const startingGold = 8

// wares in base-rate order. One copy per seat of each ware is placed
// in the market during setup.
var wares = []struct {
	name string
	rate int
}{
	{"silk", 3},
	{"spice", 2},
	{"salt", 1},
}

// rateOffers are the rates the auction leader may post. The ware field
// keys the dependency filter on the leader's ware selection.
var rateOffers = []any{
	map[string]any{"ware": "silk", "rate": 4},
	map[string]any{"ware": "silk", "rate": 5},
	map[string]any{"ware": "spice", "rate": 3},
	map[string]any{"ware": "spice", "rate": 4},
	map[string]any{"ware": "salt", "rate": 2},
}

// Spec returns the caravan rule set. The returned value is freshly
// built on every call; callers may register actions or flow against it
// without affecting other games.
func Spec() *session.Spec {
	return &session.Spec{
		Name:        "caravan",
		Description: "Load goods, bid for the price lead, and sell high.",
		MinPlayers:  2,
		MaxPlayers:  4,
		Actions: []*action.Definition{
			loadDef(), bidDef(), priceDef(), sellDef(), haggleDef(), passDef(),
		},
		Flow: flowDef(),
	}
}

func loadDef() *action.Definition {
	return &action.Definition{
		Name:   "load",
		Prompt: "Load goods from the market",
		Selections: []action.Selection{
			&action.PiecePick{
				Meta:  action.Meta{Name: "goods", Prompt: "Which goods?"},
				Kind:  "goods",
				Scope: marketGoods,
			},
		},
		When: func(ctx *action.Context) bool {
			return len(marketGoods(ctx)) > 0
		},
		Effect: func(ctx *action.Context) error {
			p := ctx.Args["goods"].(*game.Piece)
			return ctx.Board.Move(p, wagonOf(ctx.Board, ctx.Player))
		},
	}
}

func bidDef() *action.Definition {
	min, max := 1.0, 9.0
	return &action.Definition{
		Name:   "bid",
		Prompt: "Bid gold for the price lead",
		Selections: []action.Selection{
			&action.Number{
				Meta: action.Meta{
					Name:   "amount",
					Prompt: "How much gold?",
					Validate: func(ctx *action.Context, value any) error {
						if asInt(value) > gold(ctx.Vars, ctx.Player) {
							return fmt.Errorf("cannot bid more than your gold")
						}
						return nil
					},
				},
				Min:         &min,
				Max:         &max,
				IntegerOnly: true,
			},
			&action.Text{
				Meta:   action.Meta{Name: "boast", Optional: true, Prompt: "Talk it up"},
				MaxLen: 40,
			},
		},
		Effect: func(ctx *action.Context) error {
			amount := asInt(ctx.Args["amount"])
			ctx.Vars[bidKey(ctx.Player)] = amount
			addGold(ctx.Vars, ctx.Player, -amount)
			return nil
		},
	}
}

func priceDef() *action.Definition {
	return &action.Definition{
		Name:   "price",
		Prompt: "Post a market rate",
		Selections: []action.Selection{
			&action.Choice{
				Meta:    action.Meta{Name: "ware", Prompt: "Which ware?"},
				Options: []any{"silk", "spice", "salt"},
			},
			&action.Choice{
				Meta:      action.Meta{Name: "rate", Prompt: "At what rate?"},
				Options:   rateOffers,
				DependsOn: "ware",
				FilterKey: "ware",
			},
		},
		Effect: func(ctx *action.Context) error {
			offer := ctx.Args["rate"].(map[string]any)
			ware := offer["ware"].(string)
			ctx.Vars[rateKey(ware)] = asInt(offer["rate"])
			return nil
		},
	}
}

func sellDef() *action.Definition {
	return &action.Definition{
		Name:   "sell",
		Prompt: "Sell a lot of goods",
		Selections: []action.Selection{
			&action.PieceSet{
				Meta: action.Meta{Name: "lot", Prompt: "Which goods?"},
				Kind: "goods",
				Scope: func(ctx *action.Context) []*game.Piece {
					return wagonGoods(ctx.Board, ctx.Player)
				},
				Min: 1,
			},
		},
		When: func(ctx *action.Context) bool {
			return len(wagonGoods(ctx.Board, ctx.Player)) > 0
		},
		Effect: func(ctx *action.Context) error {
			for _, p := range ctx.Args["lot"].([]*game.Piece) {
				ware := p.Attr("ware").(string)
				addGold(ctx.Vars, ctx.Player, asInt(ctx.Vars[rateKey(ware)]))
				if err := ctx.Board.Remove(p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// haggleDef is a repeat selection: the player keeps naming small sums
// until they say stop, and pockets at most 3 gold total.
func haggleDef() *action.Definition {
	return &action.Definition{
		Name:   "haggle",
		Prompt: "Haggle for pocket change",
		Selections: []action.Selection{
			&action.Choice{
				Meta:    action.Meta{Name: "offers", Prompt: "Press for more?"},
				Options: []any{1, 2, 3, "stop"},
				Repeat:  &action.Repeat{UntilValue: "stop"},
			},
		},
		Effect: func(ctx *action.Context) error {
			total := 0
			if picks, ok := ctx.Args["offers"].([]any); ok {
				for _, pick := range picks {
					if _, isStr := pick.(string); !isStr {
						total += asInt(pick)
					}
				}
			}
			if total > 3 {
				total = 3
			}
			addGold(ctx.Vars, ctx.Player, total)
			return nil
		},
	}
}

func passDef() *action.Definition {
	return &action.Definition{Name: "pass", Prompt: "Pass"}
}

func flowDef() *flow.Definition {
	return &flow.Definition{
		Setup:   setup,
		Winners: winners,
		Root: flow.Seq(
			&flow.Phase{Name: "market", Do: &flow.Loop{
				While: func(ctx *flow.Context) bool {
					return len(marketGoodsFlow(ctx)) > 0
				},
				MaxIterations: 16,
				Do: flow.Seq(
					&flow.Effect{Fn: func(ctx *flow.Context) {
						ctx.Vars["round"] = asInt(ctx.Vars["round"]) + 1
					}},
					&flow.EachPlayer{Do: &flow.ActionStep{
						Actions: []string{"load"},
						Prompt:  "Load goods",
					}},
				),
			}},
			&flow.Phase{Name: "auction", Do: flow.Seq(
				&flow.Simultaneous{
					Actions: []string{"bid"},
					Prompt:  "Place your bid",
				},
				&flow.Effect{Fn: crownLeader},
			)},
			&flow.Phase{Name: "appraise", Do: flow.Seq(
				&flow.If{
					Cond: flow.Expr("vars.leader >= 0"),
					Then: &flow.ActionStep{
						Player: func(ctx *flow.Context) int {
							return asInt(ctx.Vars["leader"])
						},
						Actions: []string{"price"},
						Prompt:  "Post a market rate",
					},
				},
				&flow.ForEach{
					Var:   "ware",
					Items: []any{"silk", "spice", "salt"},
					Do: &flow.If{
						Cond: func(ctx *flow.Context) bool {
							_, set := ctx.Vars[rateKey(ctx.Vars["ware"].(string))]
							return !set
						},
						Then: &flow.Switch{
							Value: func(ctx *flow.Context) any { return ctx.Vars["ware"] },
							Cases: []flow.Case{
								{When: "silk", Then: setRate("silk", 3)},
								{When: "spice", Then: setRate("spice", 2)},
								{When: "salt", Then: setRate("salt", 1)},
							},
						},
					},
				},
			)},
			&flow.Phase{Name: "sell", Do: &flow.EachPlayer{
				Do: &flow.ActionStep{
					Actions: []string{"sell", "haggle", "pass"},
					Prompt:  "Sell your goods",
				},
			}},
		),
	}
}

func setup(ctx *flow.Context) {
	market := ctx.Board.Create("market", nil, nil)
	for _, seat := range ctx.Roster.Seats() {
		wagon := ctx.Board.Create("wagon", nil, nil)
		wagon.SetOwner(seat)
		ctx.Vars[goldKey(seat)] = startingGold
	}
	for _, w := range wares {
		for range ctx.Roster.Seats() {
			ctx.Board.Create("goods", market, map[string]any{"ware": w.name})
		}
	}
	ctx.Vars["round"] = 0
}

// crownLeader picks the highest bidder, earliest seat on ties.
func crownLeader(ctx *flow.Context) {
	leader, best := -1, 0
	for _, seat := range ctx.Roster.Seats() {
		bid, present := ctx.Vars[bidKey(seat)]
		if !present {
			continue
		}
		if n := asInt(bid); n > best {
			leader, best = seat, n
		}
	}
	ctx.Vars["leader"] = leader
}

func winners(ctx *flow.Context) []int {
	best := 0
	for _, seat := range ctx.Roster.Seats() {
		if g := gold(ctx.Vars, seat); g > best {
			best = g
		}
	}
	var out []int
	for _, seat := range ctx.Roster.Seats() {
		if gold(ctx.Vars, seat) == best {
			out = append(out, seat)
		}
	}
	return out
}

func setRate(ware string, rate int) flow.Node {
	return &flow.Effect{Fn: func(ctx *flow.Context) {
		ctx.Vars[rateKey(ware)] = rate
	}}
}

func marketGoods(ctx *action.Context) []*game.Piece {
	return goodsUnder(ctx.Board, "market")
}

func marketGoodsFlow(ctx *flow.Context) []*game.Piece {
	return goodsUnder(ctx.Board, "market")
}

func goodsUnder(b *game.Board, kind string) []*game.Piece {
	containers := b.Query(kind, nil)
	if len(containers) == 0 {
		return nil
	}
	var out []*game.Piece
	for _, p := range containers[0].Children() {
		if p.Kind() == "goods" {
			out = append(out, p)
		}
	}
	return out
}

func wagonOf(b *game.Board, seat int) *game.Piece {
	ws := b.Query("wagon", func(p *game.Piece) bool { return p.Owner() == seat })
	if len(ws) == 0 {
		return nil
	}
	return ws[0]
}

func wagonGoods(b *game.Board, seat int) []*game.Piece {
	w := wagonOf(b, seat)
	if w == nil {
		return nil
	}
	var out []*game.Piece
	for _, p := range w.Children() {
		if p.Kind() == "goods" {
			out = append(out, p)
		}
	}
	return out
}

func goldKey(seat int) string { return fmt.Sprintf("gold.%d", seat) }
func bidKey(seat int) string  { return fmt.Sprintf("bid.%d", seat) }
func rateKey(ware string) string {
	return "rate." + ware
}

func gold(vars map[string]any, seat int) int { return asInt(vars[goldKey(seat)]) }

func addGold(vars map[string]any, seat, delta int) {
	vars[goldKey(seat)] = gold(vars, seat) + delta
}

// asInt tolerates the numeric widths a checkpoint round trip produces:
// live vars hold ints, restored vars hold float64.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
