package session

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/game"
)

// Game is one live game instance. All mutation flows through Submit
// and the pending-selection protocol; reads go through State and View.
type Game struct {
	id     string
	spec   *Spec
	board  *game.Board
	roster *game.Roster
	exec   *action.Executor
	eng    *flow.Engine

	pending *action.PendingState
	seq     int64
	logger  *slog.Logger
}

// GameOption configures a Game at construction time.
type GameOption func(*gameConfig)

type gameConfig struct {
	tokens TokenGenerator
	logger *slog.Logger
}

// WithTokenGenerator substitutes the game ID source.
func WithTokenGenerator(g TokenGenerator) GameOption {
	return func(c *gameConfig) { c.tokens = g }
}

// WithLogger sets the structured logger shared by the executor and
// the engine.
func WithLogger(l *slog.Logger) GameOption {
	return func(c *gameConfig) { c.logger = l }
}

// NewGame builds a game instance for the given participants. The spec
// is validated and the player count checked against its bounds; Start
// must be called before moves are accepted.
func NewGame(spec *Spec, players []string, opts ...GameOption) (*Game, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(players) < spec.MinPlayers || len(players) > spec.MaxPlayers {
		return nil, fmt.Errorf("spec %q takes %d-%d players, got %d",
			spec.Name, spec.MinPlayers, spec.MaxPlayers, len(players))
	}

	cfg := gameConfig{
		tokens: UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	board := game.NewBoard()
	roster := game.NewRoster(players...)
	exec := action.NewExecutor(board, roster, spec.Actions, action.WithLogger(cfg.logger))
	eng := flow.New(spec.Flow, board, roster, exec, flow.WithLogger(cfg.logger))

	return &Game{
		id:     cfg.tokens.Generate(),
		spec:   spec,
		board:  board,
		roster: roster,
		exec:   exec,
		eng:    eng,
		logger: cfg.logger,
	}, nil
}

// ID returns the game instance identifier.
func (g *Game) ID() string { return g.id }

// SpecName returns the name of the rule set in play.
func (g *Game) SpecName() string { return g.spec.Name }

// Players returns the participant names in seat order.
func (g *Game) Players() []string { return g.roster.Names() }

// Seq returns the number of successful moves applied so far. It keys
// checkpoint ordering.
func (g *Game) Seq() int64 { return g.seq }

// Start runs setup and executes the flow to its first decision.
func (g *Game) Start() (*flow.State, error) {
	if err := g.eng.Start(); err != nil {
		return nil, err
	}
	g.logger.Info("game started", "game", g.id, "spec", g.spec.Name, "players", g.roster.Count())
	return g.eng.State(), nil
}

// State returns the current observable snapshot.
func (g *Game) State() *flow.State { return g.eng.State() }

// View returns the board as seen by one seat, with hidden pieces
// owned by others masked. game.OmniscientSeat sees everything.
func (g *Game) View(seat int) map[string]any { return g.board.View(seat) }

// Submit applies one complete move: action name plus every selection
// value. A rejected move returns a failed Result and changes nothing.
func (g *Game) Submit(player int, name string, args map[string]any) (*flow.State, action.Result, error) {
	if g.pending != nil {
		return g.State(), action.Fail("a pending action is open; submit its selections or cancel it"), nil
	}
	res, err := g.eng.Resume(player, name, args)
	if err != nil {
		return g.State(), res, err
	}
	if res.Success {
		g.seq++
	}
	return g.eng.State(), res, nil
}

// SelectionPrompt describes the next selection a pending action needs.
type SelectionPrompt struct {
	Action    string `json:"action"`
	Selection string `json:"selection"`
	Prompt    string `json:"prompt,omitempty"`
	Optional  bool   `json:"optional,omitempty"`

	// Choices is the live choice set; nil for free-form selections.
	Choices []any `json:"choices,omitempty"`
}

// BeginAction opens the step-by-step selection protocol for one of the
// currently offered actions.
func (g *Game) BeginAction(player int, name string) (*SelectionPrompt, error) {
	if g.pending != nil {
		return nil, fmt.Errorf("a pending action is already open")
	}
	st := g.eng.State()
	if !st.AwaitingInput {
		return nil, fmt.Errorf("game is not awaiting input")
	}
	if !offeredTo(st, player, name) {
		return nil, fmt.Errorf("action %q is not offered to seat %d", name, player)
	}
	p, err := g.exec.NewPending(name, player)
	if err != nil {
		return nil, err
	}
	g.pending = p
	return g.pendingPrompt()
}

// PendingPrompt returns the prompt for the pending action's current
// selection, or nil when every selection is filled.
func (g *Game) PendingPrompt() (*SelectionPrompt, error) {
	if g.pending == nil {
		return nil, fmt.Errorf("no pending action")
	}
	return g.pendingPrompt()
}

func (g *Game) pendingPrompt() (*SelectionPrompt, error) {
	p := g.pending
	if g.exec.PendingComplete(p) {
		return nil, nil
	}
	def := g.exec.Definition(p.Action)
	sel := def.Selections[p.Index]
	m := action.MetaOf(sel)

	ctx := &action.Context{
		Board:  g.board,
		Roster: g.roster,
		Player: p.Player,
		Args:   p.Args,
		Vars:   g.eng.Vars(),
	}
	choices, err := g.exec.Choices(ctx, sel)
	if err != nil {
		return nil, err
	}
	return &SelectionPrompt{
		Action:    p.Action,
		Selection: m.Name,
		Prompt:    m.Prompt,
		Optional:  m.Optional,
		Choices:   choices,
	}, nil
}

// SubmitSelection feeds one value into the pending action. When the
// last selection is consumed the action executes through the flow
// engine and the pending state is cleared.
func (g *Game) SubmitSelection(selName string, value any) (*flow.State, action.Result, error) {
	if g.pending == nil {
		return g.State(), action.Fail("no pending action"), nil
	}
	st := g.exec.StepPending(g.pending, selName, value, g.eng.Vars())
	if !st.Success {
		return g.State(), st.Result, nil
	}
	if !g.exec.PendingComplete(g.pending) {
		return g.State(), st.Result, nil
	}

	p := g.pending
	g.pending = nil
	res, err := g.eng.Resume(p.Player, p.Action, p.Args)
	if err != nil {
		return g.State(), res, err
	}
	if res.Success {
		g.seq++
	}
	return g.eng.State(), res, nil
}

// CancelAction abandons the pending action, firing repeat cancellation
// hooks at most once each.
func (g *Game) CancelAction() {
	if g.pending == nil {
		return
	}
	g.exec.CancelPending(g.pending, g.eng.Vars())
	g.pending = nil
}

// Winners returns the final standings once the game is complete.
func (g *Game) Winners() []int { return g.eng.Winners() }

// TraceAction explains why an action is or is not available to a seat
// right now. It is a read-only diagnostic.
func (g *Game) TraceAction(player int, name string) (*action.AvailabilityTrace, error) {
	return g.exec.TraceAvailability(player, name, g.eng.Vars())
}

func offeredTo(st *flow.State, player int, name string) bool {
	if st.Player == player {
		for _, n := range st.AvailableActions {
			if n == name {
				return true
			}
		}
	}
	for _, pa := range st.Awaiting {
		if pa.Player != player || pa.Done {
			continue
		}
		for _, n := range pa.AvailableActions {
			if n == name {
				return true
			}
		}
	}
	return false
}
