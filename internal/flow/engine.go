package flow

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/game"
)

// Performer resolves and executes named actions on behalf of the flow.
// action.Executor satisfies it directly.
type Performer interface {
	// Available filters names down to the actions the seat can legally
	// take right now. A nil names slice means every registered action.
	Available(player int, names []string, vars map[string]any) []string

	// Perform validates and executes one action. A failed Result must
	// leave all game state untouched.
	Perform(name string, player int, args, vars map[string]any) action.Result

	// Prompt returns the action's player-facing prompt text.
	Prompt(name string) string
}

// PhaseHooks fire on phase boundaries. Hooks run during normal
// execution only; restoring a serialized position re-derives the
// active phase without replaying them.
type PhaseHooks struct {
	OnEnter func(ctx *Context, name string)
	OnExit  func(ctx *Context, name string)
}

// Definition is an immutable flow program: the node graph plus the
// callbacks that frame a full game. One Definition serves any number
// of concurrent Engine instances.
type Definition struct {
	Root Node

	// Setup runs once before the root node, typically dealing pieces
	// and seeding variables.
	Setup func(ctx *Context)

	// Winners is consulted only after the flow completes.
	Winners func(ctx *Context) []int

	Phases PhaseHooks
}

// DefaultMaxSteps is the global interpreter step ceiling, distinct
// from any Loop node's own iteration cap.
const DefaultMaxSteps = 100000

// Engine interprets one Definition for one game instance. Not safe for
// concurrent use; callers serialize per instance.
type Engine struct {
	def       *Definition
	performer Performer
	board     *game.Board
	roster    *game.Roster

	vars  map[string]any
	stack []*frame

	awaiting  bool
	complete  bool
	acting    int
	available []string
	prompt    string
	phase     string
	moves     int

	logger   *slog.Logger
	maxSteps int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxSteps overrides the global interpreter step ceiling.
func WithMaxSteps(n int) Option {
	return func(e *Engine) { e.maxSteps = n }
}

// New builds an Engine over a definition and a game's live state. Call
// Start (or RestorePosition) before anything else.
func New(def *Definition, board *game.Board, roster *game.Roster, performer Performer, opts ...Option) *Engine {
	e := &Engine{
		def:       def,
		performer: performer,
		board:     board,
		roster:    roster,
		vars:      make(map[string]any),
		acting:    -1,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxSteps:  DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start runs setup, enters the root node, and executes until the first
// suspension or completion.
func (e *Engine) Start() error {
	ctx := e.ctx()
	if e.def.Setup != nil {
		e.def.Setup(ctx)
	}
	e.stack = append(e.stack, newFrame(e.def.Root))
	return e.run()
}

// AwaitingInput reports whether the engine is suspended at a decision
// point or decision window.
func (e *Engine) AwaitingInput() bool { return e.awaiting }

// Complete reports whether the flow has finished.
func (e *Engine) Complete() bool { return e.complete }

// ActingPlayer returns the seat whose move is awaited at a decision
// point, or -1.
func (e *Engine) ActingPlayer() int {
	if !e.awaiting {
		return -1
	}
	return e.acting
}

// AvailableActions returns the offered action names at the current
// decision point.
func (e *Engine) AvailableActions() []string { return e.available }

// Prompt returns the active decision's prompt text.
func (e *Engine) Prompt() string { return e.prompt }

// PhaseName returns the innermost active phase name, or "".
func (e *Engine) PhaseName() string { return e.phase }

// Vars exposes the live variable table. Callers outside effects must
// treat it as read-only.
func (e *Engine) Vars() map[string]any { return e.vars }

// Moves returns the count of successful moves so far.
func (e *Engine) Moves() int { return e.moves }

// Winners returns the final standings once the flow completes, nil
// before then.
func (e *Engine) Winners() []int {
	if !e.complete || e.def.Winners == nil {
		return nil
	}
	return e.def.Winners(e.ctx())
}

// Resume feeds one move into a suspended engine. A rejected move (not
// offered, wrong seat, failed validation or effect) comes back as a
// failed Result with the engine state bit-for-bit unchanged. The error
// return is reserved for fatal RuntimeErrors from the execution that
// follows a successful move.
func (e *Engine) Resume(player int, name string, args map[string]any) (action.Result, error) {
	if e.complete {
		return action.Fail("flow is complete; no further moves are accepted"), nil
	}
	if !e.awaiting {
		return action.Fail("flow is not awaiting input"), nil
	}

	f := e.top()
	switch n := f.node.(type) {
	case *ActionStep:
		return e.resumeStep(f, n, player, name, args)
	case *Simultaneous:
		return e.resumeWindow(f, n, player, name, args)
	default:
		return action.Result{}, newBadMoveError(
			fmt.Sprintf("suspended on unexpected node %T", f.node), player)
	}
}

func (e *Engine) resumeStep(f *frame, n *ActionStep, player int, name string, args map[string]any) (action.Result, error) {
	if player != e.acting {
		return action.Fail(fmt.Sprintf(
			"it is seat %d's turn, not seat %d's", e.acting, player)), nil
	}
	if !containsName(e.available, name) {
		return action.Fail(fmt.Sprintf("action %q is not available", name)), nil
	}
	res := e.performer.Perform(name, player, args, e.vars)
	if !res.Success {
		return res, nil
	}

	f.iter++
	e.moves++
	e.logger.Debug("move accepted",
		"action", name, "player", player, "phase", e.phase, "moves", f.iter)
	e.clearSuspension()
	return res, e.run()
}

func (e *Engine) resumeWindow(f *frame, n *Simultaneous, player int, name string, args map[string]any) (action.Result, error) {
	if !containsSeat(f.players, player) {
		return action.Fail(fmt.Sprintf("seat %d is not in this decision window", player)), nil
	}
	if f.done[player] {
		return action.Fail(fmt.Sprintf("seat %d has already acted in this window", player)), nil
	}
	avail := e.performer.Available(player, n.Actions, e.vars)
	if !containsName(avail, name) {
		return action.Fail(fmt.Sprintf("action %q is not available to seat %d", name, player)), nil
	}
	res := e.performer.Perform(name, player, args, e.vars)
	if !res.Success {
		return res, nil
	}

	f.done[player] = true
	e.moves++
	e.logger.Debug("window move accepted",
		"action", name, "player", player, "phase", e.phase)
	e.clearSuspension()
	return res, e.run()
}

func (e *Engine) clearSuspension() {
	e.awaiting = false
	e.available = nil
	e.prompt = ""
}

// run is the trampoline: pop completed frames, step the top frame,
// stop on suspension or an empty stack. The global step ceiling is a
// backstop against flow definitions that never suspend; hitting it is
// fatal, never retried.
func (e *Engine) run() error {
	for steps := 0; ; steps++ {
		if steps >= e.maxSteps {
			return newCeilingError(e.phase, e.maxSteps)
		}
		if len(e.stack) == 0 {
			e.finish()
			return nil
		}
		f := e.top()
		if f.completed {
			e.pop()
			continue
		}
		suspended, err := e.step(f)
		if err != nil {
			return err
		}
		if suspended {
			return nil
		}
	}
}

func (e *Engine) finish() {
	e.complete = true
	e.clearSuspension()
	e.acting = -1
	e.logger.Debug("flow complete", "moves", e.moves)
}

func (e *Engine) ctx() *Context {
	return &Context{Board: e.board, Roster: e.roster, Player: e.acting, Vars: e.vars}
}

// step executes one interpreter turn against the top frame. Returns
// true when the engine suspended for input.
func (e *Engine) step(f *frame) (bool, error) {
	switch n := f.node.(type) {
	case *Sequence:
		next := f.childIndex + 1
		if next >= len(n.Children) {
			f.completed = true
			return false, nil
		}
		e.push(f, next, n.Children[next])
		return false, nil

	case *Loop:
		if f.iter >= n.cap() {
			return false, &RuntimeError{
				Code:    ErrCodeIterationCeiling,
				Message: fmt.Sprintf("loop exceeded %d iterations", n.cap()),
				Phase:   e.phase,
				Player:  -1,
			}
		}
		if n.While != nil && !n.While(e.ctx()) {
			f.completed = true
			return false, nil
		}
		f.iter++
		e.push(f, 0, n.Do)
		return false, nil

	case *EachPlayer:
		if !f.entered {
			f.order = e.seatOrder(n)
			f.entered = true
		}
		if f.iter >= len(f.order) {
			f.completed = true
			return false, nil
		}
		seat := f.order[f.iter]
		f.iter++
		e.vars[n.varName()] = seat
		e.roster.SetCurrent(seat)
		e.acting = seat
		e.push(f, 0, n.Do)
		return false, nil

	case *ForEach:
		if !f.entered {
			f.items = n.Items
			if n.Source != nil {
				f.items = n.Source(e.ctx())
			}
			f.entered = true
		}
		if f.iter >= len(f.items) {
			f.completed = true
			return false, nil
		}
		e.vars[n.Var] = f.items[f.iter]
		f.iter++
		e.push(f, 0, n.Do)
		return false, nil

	case *ActionStep:
		return e.stepDecision(f, n)

	case *Simultaneous:
		return e.stepWindow(f, n)

	case *Switch:
		if f.childIndex != -1 {
			f.completed = true
			return false, nil
		}
		if !f.evaluated {
			f.evaluated = true
			v := n.Value(e.ctx())
			for i, c := range n.Cases {
				if matchValue(c.When, v) {
					e.push(f, i, c.Then)
					return false, nil
				}
			}
			if n.Default != nil {
				e.push(f, len(n.Cases), n.Default)
				return false, nil
			}
		}
		f.completed = true
		return false, nil

	case *If:
		if f.childIndex != -1 {
			f.completed = true
			return false, nil
		}
		if !f.evaluated {
			f.evaluated = true
			if n.Cond(e.ctx()) {
				e.push(f, 0, n.Then)
				return false, nil
			}
			if n.Else != nil {
				e.push(f, 1, n.Else)
				return false, nil
			}
		}
		f.completed = true
		return false, nil

	case *Effect:
		n.Fn(e.ctx())
		f.completed = true
		return false, nil

	case *Phase:
		if f.childIndex != -1 {
			if e.def.Phases.OnExit != nil {
				e.def.Phases.OnExit(e.ctx(), n.Name)
			}
			e.phase = f.prevPhase
			f.completed = true
			return false, nil
		}
		if !f.entered {
			f.prevPhase = e.phase
			e.phase = n.Name
			f.entered = true
			if e.def.Phases.OnEnter != nil {
				e.def.Phases.OnEnter(e.ctx(), n.Name)
			}
		}
		e.push(f, 0, n.Do)
		return false, nil

	default:
		return false, &RuntimeError{
			Code:    ErrCodeBadPosition,
			Message: fmt.Sprintf("unknown node type %T on the stack", f.node),
			Player:  -1,
		}
	}
}

// stepDecision evaluates an ActionStep's termination conditions and
// suspends when another move is owed.
func (e *Engine) stepDecision(f *frame, n *ActionStep) (bool, error) {
	if !f.entered {
		f.entered = true
		if n.SkipIf != nil && n.SkipIf(e.ctx()) {
			f.completed = true
			return false, nil
		}
	}

	player := e.roster.Current()
	if n.Player != nil {
		player = n.Player(e.ctx())
	}
	e.acting = player

	if n.MaxMoves > 0 && f.iter >= n.MaxMoves {
		f.completed = true
		return false, nil
	}
	if n.RepeatUntil != nil {
		// The predicate is consulted after a successful move, never on
		// first entry; an already-true condition still costs one move.
		if f.iter > 0 && f.iter >= n.MinMoves && n.RepeatUntil(e.ctx()) {
			f.completed = true
			return false, nil
		}
	} else if n.MaxMoves == 0 {
		// Plain decision point: one move, or MinMoves of them.
		required := n.MinMoves
		if required < 1 {
			required = 1
		}
		if f.iter >= required {
			f.completed = true
			return false, nil
		}
	}

	avail := e.performer.Available(player, n.Actions, e.vars)
	if len(avail) == 0 {
		if f.iter < n.MinMoves {
			return false, newStuckError(e.phase, player, f.iter, n.MinMoves)
		}
		f.completed = true
		return false, nil
	}

	e.awaiting = true
	e.available = avail
	e.prompt = n.Prompt
	return true, nil
}

// stepWindow evaluates a Simultaneous window: seats with nothing to do
// are marked done automatically, and the window suspends while any
// tracked seat still owes a move.
func (e *Engine) stepWindow(f *frame, n *Simultaneous) (bool, error) {
	if f.players == nil {
		if n.Players != nil {
			f.players = n.Players(e.ctx())
		} else {
			f.players = e.roster.Seats()
		}
	}
	if f.done == nil {
		f.done = make(map[int]bool)
	}

	for _, seat := range f.players {
		if f.done[seat] {
			continue
		}
		if len(e.performer.Available(seat, n.Actions, e.vars)) == 0 {
			f.done[seat] = true
		}
	}

	if n.DoneWhen != nil && n.DoneWhen(e.ctx(), f.done) {
		f.completed = true
		return false, nil
	}
	allDone := true
	for _, seat := range f.players {
		if !f.done[seat] {
			allDone = false
			break
		}
	}
	if allDone {
		f.completed = true
		return false, nil
	}

	for _, seat := range f.players {
		if !f.done[seat] {
			e.acting = seat
			break
		}
	}
	e.awaiting = true
	e.available = e.performer.Available(e.acting, n.Actions, e.vars)
	e.prompt = n.Prompt
	return true, nil
}

// seatOrder resolves an EachPlayer node's iteration list: filter, then
// reverse, then cut at the starting seat without wrapping.
func (e *Engine) seatOrder(n *EachPlayer) []int {
	ctx := e.ctx()
	var seats []int
	for _, s := range e.roster.Seats() {
		if n.Filter == nil || n.Filter(ctx, s) {
			seats = append(seats, s)
		}
	}
	if n.Reverse {
		for i, j := 0, len(seats)-1; i < j; i, j = i+1, j-1 {
			seats[i], seats[j] = seats[j], seats[i]
		}
	}
	if n.StartFrom != nil {
		start := n.StartFrom(ctx)
		for i, s := range seats {
			if s == start {
				return seats[i:]
			}
		}
		return nil
	}
	return seats
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func containsSeat(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}

// matchValue compares a case label against a switch value, coercing
// across integer widths the way JSON round-trips produce them.
func matchValue(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
