package flow

import (
	"time"

	"github.com/gambitlabs/gambit/internal/game"
)

// Context is handed to every flow callback: predicates, effects,
// computed players, item sources, and phase hooks.
//
// Vars is the live variable table; side-effect nodes mutate it in
// place and the engine serializes it into every position snapshot.
type Context struct {
	Board  *game.Board
	Roster *game.Roster
	Player int
	Vars   map[string]any
}

// Node is the closed union of flow node variants. Only the ten types
// in this file implement it; the engine's executor and the position
// restorer switch exhaustively over them. Nodes are immutable once
// built and shared by reference across runs of the same definition.
type Node interface {
	node()

	// childAt returns the definition child at a recorded index, used
	// to re-derive a frame stack from a serialized position. ok is
	// false for out-of-range indices.
	childAt(i int) (Node, bool)
}

// Sequence executes children in order and completes when exhausted.
type Sequence struct {
	Children []Node
}

// Seq builds a Sequence.
func Seq(children ...Node) *Sequence { return &Sequence{Children: children} }

func (*Sequence) node() {}
func (n *Sequence) childAt(i int) (Node, bool) {
	if i < 0 || i >= len(n.Children) {
		return nil, false
	}
	return n.Children[i], true
}

// DefaultLoopCap bounds a Loop that never turns its predicate false.
const DefaultLoopCap = 10000

// Loop re-pushes Do while the predicate holds and the iteration cap is
// not hit. The iteration count is part of the serialized frame data.
type Loop struct {
	// While keeps the loop running; nil loops until the cap.
	While Predicate
	Do    Node
	// MaxIterations defaults to DefaultLoopCap when zero.
	MaxIterations int
}

func (*Loop) node() {}
func (n *Loop) childAt(i int) (Node, bool) {
	if i != 0 {
		return nil, false
	}
	return n.Do, true
}

func (n *Loop) cap() int {
	if n.MaxIterations > 0 {
		return n.MaxIterations
	}
	return DefaultLoopCap
}

// EachPlayer iterates a filtered, optionally reversed list of seats,
// executing Do once per seat with the seat bound to Var and to the
// roster's current pointer.
//
// When StartFrom supplies an explicit starting seat the iteration runs
// from that seat to the END of the (possibly reversed) list and does
// NOT wrap around to cover earlier seats.
type EachPlayer struct {
	// Var names the flow variable bound to the current seat.
	// Defaults to "player".
	Var string

	// Filter keeps only matching seats; nil keeps all.
	Filter func(ctx *Context, seat int) bool

	// Reverse iterates the seat list backwards.
	Reverse bool

	// StartFrom computes the first seat; nil starts at the head of the
	// list.
	StartFrom func(ctx *Context) int

	Do Node
}

func (*EachPlayer) node() {}
func (n *EachPlayer) childAt(i int) (Node, bool) {
	if i != 0 {
		return nil, false
	}
	return n.Do, true
}

func (n *EachPlayer) varName() string {
	if n.Var != "" {
		return n.Var
	}
	return "player"
}

// ForEach iterates a static or context-computed collection, binding
// each item to Var.
type ForEach struct {
	Var    string
	Items  []any
	Source func(ctx *Context) []any
	Do     Node
}

func (*ForEach) node() {}
func (n *ForEach) childAt(i int) (Node, bool) {
	if i != 0 {
		return nil, false
	}
	return n.Do, true
}

// ActionStep is a decision point: compute the acting seat, offer the
// available subset of Actions, and suspend until a move arrives.
//
// If no action is available the step completes immediately (skip) -
// unless MinMoves is unmet, which is a flow-definition error. MaxMoves
// is an absolute cap regardless of RepeatUntil.
type ActionStep struct {
	// Player computes the acting seat; nil uses the roster's current
	// pointer.
	Player func(ctx *Context) int

	// Actions is the requested action-name list; nil requests every
	// registered action.
	Actions []string

	Prompt string

	// SkipIf completes the step without offering anything.
	SkipIf Predicate

	// MinMoves/MaxMoves bound successful moves through this same step.
	MinMoves int
	MaxMoves int

	// RepeatUntil is checked after each successful move; the step only
	// terminates once MinMoves is also met.
	RepeatUntil Predicate

	// Timeout is a passive hint surfaced to UI layers; the engine does
	// not enforce it.
	Timeout time.Duration
}

func (*ActionStep) node() {}
func (*ActionStep) childAt(int) (Node, bool) { return nil, false }

// Simultaneous is a concurrent decision window: every tracked seat may
// act within it, one action per resumption call, in any order. A seat
// is marked done after its action, or immediately when it has no
// available action. The window completes when DoneWhen holds or every
// tracked seat is done.
type Simultaneous struct {
	// Players computes the tracked seats; nil tracks every seat.
	Players func(ctx *Context) []int

	Actions []string
	Prompt  string

	// DoneWhen can complete the window early. done maps seat to
	// completion.
	DoneWhen func(ctx *Context, done map[int]bool) bool

	// Timeout is a passive hint, not enforced.
	Timeout time.Duration
}

func (*Simultaneous) node() {}
func (*Simultaneous) childAt(int) (Node, bool) { return nil, false }

// Case pairs a match value with a branch.
type Case struct {
	When any
	Then Node
}

// Switch branches on a computed value, evaluated exactly once per
// entry (memoized in frame data so resuming mid-branch does not
// re-evaluate). Completes once the chosen branch completes, or
// immediately when nothing matches and there is no Default.
type Switch struct {
	Value   func(ctx *Context) any
	Cases   []Case
	Default Node
}

func (*Switch) node() {}
func (n *Switch) childAt(i int) (Node, bool) {
	if i >= 0 && i < len(n.Cases) {
		return n.Cases[i].Then, true
	}
	if i == len(n.Cases) && n.Default != nil {
		return n.Default, true
	}
	return nil, false
}

// If branches on a predicate, evaluated exactly once per entry.
type If struct {
	Cond Predicate
	Then Node
	Else Node
}

func (*If) node() {}
func (n *If) childAt(i int) (Node, bool) {
	switch i {
	case 0:
		return n.Then, true
	case 1:
		if n.Else != nil {
			return n.Else, true
		}
	}
	return nil, false
}

// Effect runs a synchronous callback against the current context.
// Variable mutations land directly in the engine's table. Never
// suspends.
type Effect struct {
	Fn func(ctx *Context)
}

func (*Effect) node() {}
func (*Effect) childAt(int) (Node, bool) { return nil, false }

// Phase wraps a child in a named phase: enter/exit hooks fire on the
// definition's PhaseHooks, the active name is exposed for
// observability, and the previously active name is restored on exit.
// Phases nest.
type Phase struct {
	Name string
	Do   Node
}

func (*Phase) node() {}
func (n *Phase) childAt(i int) (Node, bool) {
	if i != 0 {
		return nil, false
	}
	return n.Do, true
}
