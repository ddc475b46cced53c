package action

import (
	"regexp"

	"github.com/gambitlabs/gambit/internal/game"
)

// Context carries everything a selection source, filter, predicate, or
// effect may read: the board, the roster, the acting seat, the
// arguments collected so far (keyed by selection name), and the flow
// variables.
type Context struct {
	Board  *game.Board
	Roster *game.Roster
	Player int
	Args   map[string]any
	Vars   map[string]any
}

// clone returns a copy of the context with an independent Args map.
// Vars and board references are shared; availability search and tracing
// must not observe their own temporary bindings across branches.
func (c *Context) clone() *Context {
	args := make(map[string]any, len(c.Args))
	for k, v := range c.Args {
		args[k] = v
	}
	out := *c
	out.Args = args
	return &out
}

// Selection is the closed union of typed argument slots. Only Choice,
// PiecePick, PieceSet, Text, and Number implement it; every consumer
// switches exhaustively over those five.
type Selection interface {
	selection()
	meta() Meta
}

// Meta holds the fields shared by every selection kind.
type Meta struct {
	// Name keys the collected value in Args. Required, unique per
	// action.
	Name string

	// Optional selections may be skipped; they never block
	// availability.
	Optional bool

	// Validate is an optional custom validator run after the built-in
	// checks. A non-nil return rejects the value.
	Validate func(ctx *Context, value any) error

	// Prompt is an optional per-selection prompt for UI layers.
	Prompt string
}

func (m Meta) meta() Meta { return m }

// MetaOf returns the shared metadata of any selection.
func MetaOf(sel Selection) Meta { return sel.meta() }

// Choice is a value-choice slot: pick one value from a static list or
// a context-computed source.
type Choice struct {
	Meta

	// Options is the static choice source. Exactly one of Options and
	// Source should be set.
	Options []any

	// Source computes the choice set from the current context.
	// Dynamically-sourced choices are only non-emptiness-checked during
	// availability; the source must tolerate prior selections being
	// absent from Args.
	Source func(ctx *Context) []any

	// DependsOn names a prior selection whose recorded value narrows
	// this one's candidates.
	DependsOn string

	// FilterKey is the key read from map-shaped candidates when
	// matching against the DependsOn value. Non-map candidates are
	// compared whole. When the prior value is a piece, its ID is the
	// comparison key.
	FilterKey string

	// Repeat, when set, makes this a repeat-until selection: values are
	// accumulated one pick at a time and committed as a single array.
	Repeat *Repeat
}

func (*Choice) selection() {}

// Repeat configures repeat-until semantics for a Choice.
type Repeat struct {
	// Until terminates the repeat after a pick. Checked with the pick
	// and the accumulator including it.
	Until func(ctx *Context, picked any, acc []any) bool

	// UntilValue is an equality shorthand: the repeat terminates when
	// this value is picked. Ignored when Until is set.
	UntilValue any

	// OnPick runs after each accepted pick. It may mutate external
	// state (partially applying an effect); an error rejects the pick.
	OnPick func(ctx *Context, picked any) error

	// OnCancel runs at most once if the pending action is cancelled
	// after at least one committed pick.
	OnCancel func(ctx *Context)
}

// PiecePick is a single-entity slot: pick one piece from a queried
// scope.
type PiecePick struct {
	Meta

	// Kind filters candidates by piece kind. Empty matches any kind.
	Kind string

	// Scope computes the root candidate set; nil means every piece on
	// the board.
	Scope func(ctx *Context) []*game.Piece

	// Where further filters candidates. Filters that read prior
	// selections from Args must tolerate their absence; a panic here is
	// caught and reported as a diagnostic.
	Where func(ctx *Context, p *game.Piece) bool
}

func (*PiecePick) selection() {}

// PieceSet is a multi-entity slot: pick between Min and Max pieces from
// a queried scope.
type PieceSet struct {
	Meta

	Kind  string
	Scope func(ctx *Context) []*game.Piece
	Where func(ctx *Context, p *game.Piece) bool

	// Min/Max bound the number of picks. Zero Max means unbounded.
	Min int
	Max int
}

func (*PieceSet) selection() {}

// Text is a free-text slot.
type Text struct {
	Meta

	// Pattern, when set, must match the whole value.
	Pattern *regexp.Regexp

	// MinLen/MaxLen bound the length in runes. Zero MaxLen means
	// unbounded.
	MinLen int
	MaxLen int
}

func (*Text) selection() {}

// Number is a numeric slot.
type Number struct {
	Meta

	// Min/Max are inclusive bounds; nil means unbounded.
	Min *float64
	Max *float64

	// IntegerOnly rejects fractional values.
	IntegerOnly bool
}

func (*Number) selection() {}

// KindOf returns the wire/diagnostic name of a selection's kind:
// "choice", "piece", "pieceSet", "text", or "number".
func KindOf(sel Selection) string { return kindName(sel) }

// kindName returns the wire/diagnostic name of a selection kind.
func kindName(sel Selection) string {
	switch sel.(type) {
	case *Choice:
		return "choice"
	case *PiecePick:
		return "piece"
	case *PieceSet:
		return "pieceSet"
	case *Text:
		return "text"
	case *Number:
		return "number"
	default:
		return "unknown"
	}
}
