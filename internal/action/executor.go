package action

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gambitlabs/gambit/internal/game"
)

// Executor resolves wire arguments, computes choice sets, validates
// values, decides availability, and runs effects for one game's action
// definitions.
//
// The executor holds no per-call state; PendingState for multi-step
// submission is owned by the caller and passed in explicitly.
type Executor struct {
	board  *game.Board
	roster *game.Roster
	defs   map[string]*Definition
	order  []string
	logger *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(x *Executor) { x.logger = l }
}

// NewExecutor creates an Executor over the given board, roster, and
// definitions. Definition order is preserved: Available and
// Definitions always report in declaration order.
func NewExecutor(board *game.Board, roster *game.Roster, defs []*Definition, opts ...ExecutorOption) *Executor {
	x := &Executor{
		board:  board,
		roster: roster,
		defs:   make(map[string]*Definition, len(defs)),
		order:  make([]string, 0, len(defs)),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, d := range defs {
		x.defs[d.Name] = d
		x.order = append(x.order, d.Name)
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Definition returns the named definition, or nil.
func (x *Executor) Definition(name string) *Definition { return x.defs[name] }

// Definitions returns every definition in declaration order.
func (x *Executor) Definitions() []*Definition {
	out := make([]*Definition, 0, len(x.order))
	for _, name := range x.order {
		out = append(out, x.defs[name])
	}
	return out
}

// Prompt returns the prompt for the named action, or "".
func (x *Executor) Prompt(name string) string {
	if d := x.defs[name]; d != nil {
		return d.Prompt
	}
	return ""
}

func (x *Executor) context(player int, args, vars map[string]any) *Context {
	if args == nil {
		args = make(map[string]any)
	}
	if vars == nil {
		vars = make(map[string]any)
	}
	return &Context{Board: x.board, Roster: x.roster, Player: player, Args: args, Vars: vars}
}

// Perform resolves, validates, and executes an action in one shot.
// Every failure mode comes back as a Result; the board is untouched on
// any failure before the effect runs.
func (x *Executor) Perform(name string, player int, args, vars map[string]any) Result {
	def := x.defs[name]
	if def == nil {
		return Fail(fmt.Sprintf("unknown action %q", name))
	}
	ctx := x.context(player, args, vars)

	if err := x.ResolveArgs(ctx, def); err != nil {
		return Fail(err.Error())
	}
	if def.When != nil && !def.When(ctx) {
		return Fail(fmt.Sprintf("action %q is not available", name))
	}
	if errs := x.validateArgs(ctx, def); len(errs) > 0 {
		return Fail(errs...)
	}

	res := x.runEffect(ctx, def)
	if res.Success {
		x.logger.Debug("action performed", "action", name, "player", player)
	} else {
		x.logger.Debug("action failed", "action", name, "player", player, "errors", res.Errors)
	}
	return res
}

// runEffect invokes the effect inside a recover guard. Panics become
// structured failures with the message preserved; partial side effects
// are not rolled back.
func (x *Executor) runEffect(ctx *Context, def *Definition) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail(fmt.Sprintf("effect for action %q failed: %v", def.Name, r))
		}
	}()
	if def.Effect != nil {
		if err := def.Effect(ctx); err != nil {
			return Fail(fmt.Sprintf("effect for action %q failed: %v", def.Name, err))
		}
	}
	return Ok()
}

// ResolveArgs rehydrates wire-level identifiers into live references:
// piece IDs become *game.Piece, ID slices become piece slices.
// Idempotent - already-live values pass through unchanged.
func (x *Executor) ResolveArgs(ctx *Context, def *Definition) error {
	for _, sel := range def.Selections {
		name := sel.meta().Name
		raw, present := ctx.Args[name]
		if !present || raw == nil {
			continue
		}
		switch sel.(type) {
		case *PiecePick:
			p, err := x.resolvePiece(raw)
			if err != nil {
				return fmt.Errorf("selection %q: %w", name, err)
			}
			ctx.Args[name] = p
		case *PieceSet:
			ps, err := x.resolvePieces(raw)
			if err != nil {
				return fmt.Errorf("selection %q: %w", name, err)
			}
			ctx.Args[name] = ps
		}
	}
	return nil
}

func (x *Executor) resolvePiece(raw any) (*game.Piece, error) {
	switch v := raw.(type) {
	case *game.Piece:
		return v, nil
	case string:
		p := x.board.Find(v)
		if p == nil {
			return nil, fmt.Errorf("no piece with id %q", v)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("expected a piece id, got %T", raw)
	}
}

func (x *Executor) resolvePieces(raw any) ([]*game.Piece, error) {
	switch v := raw.(type) {
	case []*game.Piece:
		return v, nil
	case []any:
		out := make([]*game.Piece, 0, len(v))
		for _, elem := range v {
			p, err := x.resolvePiece(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case []string:
		out := make([]*game.Piece, 0, len(v))
		for _, id := range v {
			p, err := x.resolvePiece(id)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of piece ids, got %T", raw)
	}
}

// validateArgs checks every selection's collected value: required
// presence, type/bounds, choice-set membership, custom validator.
func (x *Executor) validateArgs(ctx *Context, def *Definition) []string {
	var errs []string
	for _, sel := range def.Selections {
		m := sel.meta()
		value, present := ctx.Args[m.Name]
		if !present || value == nil {
			if !m.Optional {
				errs = append(errs, fmt.Sprintf("selection %q is required", m.Name))
			}
			continue
		}
		errs = append(errs, x.ValidateSelection(ctx, sel, value)...)
	}
	return errs
}
