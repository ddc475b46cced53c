package action

import (
	"fmt"
	"reflect"

	"github.com/gambitlabs/gambit/internal/game"
)

// Choices computes the current valid choice set for a selection given
// the arguments collected so far.
//
// Choice selections evaluate their static list or source function, then
// narrow by the dependency filter. Piece selections evaluate their
// scope, kind filter, and predicate. Text and number selections are not
// enumerable and return nil.
//
// A panicking piece predicate is caught and reported as an error naming
// the selection - the usual cause is a filter reading a prior selection
// that has not been submitted yet.
func (x *Executor) Choices(ctx *Context, sel Selection) ([]any, error) {
	switch s := sel.(type) {
	case *Choice:
		return x.choiceOptions(ctx, s), nil
	case *PiecePick:
		ps, err := x.pieceCandidates(ctx, s.Meta.Name, s.Kind, s.Scope, s.Where)
		if err != nil {
			return nil, err
		}
		return piecesToAny(ps), nil
	case *PieceSet:
		ps, err := x.pieceCandidates(ctx, s.Meta.Name, s.Kind, s.Scope, s.Where)
		if err != nil {
			return nil, err
		}
		return piecesToAny(ps), nil
	case *Text, *Number:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown selection type %T", sel)
	}
}

// choiceOptions evaluates a Choice's source and applies its dependency
// filter against the prior selection's recorded value.
func (x *Executor) choiceOptions(ctx *Context, s *Choice) []any {
	opts := s.Options
	if s.Source != nil {
		opts = s.Source(ctx)
	}
	if s.DependsOn == "" {
		return opts
	}
	prior, present := ctx.Args[s.DependsOn]
	if !present || prior == nil {
		return opts
	}
	key := comparisonKey(prior)
	var out []any
	for _, opt := range opts {
		if valueEq(candidateKey(opt, s.FilterKey), key) {
			out = append(out, opt)
		}
	}
	return out
}

// pieceCandidates runs scope+kind+predicate with a recover guard around
// the whole traversal.
func (x *Executor) pieceCandidates(ctx *Context, selName, kind string, scope func(*Context) []*game.Piece, where func(*Context, *game.Piece) bool) (ps []*game.Piece, err error) {
	defer func() {
		if r := recover(); r != nil {
			ps = nil
			err = fmt.Errorf(
				"entity filter for selection %q panicked (it likely reads a selection that has not been submitted yet): %v",
				selName, r)
		}
	}()

	var pool []*game.Piece
	if scope != nil {
		pool = scope(ctx)
	} else {
		pool = ctx.Board.All()
	}
	for _, p := range pool {
		if kind != "" && p.Kind() != kind {
			continue
		}
		if where != nil && !where(ctx, p) {
			continue
		}
		ps = append(ps, p)
	}
	return ps, nil
}

func piecesToAny(ps []*game.Piece) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// comparisonKey extracts the value a dependency filter matches against.
// Entity-shaped prior values fall back to their identity field.
func comparisonKey(prior any) any {
	if p, ok := prior.(*game.Piece); ok {
		return p.ID()
	}
	return prior
}

// candidateKey extracts a candidate's filter key: map candidates are
// indexed by FilterKey, everything else is compared whole.
func candidateKey(opt any, filterKey string) any {
	if filterKey == "" {
		return opt
	}
	if m, ok := opt.(map[string]any); ok {
		return m[filterKey]
	}
	return opt
}

// valueEq compares two JSON-shaped values loosely: numeric types
// compare by value, pieces by identity, map-shaped candidates
// structurally, everything else by ==.
func valueEq(a, b any) bool {
	if ap, ok := a.(*game.Piece); ok {
		if bp, ok := b.(*game.Piece); ok {
			return ap == bp
		}
		a = ap.ID()
	}
	if bp, ok := b.(*game.Piece); ok {
		b = bp.ID()
	}
	if an, ok := numeric(a); ok {
		if bn, ok := numeric(b); ok {
			return an == bn
		}
		return false
	}
	if am, ok := a.(map[string]any); ok {
		bm, ok := b.(map[string]any)
		return ok && reflect.DeepEqual(am, bm)
	}
	if _, ok := b.(map[string]any); ok {
		return false
	}
	return a == b
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// containsValue reports whether the choice set contains the value.
func containsValue(choices []any, value any) bool {
	for _, c := range choices {
		if valueEq(c, value) {
			return true
		}
	}
	return false
}
