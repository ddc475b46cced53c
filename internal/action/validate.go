package action

import (
	"fmt"
	"unicode/utf8"

	"github.com/gambitlabs/gambit/internal/game"
)

// ValidateSelection checks a single submitted value against a
// selection: type and bounds, live choice-set membership (element-wise
// for multi-select), then the custom validator. Returned messages are
// protocol errors; the caller re-prompts without any state change.
func (x *Executor) ValidateSelection(ctx *Context, sel Selection, value any) []string {
	var errs []string
	m := sel.meta()

	switch s := sel.(type) {
	case *Choice:
		if s.Repeat != nil {
			picks, ok := value.([]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("selection %q: expected accumulated picks, got %T", m.Name, value))
				break
			}
			// A source-backed set shifts as picks apply their hooks, so
			// those picks are only checkable against the live set at
			// submission time by the step protocol. A static option
			// list is stable; recheck every element here.
			if s.Source == nil {
				choices, err := x.Choices(ctx, s)
				if err != nil {
					return []string{err.Error()}
				}
				for i, pick := range picks {
					if !containsValue(choices, pick) {
						errs = append(errs, fmt.Sprintf("selection %q: pick %d is not a current choice", m.Name, i+1))
					}
				}
			}
			if s.Repeat.UntilValue != nil {
				for i, pick := range picks {
					if valueEq(pick, s.Repeat.UntilValue) && i < len(picks)-1 {
						errs = append(errs, fmt.Sprintf("selection %q: picks continue past the terminator", m.Name))
						break
					}
				}
			}
			break
		}
		choices, err := x.Choices(ctx, s)
		if err != nil {
			return []string{err.Error()}
		}
		if !containsValue(choices, value) {
			errs = append(errs, fmt.Sprintf("selection %q: value is not a current choice", m.Name))
		}

	case *PiecePick:
		p, err := x.resolvePiece(value)
		if err != nil {
			return []string{fmt.Sprintf("selection %q: %v", m.Name, err)}
		}
		choices, err := x.Choices(ctx, s)
		if err != nil {
			return []string{err.Error()}
		}
		if !containsValue(choices, p) {
			errs = append(errs, fmt.Sprintf("selection %q: %s is not a current choice", m.Name, p.ID()))
		}

	case *PieceSet:
		ps, err := x.resolvePieces(value)
		if err != nil {
			return []string{fmt.Sprintf("selection %q: %v", m.Name, err)}
		}
		if len(ps) < s.Min {
			errs = append(errs, fmt.Sprintf("selection %q: need at least %d pieces, got %d", m.Name, s.Min, len(ps)))
		}
		if s.Max > 0 && len(ps) > s.Max {
			errs = append(errs, fmt.Sprintf("selection %q: at most %d pieces allowed, got %d", m.Name, s.Max, len(ps)))
		}
		choices, err := x.Choices(ctx, s)
		if err != nil {
			return []string{err.Error()}
		}
		seen := make(map[*game.Piece]bool, len(ps))
		for _, p := range ps {
			if seen[p] {
				errs = append(errs, fmt.Sprintf("selection %q: %s picked twice", m.Name, p.ID()))
				continue
			}
			seen[p] = true
			if !containsValue(choices, p) {
				errs = append(errs, fmt.Sprintf("selection %q: %s is not a current choice", m.Name, p.ID()))
			}
		}

	case *Text:
		str, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("selection %q: expected text, got %T", m.Name, value)}
		}
		n := utf8.RuneCountInString(str)
		if n < s.MinLen {
			errs = append(errs, fmt.Sprintf("selection %q: need at least %d characters", m.Name, s.MinLen))
		}
		if s.MaxLen > 0 && n > s.MaxLen {
			errs = append(errs, fmt.Sprintf("selection %q: at most %d characters allowed", m.Name, s.MaxLen))
		}
		if s.Pattern != nil && !s.Pattern.MatchString(str) {
			errs = append(errs, fmt.Sprintf("selection %q: value does not match %s", m.Name, s.Pattern))
		}

	case *Number:
		n, ok := numeric(value)
		if !ok {
			return []string{fmt.Sprintf("selection %q: expected a number, got %T", m.Name, value)}
		}
		if s.Min != nil && n < *s.Min {
			errs = append(errs, fmt.Sprintf("selection %q: minimum is %v", m.Name, *s.Min))
		}
		if s.Max != nil && n > *s.Max {
			errs = append(errs, fmt.Sprintf("selection %q: maximum is %v", m.Name, *s.Max))
		}
		if s.IntegerOnly && n != float64(int64(n)) {
			errs = append(errs, fmt.Sprintf("selection %q: must be an integer", m.Name))
		}

	default:
		return []string{fmt.Sprintf("selection %q: unknown selection type %T", m.Name, sel)}
	}

	if m.Validate != nil {
		if err := m.Validate(ctx, value); err != nil {
			errs = append(errs, fmt.Sprintf("selection %q: %v", m.Name, err))
		}
	}
	return errs
}
