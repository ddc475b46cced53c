package action

import "fmt"

// SelectionTrace is the per-selection diagnostic produced by
// TraceAvailability: how many choices were live, whether a dependency
// filter applied, and whether this slot blocked the action.
type SelectionTrace struct {
	Selection   string `json:"selection"`
	Kind        string `json:"kind"`
	Optional    bool   `json:"optional,omitempty"`
	ChoiceCount int    `json:"choice_count"`
	Enumerable  bool   `json:"enumerable"`
	DependsOn   string `json:"depends_on,omitempty"`
	Searched    bool   `json:"searched,omitempty"`
	Blocked     bool   `json:"blocked,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AvailabilityTrace answers "why is this action unavailable" without
// mutating anything.
type AvailabilityTrace struct {
	Action          string           `json:"action"`
	Available       bool             `json:"available"`
	PredicateFailed bool             `json:"predicate_failed,omitempty"`
	Selections      []SelectionTrace `json:"selections,omitempty"`
}

// TraceAvailability runs the availability walk and records a diagnostic
// per selection examined. The walk stops at the first blocker, exactly
// like IsAvailable; selections after the blocker are not reported.
func (x *Executor) TraceAvailability(player int, name string, vars map[string]any) (*AvailabilityTrace, error) {
	def := x.defs[name]
	if def == nil {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	trace := &AvailabilityTrace{Action: name}
	ctx := x.context(player, nil, vars)

	if def.When != nil && !def.When(ctx) {
		trace.PredicateFailed = true
		return trace, nil
	}

	trace.Available = true
	for idx, sel := range def.Selections {
		st := x.traceSelection(ctx, def.Selections, idx, sel)
		trace.Selections = append(trace.Selections, st)
		if st.Blocked {
			trace.Available = false
			break
		}
	}
	return trace, nil
}

func (x *Executor) traceSelection(ctx *Context, sels []Selection, idx int, sel Selection) SelectionTrace {
	m := sel.meta()
	st := SelectionTrace{
		Selection:   m.Name,
		Kind:        kindName(sel),
		Optional:    m.Optional,
		ChoiceCount: -1,
	}

	switch s := sel.(type) {
	case *Text, *Number:
		return st

	case *PiecePick, *PieceSet:
		choices, err := x.Choices(ctx.clone(), sel)
		if err != nil {
			st.Blocked = true
			st.Reason = err.Error()
			return st
		}
		st.Enumerable = true
		st.ChoiceCount = len(choices)
		if m.Optional {
			return st
		}
		if len(choices) == 0 {
			st.Blocked = true
			st.Reason = "no pieces match the current filters"
		} else if set, ok := sel.(*PieceSet); ok && len(choices) < set.Min {
			st.Blocked = true
			st.Reason = fmt.Sprintf("only %d pieces match but %d are required", len(choices), set.Min)
		}
		return st

	case *Choice:
		st.DependsOn = s.DependsOn
		opts := x.choiceOptions(ctx.clone(), s)
		st.Enumerable = true
		st.ChoiceCount = len(opts)
		if m.Optional {
			return st
		}
		if len(opts) == 0 {
			st.Blocked = true
			st.Reason = "no values match the current filters"
			return st
		}
		if s.Source == nil && dependedOnLater(sels, idx, m.Name) {
			st.Searched = true
			// Branch on a private copy so tracing never leaks bindings.
			if !x.satisfiable(ctx.clone(), sels, idx) {
				st.Blocked = true
				st.Reason = "no candidate value satisfies the dependent selections that follow"
			}
		}
		return st

	default:
		st.Blocked = true
		st.Reason = fmt.Sprintf("unknown selection type %T", sel)
		return st
	}
}
