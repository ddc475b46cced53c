package action

import "fmt"

// RepeatPhase is the explicit lifecycle of a repeating selection.
// Illegal combinations ("committed but still accumulating") are
// unrepresentable: the phase advances monotonically and the pending
// state drops the repeat tracker on commit.
type RepeatPhase int

const (
	RepeatNotStarted RepeatPhase = iota
	RepeatAccumulating
	RepeatCommitted
)

// String implements fmt.Stringer.
func (p RepeatPhase) String() string {
	switch p {
	case RepeatNotStarted:
		return "not-started"
	case RepeatAccumulating:
		return "accumulating"
	case RepeatCommitted:
		return "committed"
	default:
		return fmt.Sprintf("RepeatPhase(%d)", int(p))
	}
}

// RepeatState tracks a repeat-until selection that is mid-flight.
type RepeatState struct {
	Selection   string      `json:"selection"`
	Phase       RepeatPhase `json:"phase"`
	Accumulated []any       `json:"accumulated"`
	Iterations  int         `json:"iterations"`
}

// PendingState is the wire protocol for collecting an action's
// selections one round-trip at a time. It is owned by the session
// layer; the executor only interprets it.
//
// INVARIANTS:
//   - Index only advances forward or stays put, never backward.
//   - Repeat is non-nil only while a repeating selection is mid-flight;
//     the accumulator is committed into Args before Index advances.
type PendingState struct {
	Action string         `json:"action"`
	Player int            `json:"player"`
	Args   map[string]any `json:"args"`
	Index  int            `json:"index"`
	Repeat *RepeatState   `json:"repeat,omitempty"`

	// committed marks selection indices that received at least one
	// committed value, so a cancellation hook fires at most once.
	committed map[int]bool
}

// StepResult reports one pending-protocol step. Protocol violations
// come back as a failed Result; the pending state is untouched on
// failure.
type StepResult struct {
	Result

	// Advanced is true when the current selection was fully consumed
	// and the index moved forward.
	Advanced bool

	// NextChoices is the refreshed choice set for a still-accumulating
	// repeat selection.
	NextChoices []any
}

// NewPending starts the step-by-step protocol for an action.
func (x *Executor) NewPending(name string, player int) (*PendingState, error) {
	if x.defs[name] == nil {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	return &PendingState{
		Action:    name,
		Player:    player,
		Args:      make(map[string]any),
		committed: make(map[int]bool),
	}, nil
}

// PendingComplete reports whether every selection has been consumed.
func (x *Executor) PendingComplete(p *PendingState) bool {
	def := x.defs[p.Action]
	if def == nil {
		return false
	}
	return p.Index >= len(def.Selections)
}

// StepPending validates and stores one submitted selection value.
// Submissions must name the current selection; anything else is a
// protocol error. A nil value skips an optional selection.
func (x *Executor) StepPending(p *PendingState, selName string, value any, vars map[string]any) *StepResult {
	def := x.defs[p.Action]
	if def == nil {
		return &StepResult{Result: Fail(fmt.Sprintf("unknown action %q", p.Action))}
	}
	if p.Index >= len(def.Selections) {
		return &StepResult{Result: Fail(fmt.Sprintf("action %q has no selections left to fill", p.Action))}
	}
	cur := def.Selections[p.Index]
	m := cur.meta()
	if selName != m.Name {
		return &StepResult{Result: Fail(fmt.Sprintf(
			"selection %q submitted out of order: expected %q", selName, m.Name))}
	}
	if p.committed == nil {
		p.committed = make(map[int]bool)
	}

	if c, ok := cur.(*Choice); ok && c.Repeat != nil {
		return x.stepRepeating(p, def, c, value, vars)
	}

	ctx := x.context(p.Player, p.Args, vars)

	if value == nil {
		if !m.Optional {
			return &StepResult{Result: Fail(fmt.Sprintf("selection %q is required", m.Name))}
		}
		p.Index++
		return &StepResult{Result: Ok(), Advanced: true}
	}

	if errs := x.ValidateSelection(ctx, cur, value); len(errs) > 0 {
		return &StepResult{Result: Fail(errs...)}
	}
	p.Args[m.Name] = value
	p.committed[p.Index] = true
	p.Index++
	return &StepResult{Result: Ok(), Advanced: true}
}

// stepRepeating handles one pick of a repeat-until selection: validate
// against the current choice set, accumulate, run the per-pick hook,
// then check termination. On termination the accumulator is committed
// as the selection's final array value and the index advances; until
// then the refreshed choice set is returned for the next pick.
func (x *Executor) stepRepeating(p *PendingState, def *Definition, c *Choice, value any, vars map[string]any) *StepResult {
	ctx := x.context(p.Player, p.Args, vars)

	choices, err := x.Choices(ctx, c)
	if err != nil {
		return &StepResult{Result: Fail(err.Error())}
	}
	if !containsValue(choices, value) {
		return &StepResult{Result: Fail(fmt.Sprintf(
			"selection %q: value is not a current choice", c.Meta.Name))}
	}
	if c.Meta.Validate != nil {
		if err := c.Meta.Validate(ctx, value); err != nil {
			return &StepResult{Result: Fail(fmt.Sprintf("selection %q: %v", c.Meta.Name, err))}
		}
	}

	if c.Repeat.OnPick != nil {
		if err := x.runPickHook(ctx, c, value); err != nil {
			return &StepResult{Result: Fail(fmt.Sprintf(
				"pick hook for selection %q failed: %v", c.Meta.Name, err))}
		}
	}

	if p.Repeat == nil {
		p.Repeat = &RepeatState{Selection: c.Meta.Name, Phase: RepeatAccumulating}
	}
	p.Repeat.Accumulated = append(p.Repeat.Accumulated, value)
	p.Repeat.Iterations++
	p.committed[p.Index] = true

	if x.repeatDone(ctx, c, value, p.Repeat.Accumulated) {
		return x.commitRepeat(p)
	}

	// Not terminated by the predicate: refresh the choice set; an empty
	// next set also terminates.
	next, err := x.Choices(ctx, c)
	if err != nil {
		return &StepResult{Result: Fail(err.Error())}
	}
	if len(next) == 0 {
		return x.commitRepeat(p)
	}
	return &StepResult{Result: Ok(), NextChoices: next}
}

func (x *Executor) commitRepeat(p *PendingState) *StepResult {
	p.Args[p.Repeat.Selection] = p.Repeat.Accumulated
	p.Repeat.Phase = RepeatCommitted
	p.Repeat = nil
	p.Index++
	return &StepResult{Result: Ok(), Advanced: true}
}

func (x *Executor) repeatDone(ctx *Context, c *Choice, picked any, acc []any) bool {
	if c.Repeat.Until != nil {
		return c.Repeat.Until(ctx, picked, acc)
	}
	if c.Repeat.UntilValue != nil {
		return valueEq(picked, c.Repeat.UntilValue)
	}
	return false
}

// runPickHook guards the per-pick side effect the same way effects are
// guarded.
func (x *Executor) runPickHook(ctx *Context, c *Choice, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return c.Repeat.OnPick(ctx, value)
}

// ExecutePending resolves and executes a fully-collected pending
// action.
func (x *Executor) ExecutePending(p *PendingState, vars map[string]any) Result {
	if !x.PendingComplete(p) {
		return Fail(fmt.Sprintf("action %q still has selections to fill", p.Action))
	}
	return x.Perform(p.Action, p.Player, p.Args, vars)
}

// CancelPending discards a pending action, firing each repeat
// selection's cancellation hook at most once and only if that selection
// received at least one committed value.
func (x *Executor) CancelPending(p *PendingState, vars map[string]any) {
	def := x.defs[p.Action]
	if def == nil {
		return
	}
	ctx := x.context(p.Player, p.Args, vars)
	for idx, sel := range def.Selections {
		if !p.committed[idx] {
			continue
		}
		if c, ok := sel.(*Choice); ok && c.Repeat != nil && c.Repeat.OnCancel != nil {
			c.Repeat.OnCancel(ctx)
		}
	}
	p.committed = make(map[int]bool)
	p.Repeat = nil
}
