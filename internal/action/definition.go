package action

// Definition is a named participant-facing operation: a prompt, an
// ordered list of selections, an availability predicate, an effect, and
// an undoable flag. Definitions are pure data, immutable once built,
// and shared by reference across games using the same rule set.
type Definition struct {
	// Name is the wire identifier, e.g. "play".
	Name string

	// Prompt is shown when the action is offered.
	Prompt string

	// Selections are collected in order. Order matters: dependency
	// filters reference prior selections by name.
	Selections []Selection

	// When gates availability before any selection is examined. Nil
	// means always.
	When func(ctx *Context) bool

	// Effect applies the action. It runs inside a recover guard; a
	// returned error or panic becomes a structured failure and already-
	// applied side effects stay applied.
	Effect func(ctx *Context) error

	// Undoable marks the action as safe for caller-level undo stacks.
	Undoable bool
}

// Selection returns the named selection, or nil.
func (d *Definition) Selection(name string) Selection {
	for _, sel := range d.Selections {
		if sel.meta().Name == name {
			return sel
		}
	}
	return nil
}

// Result is the outcome of performing or validating an action. Plain
// data, never an error value across the public boundary.
type Result struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// Ok returns a successful Result.
func Ok() Result { return Result{Success: true} }

// Fail returns a failed Result carrying the given messages.
func Fail(errs ...string) Result { return Result{Success: false, Errors: errs} }
