package action

// Available filters the requested action names down to those currently
// available to the player, preserving request order. A nil names slice
// means every registered definition.
func (x *Executor) Available(player int, names []string, vars map[string]any) []string {
	if names == nil {
		names = x.order
	}
	var out []string
	for _, name := range names {
		if x.IsAvailable(player, name, vars) {
			out = append(out, name)
		}
	}
	return out
}

// IsAvailable decides whether an action could legally be invoked right
// now, independent of which argument values would ultimately be chosen.
func (x *Executor) IsAvailable(player int, name string, vars map[string]any) bool {
	def := x.defs[name]
	if def == nil {
		return false
	}
	ctx := x.context(player, nil, vars)
	if def.When != nil && !def.When(ctx) {
		return false
	}
	return x.satisfiable(ctx, def.Selections, 0)
}

// satisfiable walks selections from idx, short-circuiting on the first
// blocker.
//
// Optional, text, and number selections never block. Piece selections
// and dynamically-sourced choices are only non-emptiness-checked at the
// current partial args - their own filters are trusted to handle "no
// prior value yet". Statically-sourced choices that a later selection
// depends on are branched over, first-fit: bind each candidate in turn
// and recurse over the remaining selections.
func (x *Executor) satisfiable(ctx *Context, sels []Selection, idx int) bool {
	if idx >= len(sels) {
		return true
	}
	sel := sels[idx]
	m := sel.meta()

	if m.Optional {
		return x.satisfiable(ctx, sels, idx+1)
	}

	switch s := sel.(type) {
	case *Text, *Number:
		return x.satisfiable(ctx, sels, idx+1)

	case *PiecePick, *PieceSet:
		choices, err := x.Choices(ctx, sel)
		if err != nil {
			x.logger.Debug("availability: entity filter failed", "selection", m.Name, "error", err)
			return false
		}
		if len(choices) == 0 {
			return false
		}
		if set, ok := sel.(*PieceSet); ok && len(choices) < set.Min {
			return false
		}
		return x.satisfiable(ctx, sels, idx+1)

	case *Choice:
		opts := x.choiceOptions(ctx, s)
		if len(opts) == 0 {
			return false
		}
		if s.Source != nil {
			// Dynamic source: non-emptiness is all we check.
			return x.satisfiable(ctx, sels, idx+1)
		}
		if !dependedOnLater(sels, idx, m.Name) {
			return x.satisfiable(ctx, sels, idx+1)
		}
		// Static source with a dependent successor: branch over every
		// candidate, first fit wins.
		prev, had := ctx.Args[m.Name]
		for _, opt := range opts {
			ctx.Args[m.Name] = opt
			if x.satisfiable(ctx, sels, idx+1) {
				restoreArg(ctx, m.Name, prev, had)
				return true
			}
		}
		restoreArg(ctx, m.Name, prev, had)
		return false

	default:
		return false
	}
}

func restoreArg(ctx *Context, name string, prev any, had bool) {
	if had {
		ctx.Args[name] = prev
	} else {
		delete(ctx.Args, name)
	}
}

// dependedOnLater reports whether any selection after idx declares a
// dependency filter keyed to the given selection name.
func dependedOnLater(sels []Selection, idx int, name string) bool {
	for _, sel := range sels[idx+1:] {
		if c, ok := sel.(*Choice); ok && c.DependsOn == name {
			return true
		}
	}
	return false
}
