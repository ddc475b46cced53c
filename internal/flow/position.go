package flow

import (
	"fmt"
	"sort"
)

// Position is the serializable continuation of a suspended (or
// finished) flow: enough to rebuild the frame stack against the same
// definition and re-suspend at the identical decision.
//
// Path records, per stack depth, which definition child the next frame
// corresponds to. Counters records loop iterations, list positions,
// and moves made. Completed records, per decision-window depth, which
// seats already acted. Resolved seat lists and item collections are
// NOT serialized; they are re-derived deterministically on restore.
type Position struct {
	Path      []int          `json:"path,omitempty"`
	Counters  map[int]int    `json:"counters,omitempty"`
	Completed map[int][]int  `json:"completed,omitempty"`
	Player    int            `json:"player"`
	Vars      map[string]any `json:"vars,omitempty"`
	Moves     int            `json:"moves"`
	Complete  bool           `json:"complete,omitempty"`
}

// GetPosition snapshots the current continuation. Valid while
// suspended or complete; the snapshot is independent of the engine.
func (e *Engine) GetPosition() *Position {
	pos := &Position{
		Player:   e.acting,
		Moves:    e.moves,
		Complete: e.complete,
		Vars:     make(map[string]any, len(e.vars)),
	}
	for k, v := range e.vars {
		pos.Vars[k] = v
	}
	if e.complete {
		return pos
	}

	for depth, f := range e.stack {
		if depth < len(e.stack)-1 {
			pos.Path = append(pos.Path, f.childIndex)
		}
		if f.iter > 0 {
			if pos.Counters == nil {
				pos.Counters = make(map[int]int)
			}
			pos.Counters[depth] = f.iter
		}
		if len(f.done) > 0 {
			if pos.Completed == nil {
				pos.Completed = make(map[int][]int)
			}
			var seats []int
			for s, d := range f.done {
				if d {
					seats = append(seats, s)
				}
			}
			sort.Ints(seats)
			pos.Completed[depth] = seats
		}
	}
	return pos
}

// RestorePosition rebuilds the frame stack from a snapshot and runs
// until the engine re-suspends at the recorded decision. The engine
// must be fresh (Start not called); board and roster must hold the
// state that accompanied the snapshot.
//
// A path that does not fit the definition is ErrCodeBadPosition. Depth
// and child indices are checked; the restore does not otherwise verify
// that the snapshot came from this exact definition.
func (e *Engine) RestorePosition(pos *Position) error {
	if len(e.stack) != 0 {
		return newBadPositionError("engine has already started", 0)
	}

	e.vars = make(map[string]any, len(pos.Vars))
	for k, v := range pos.Vars {
		e.vars[k] = v
	}
	e.acting = pos.Player
	e.moves = pos.Moves

	if pos.Complete {
		e.complete = true
		return nil
	}

	cur := e.def.Root
	e.stack = append(e.stack, newFrame(cur))
	for depth, idx := range pos.Path {
		child, ok := cur.childAt(idx)
		if !ok {
			return newBadPositionError(fmt.Sprintf(
				"path index %d is out of range for node %T", idx, cur), depth)
		}
		e.top().childIndex = idx
		e.stack = append(e.stack, newFrame(child))
		cur = child
	}

	for depth, f := range e.stack {
		if n := pos.Counters[depth]; n > 0 {
			f.iter = n
		}
		e.rehydrate(depth, f, pos)
	}

	if e.acting >= 0 && e.acting < e.roster.Count() {
		e.roster.SetCurrent(e.acting)
	}
	return e.run()
}

// rehydrate re-derives the non-serialized frame data for one restored
// frame: memoized branches, phase names, window membership. Seat lists
// and item collections are left for the frame's next visit to the top
// of the stack, where they recompute deterministically from the
// restored state.
func (e *Engine) rehydrate(depth int, f *frame, pos *Position) {
	switch n := f.node.(type) {
	case *If, *Switch:
		if f.childIndex != -1 {
			f.evaluated = true
		}

	case *Phase:
		f.prevPhase = e.phase
		f.entered = true
		e.phase = n.Name

	case *ActionStep:
		f.entered = true

	case *Simultaneous:
		f.done = make(map[int]bool)
		for _, s := range pos.Completed[depth] {
			f.done[s] = true
		}
	}
}
