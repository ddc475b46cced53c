package flow

// frame is one entry on the interpreter's explicit stack. Every field
// the serializer needs (childIndex, iter, done) is derivable into the
// position snapshot; everything else (order, items) is recomputed
// deterministically when a position is restored.
type frame struct {
	node Node

	// childIndex is the definition index of the child currently pushed
	// above this frame, or -1 when none is.
	childIndex int

	// completed marks the frame for popping on the next trampoline turn.
	completed bool

	// iter counts loop iterations, list positions, or moves made at a
	// decision point, depending on the node type.
	iter int

	// evaluated memoizes branch selection for If/Switch so re-entering
	// the trampoline never re-runs the condition.
	evaluated bool

	// order is the resolved seat list for EachPlayer, computed once on
	// first entry.
	order []int

	// items is the resolved collection for ForEach, computed once on
	// first entry.
	items []any

	// players and done track a concurrent decision window: the seats in
	// the window and which of them have finished.
	players []int
	done    map[int]bool

	// prevPhase and entered back a Phase frame: the name to restore on
	// exit and whether the enter hook already fired.
	prevPhase string
	entered   bool
}

func newFrame(n Node) *frame {
	return &frame{node: n, childIndex: -1}
}

// push places a child frame above f, recording which definition child
// it corresponds to.
func (e *Engine) push(parent *frame, childIdx int, child Node) {
	parent.childIndex = childIdx
	e.stack = append(e.stack, newFrame(child))
}

func (e *Engine) top() *frame {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

func (e *Engine) pop() {
	e.stack = e.stack[:len(e.stack)-1]
}
