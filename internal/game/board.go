package game

import (
	"fmt"
	"sort"
)

// Board owns the entity tree for one game instance.
//
// All structural mutation goes through Create/Move/Remove so the ID
// index stays consistent with the tree. Lookup and traversal are
// deterministic: document order, insertion-ordered children, counter-
// assigned IDs.
type Board struct {
	root     *Piece
	byID     map[string]*Piece
	counters map[string]int
}

// NewBoard creates an empty board with a root piece of kind "board".
func NewBoard() *Board {
	root := &Piece{id: "board", kind: "board", owner: UnownedSeat}
	return &Board{
		root:     root,
		byID:     map[string]*Piece{root.id: root},
		counters: make(map[string]int),
	}
}

// Root returns the board root piece.
func (b *Board) Root() *Piece { return b.root }

// Create adds a new piece under parent (board root when parent is nil).
// The ID is assigned from a per-kind counter: "card-1", "card-2", ...
func (b *Board) Create(kind string, parent *Piece, attrs map[string]any) *Piece {
	if parent == nil {
		parent = b.root
	}
	b.counters[kind]++
	p := &Piece{
		id:     fmt.Sprintf("%s-%d", kind, b.counters[kind]),
		kind:   kind,
		owner:  UnownedSeat,
		parent: parent,
	}
	if len(attrs) > 0 {
		p.attrs = make(map[string]any, len(attrs))
		// Copy via sorted keys so attribute insertion order is stable.
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.attrs[k] = attrs[k]
		}
	}
	parent.children = append(parent.children, p)
	b.byID[p.id] = p
	return p
}

// Move reparents a piece. The piece is appended to the new parent's
// children. Moving the root, or moving a piece into its own subtree,
// is an error.
func (b *Board) Move(p, newParent *Piece) error {
	if p == b.root {
		return fmt.Errorf("cannot move the board root")
	}
	if newParent == nil {
		newParent = b.root
	}
	if p.isAncestorOf(newParent) {
		return fmt.Errorf("cannot move %s into its own subtree", p.id)
	}
	detach(p)
	p.parent = newParent
	newParent.children = append(newParent.children, p)
	return nil
}

// Remove deletes a piece and its entire subtree from the board.
func (b *Board) Remove(p *Piece) error {
	if p == b.root {
		return fmt.Errorf("cannot remove the board root")
	}
	detach(p)
	p.parent = nil
	b.forget(p)
	return nil
}

func (b *Board) forget(p *Piece) {
	delete(b.byID, p.id)
	for _, c := range p.children {
		b.forget(c)
	}
}

// Find returns the piece with the given ID, or nil.
func (b *Board) Find(id string) *Piece { return b.byID[id] }

// Query returns pieces of the given kind (any kind when empty) matching
// the optional predicate, in document order.
func (b *Board) Query(kind string, where func(*Piece) bool) []*Piece {
	var out []*Piece
	b.walk(b.root, func(p *Piece) {
		if p == b.root {
			return
		}
		if kind != "" && p.kind != kind {
			return
		}
		if where != nil && !where(p) {
			return
		}
		out = append(out, p)
	})
	return out
}

// All returns every piece except the root, in document order.
func (b *Board) All() []*Piece { return b.Query("", nil) }

func (b *Board) walk(p *Piece, visit func(*Piece)) {
	visit(p)
	for _, c := range p.children {
		b.walk(c, visit)
	}
}

// OmniscientSeat sees every piece, including hidden ones.
const OmniscientSeat = -1

// View serializes the tree as seen by one seat. Hidden pieces owned by
// someone else have their attributes masked; their kind and position
// remain visible (a face-down card is still a card).
func (b *Board) View(seat int) map[string]any {
	return b.viewPiece(b.root, seat)
}

func (b *Board) viewPiece(p *Piece, seat int) map[string]any {
	masked := p.hidden && seat != OmniscientSeat && p.owner != seat
	node := map[string]any{
		"id":   p.id,
		"kind": p.kind,
	}
	if p.owner != UnownedSeat {
		node["owner"] = p.owner
	}
	if masked {
		node["masked"] = true
	} else if len(p.attrs) > 0 {
		attrs := make(map[string]any, len(p.attrs))
		for k, v := range p.attrs {
			attrs[k] = v
		}
		node["attrs"] = attrs
	}
	if len(p.children) > 0 {
		children := make([]any, len(p.children))
		for i, c := range p.children {
			children[i] = b.viewPiece(c, seat)
		}
		node["children"] = children
	}
	return node
}

func detach(p *Piece) {
	parent := p.parent
	if parent == nil {
		return
	}
	for i, c := range parent.children {
		if c == p {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}
