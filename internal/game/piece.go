package game

import "fmt"

// UnownedSeat marks a piece with no owning participant.
const UnownedSeat = -1

// Piece is one node in the entity tree.
//
// Pieces are created and wired exclusively through Board methods so the
// board's ID index and the parent/child links never diverge. Attribute
// values should stay JSON-serializable; they flow into visibility views
// and harness assertions unmodified.
type Piece struct {
	id       string
	kind     string
	owner    int
	hidden   bool
	parent   *Piece
	children []*Piece
	attrs    map[string]any
}

// ID returns the board-unique identifier, e.g. "card-7".
func (p *Piece) ID() string { return p.id }

// Kind returns the piece type, e.g. "card".
func (p *Piece) Kind() string { return p.kind }

// Owner returns the owning seat index, or UnownedSeat.
func (p *Piece) Owner() int { return p.owner }

// SetOwner assigns the piece to a seat. UnownedSeat clears ownership.
func (p *Piece) SetOwner(seat int) { p.owner = seat }

// Hidden reports whether the piece is visible only to its owner.
func (p *Piece) Hidden() bool { return p.hidden }

// SetHidden marks the piece as visible only to its owner.
func (p *Piece) SetHidden(hidden bool) { p.hidden = hidden }

// Parent returns the containing piece, or nil for the board root.
func (p *Piece) Parent() *Piece { return p.parent }

// Children returns the direct children in insertion order.
// The returned slice is a copy; mutating it does not affect the tree.
func (p *Piece) Children() []*Piece {
	out := make([]*Piece, len(p.children))
	copy(out, p.children)
	return out
}

// Attr returns a named attribute value, or nil if unset.
func (p *Piece) Attr(name string) any {
	if p.attrs == nil {
		return nil
	}
	return p.attrs[name]
}

// SetAttr sets a named attribute value.
func (p *Piece) SetAttr(name string, value any) {
	if p.attrs == nil {
		p.attrs = make(map[string]any)
	}
	p.attrs[name] = value
}

// String implements fmt.Stringer for diagnostics.
func (p *Piece) String() string {
	return fmt.Sprintf("%s(owner=%d)", p.id, p.owner)
}

// isAncestorOf reports whether p is q or an ancestor of q.
func (p *Piece) isAncestorOf(q *Piece) bool {
	for cur := q; cur != nil; cur = cur.parent {
		if cur == p {
			return true
		}
	}
	return false
}
