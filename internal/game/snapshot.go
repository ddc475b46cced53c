package game

import "fmt"

// PieceSnapshot is the serializable form of one piece and its subtree.
type PieceSnapshot struct {
	ID       string           `json:"id"`
	Kind     string           `json:"kind"`
	Owner    int              `json:"owner"`
	Hidden   bool             `json:"hidden,omitempty"`
	Attrs    map[string]any   `json:"attrs,omitempty"`
	Children []*PieceSnapshot `json:"children,omitempty"`
}

// BoardSnapshot is the serializable form of a full board, including
// the per-kind ID counters so restored boards keep assigning fresh
// IDs without collisions.
type BoardSnapshot struct {
	Counters map[string]int `json:"counters,omitempty"`
	Root     *PieceSnapshot `json:"root"`
}

// Snapshot serializes the board. Unlike View, nothing is masked; the
// snapshot is the authoritative state and must not be sent to
// participants.
func (b *Board) Snapshot() *BoardSnapshot {
	snap := &BoardSnapshot{Root: snapPiece(b.root)}
	if len(b.counters) > 0 {
		snap.Counters = make(map[string]int, len(b.counters))
		for k, v := range b.counters {
			snap.Counters[k] = v
		}
	}
	return snap
}

func snapPiece(p *Piece) *PieceSnapshot {
	s := &PieceSnapshot{
		ID:     p.id,
		Kind:   p.kind,
		Owner:  p.owner,
		Hidden: p.hidden,
	}
	if len(p.attrs) > 0 {
		s.Attrs = make(map[string]any, len(p.attrs))
		for k, v := range p.attrs {
			s.Attrs[k] = v
		}
	}
	for _, c := range p.children {
		s.Children = append(s.Children, snapPiece(c))
	}
	return s
}

// RestoreBoard rebuilds a board from a snapshot. Duplicate or missing
// IDs are errors.
func RestoreBoard(snap *BoardSnapshot) (*Board, error) {
	if snap == nil || snap.Root == nil {
		return nil, fmt.Errorf("board snapshot has no root")
	}
	b := &Board{
		byID:     make(map[string]*Piece),
		counters: make(map[string]int, len(snap.Counters)),
	}
	for k, v := range snap.Counters {
		b.counters[k] = v
	}
	root, err := b.restorePiece(snap.Root, nil)
	if err != nil {
		return nil, err
	}
	b.root = root
	return b, nil
}

func (b *Board) restorePiece(s *PieceSnapshot, parent *Piece) (*Piece, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("piece snapshot missing id")
	}
	if b.byID[s.ID] != nil {
		return nil, fmt.Errorf("duplicate piece id %q in snapshot", s.ID)
	}
	p := &Piece{
		id:     s.ID,
		kind:   s.Kind,
		owner:  s.Owner,
		hidden: s.Hidden,
		parent: parent,
	}
	if len(s.Attrs) > 0 {
		p.attrs = make(map[string]any, len(s.Attrs))
		for k, v := range s.Attrs {
			p.attrs[k] = v
		}
	}
	b.byID[p.id] = p
	for _, cs := range s.Children {
		c, err := b.restorePiece(cs, p)
		if err != nil {
			return nil, err
		}
		p.children = append(p.children, c)
	}
	return p, nil
}
