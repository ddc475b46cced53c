package game

import "fmt"

// Roster is the ordered participant collection with a current pointer.
//
// Seats are dense indices 0..Count()-1 in join order. The flow engine
// reads and advances the current pointer; nothing here blocks or does
// I/O.
type Roster struct {
	names   []string
	current int
}

// NewRoster creates a roster with the given participant names.
// The current pointer starts at seat 0.
func NewRoster(names ...string) *Roster {
	return &Roster{names: names}
}

// Count returns the number of participants.
func (r *Roster) Count() int { return len(r.names) }

// Name returns the display name for a seat, or "" if out of range.
func (r *Roster) Name(seat int) string {
	if seat < 0 || seat >= len(r.names) {
		return ""
	}
	return r.names[seat]
}

// Names returns a copy of all participant names in seat order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Seats returns all seat indices in order.
func (r *Roster) Seats() []int {
	out := make([]int, len(r.names))
	for i := range out {
		out[i] = i
	}
	return out
}

// Current returns the seat the current pointer rests on.
func (r *Roster) Current() int { return r.current }

// SetCurrent moves the current pointer to the given seat.
func (r *Roster) SetCurrent(seat int) error {
	if seat < 0 || seat >= len(r.names) {
		return fmt.Errorf("seat %d out of range [0,%d)", seat, len(r.names))
	}
	r.current = seat
	return nil
}

// Advance moves the current pointer to the next seat, wrapping, and
// returns it.
func (r *Roster) Advance() int {
	r.current = (r.current + 1) % len(r.names)
	return r.current
}
