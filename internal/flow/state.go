package flow

// PlayerAwaiting describes one seat's pending decision inside a
// concurrent decision window.
type PlayerAwaiting struct {
	Player           int      `json:"player"`
	Done             bool     `json:"done"`
	AvailableActions []string `json:"available_actions,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`
}

// State is the observable snapshot handed to session and UI layers
// after every Start/Resume. It is a value copy; mutating it does not
// touch the engine.
type State struct {
	Position *Position `json:"position"`

	Complete      bool `json:"complete"`
	AwaitingInput bool `json:"awaiting_input"`

	// Player is the acting seat at a decision point, -1 otherwise.
	Player           int      `json:"player"`
	AvailableActions []string `json:"available_actions,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`

	// Awaiting lists every tracked seat of an open decision window.
	// Empty outside windows.
	Awaiting []PlayerAwaiting `json:"awaiting,omitempty"`

	Phase   string `json:"phase,omitempty"`
	Moves   int    `json:"moves"`
	Winners []int  `json:"winners,omitempty"`
}

// State builds the current observable snapshot.
func (e *Engine) State() *State {
	st := &State{
		Position:      e.GetPosition(),
		Complete:      e.complete,
		AwaitingInput: e.awaiting,
		Player:        e.ActingPlayer(),
		Phase:         e.phase,
		Moves:         e.moves,
	}
	if e.awaiting {
		st.AvailableActions = append([]string(nil), e.available...)
		st.Prompt = e.prompt
		if f := e.top(); f != nil {
			if n, ok := f.node.(*Simultaneous); ok {
				st.Awaiting = e.windowAwaiting(f, n)
			}
		}
	}
	if e.complete {
		st.Winners = e.Winners()
	}
	return st
}

func (e *Engine) windowAwaiting(f *frame, n *Simultaneous) []PlayerAwaiting {
	out := make([]PlayerAwaiting, 0, len(f.players))
	for _, seat := range f.players {
		pa := PlayerAwaiting{Player: seat, Done: f.done[seat]}
		if !pa.Done {
			pa.AvailableActions = e.performer.Available(seat, n.Actions, e.vars)
			pa.Prompt = n.Prompt
		}
		out = append(out, pa)
	}
	return out
}
