package harness

import (
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/session"
)

// TraceEvent records one scripted move and its outcome.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Player  int            `json:"player"`
	Action  string         `json:"action"`
	Args    map[string]any `json:"args,omitempty"`
	Success bool           `json:"success"`
	Errors  []string       `json:"errors,omitempty"`

	// Phase is the active phase after the move.
	Phase string `json:"phase,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists every scripted move in order, accepted or not.
	Trace []TraceEvent `json:"trace"`

	// Errors lists every expectation or assertion failure.
	Errors []string `json:"errors,omitempty"`

	// Final is the state after the last move.
	Final *flow.State `json:"final"`

	// game stays live for round-trip assertions.
	game *session.Game
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure and flips the result to failing.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// addMove appends one move outcome to the trace.
func (r *Result) addMove(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
