package flow

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected during flow execution.
//
// Runtime errors include:
//   - Iteration ceiling: the interpreter exceeded its global step limit
//   - Stuck decision: a decision point demands moves nobody can make
//   - Bad position: a serialized position does not fit the definition
//   - Bad move: a resume call named an action or seat that was not offered
//
// RuntimeError includes structured fields for diagnostics. Iteration
// ceiling and stuck decision errors indicate a broken flow definition,
// never a transient condition; callers must not retry them.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Phase is the phase name active when the error surfaced, if any.
	Phase string

	// Player is the acting seat involved, or -1 when not applicable.
	Player int

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeIterationCeiling indicates the interpreter's global step
	// limit was exceeded (a runaway loop in the definition).
	ErrCodeIterationCeiling RuntimeErrorCode = "ITERATION_CEILING"

	// ErrCodeStuckDecision indicates a decision point still owes moves
	// but offers no available action.
	ErrCodeStuckDecision RuntimeErrorCode = "STUCK_DECISION"

	// ErrCodeBadPosition indicates a serialized position does not match
	// the flow definition it was restored against.
	ErrCodeBadPosition RuntimeErrorCode = "BAD_POSITION"

	// ErrCodeBadMove indicates a resume call that does not correspond to
	// anything the engine offered.
	ErrCodeBadMove RuntimeErrorCode = "BAD_MOVE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s: %s (phase=%s)", e.Code, e.Message, e.Phase)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsIterationCeiling returns true if the error is an iteration ceiling
// error. Uses errors.As to handle wrapped errors.
func IsIterationCeiling(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeIterationCeiling
	}
	return false
}

// IsStuckDecision returns true if the error is a stuck decision error.
// Uses errors.As to handle wrapped errors.
func IsStuckDecision(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStuckDecision
	}
	return false
}

// IsBadPosition returns true if the error is a bad position error.
// Uses errors.As to handle wrapped errors.
func IsBadPosition(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBadPosition
	}
	return false
}

func newCeilingError(phase string, steps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeIterationCeiling,
		Message: fmt.Sprintf("flow exceeded %d interpreter steps without suspending", steps),
		Phase:   phase,
		Player:  -1,
		Details: map[string]string{"steps": fmt.Sprintf("%d", steps)},
	}
}

func newStuckError(phase string, player, made, min int) *RuntimeError {
	return &RuntimeError{
		Code: ErrCodeStuckDecision,
		Message: fmt.Sprintf(
			"decision point requires %d moves but only %d were possible", min, made),
		Phase:  phase,
		Player: player,
		Details: map[string]string{
			"moves_made": fmt.Sprintf("%d", made),
			"min_moves":  fmt.Sprintf("%d", min),
		},
	}
}

func newBadPositionError(msg string, depth int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeBadPosition,
		Message: msg,
		Player:  -1,
		Details: map[string]string{"depth": fmt.Sprintf("%d", depth)},
	}
}

func newBadMoveError(msg string, player int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeBadMove,
		Message: msg,
		Player:  player,
	}
}
