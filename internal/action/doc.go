// Package action declares what a participant may do at a decision
// point, validates submitted choices, and executes effects.
//
// An ActionDefinition is data: a name, an ordered list of selections
// (typed argument slots), an availability predicate, and an effect
// callback. The Executor interprets that data against the live board:
// it resolves wire-level identifiers to pieces, computes current choice
// sets, validates values, and decides availability.
//
// AVAILABILITY SEARCH:
//
// Whether an action is available at all - before any argument has been
// chosen - is decided by walking its selections in order and stopping
// at the first blocker. Optional, text, and number selections never
// block. Entity selections and dynamically-sourced choices are checked
// only for non-emptiness at the current partial arguments. Statically-
// sourced choices that a LATER selection depends on get the full
// treatment: branch over every candidate, bind it, and recurse -
// first-fit, no exhaustive enumeration of independent slots. The
// asymmetry bounds worst-case cost for expensive dynamic generators
// while reasoning exactly about the "pick category, then pick item
// filtered by category" pattern.
//
// ERROR POLICY:
//
// Protocol failures (unknown action, value not in the live choice set,
// out-of-order pending submission) are Result values, never errors and
// never panics. Effect callbacks run inside a recover guard; a panic or
// returned error becomes a structured failure with the message
// preserved. Side effects applied before the failure are NOT rolled
// back.
//
// The Executor is stateless per call except for the externally-owned
// PendingState handed to it; callers serialize calls per game instance.
package action
