// Package harness runs scripted game scenarios against live game
// instances and checks the outcomes.
//
// A scenario names a rule set from the built-in catalog, lists the
// participants, scripts every move, and asserts on the final state and
// the move trace. Scenarios are YAML files parsed strictly: an unknown
// field is an error, not a silent no-op.
//
// Every move goes through the real session layer, so a passing
// scenario exercises argument resolution, validation, availability,
// effects, and flow advancement end to end. Determinism comes for
// free: the engine has no randomness, and game tokens are pinned per
// scenario, which makes the trace suitable for golden file comparison.
package harness
