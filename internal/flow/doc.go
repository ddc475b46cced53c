// Package flow implements the resumable turn-sequencing interpreter.
//
// A flow is a declarative node graph (sequence, loop, per-player
// iteration, decision points, branches, phases) describing legal turn
// order. The engine interprets it with an EXPLICIT frame stack - never
// the Go call stack - so execution can suspend at a decision point,
// serialize its exact continuation, and resume in another process.
//
// EXECUTION MODEL:
//
// Single trampoline loop: while the stack is non-empty and the engine
// is neither suspended nor complete, pop fully-completed top frames or
// execute the top frame's node logic, which may push children, advance
// frame data, or suspend. The loop carries a global iteration ceiling
// (separate from any loop node's own cap); exceeding it is a
// flow-definition bug and surfaces as a fatal RuntimeError, never a
// retry.
//
// The only suspension points are a decision point or a concurrent
// decision window with no forced transition. Neither Start nor Resume
// performs I/O; persistence happens after State() returns, at the
// caller's discretion.
//
// DETERMINISM:
//
// Identical Resume sequences against two fresh engines built from the
// same definition produce identical State() after every call. Node
// evaluation order is fixed, branch conditions are memoized per entry,
// and no wall-clock or randomness enters the interpreter.
//
// Engines share no state; distinct games run fully in parallel. A
// single engine is NOT safe for concurrent calls - callers serialize
// per game instance.
package flow
