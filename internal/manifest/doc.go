// Package manifest compiles CUE game manifests: declarative
// descriptions of a rule set's surface (name, player bounds, actions
// and their selections) that ship alongside the Go implementation.
//
// The manifest cannot express effects or predicates - those are Go
// code in the registered Spec. Its job is the part that benefits from
// being data: the wire surface clients integrate against. Check
// cross-verifies a manifest against the live Spec so the two cannot
// drift silently.
package manifest
