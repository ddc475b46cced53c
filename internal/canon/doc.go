// Package canon produces RFC 8785 canonical JSON and content-addressed
// hashes for checkpoint and trace identity.
//
// Canonical JSON is the ONLY serialization used for identity
// computation. Two structurally equal values always hash to the same
// string, across processes and restarts.
//
// Constraints:
//   - Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//   - No HTML escaping (< > & are NOT escaped)
//   - Strings are NFC normalized
//   - No floats: integral float64 (the product of encoding/json and
//     YAML round-trips) is accepted and folded to int64; fractional
//     values are an error
//   - No null
package canon
