// Package ir provides the canonical intermediate representation for veil.
//
// This package contains the Item graph, the expression/pattern/type node
// variants, and the specification objects (Contract, LoopSpec,
// RefinementSpec) attached to Items. All other internal packages import ir;
// ir imports nothing internal. This ensures IR remains the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Expression trees are exclusively owned; the only cross-links are
//     ItemID lookups on Var and MethodCall nodes
//   - Items live in a per-run Arena and are never reclaimed mid-pipeline
//   - Node variants are sealed interfaces; backends can exhaustively
//     type-switch over them
//   - Canonical JSON (RFC 8785) is the only serialization used for
//     content-addressed identity
package ir
