// Package harness provides a conformance test harness: YAML scenarios
// that pair a rule set with base facts, evaluated to fixpoint and compared
// against golden snapshots.
//
// Snapshots are RFC 8785 canonical JSON, so golden files are byte-stable
// across runs and can be written (and reviewed) by hand. Relations are
// sorted by name; tuples and deductions stay in discovery order, which
// the engine guarantees is deterministic.
package harness
