// Package ir provides the structural representation consumed by the strata
// deduction engine: primitive values and tuples, terms (constants and
// variables), atoms, literals, rules, and compiled evaluation strategies.
//
// This package contains type definitions and content addressing only. All
// other internal packages import ir; ir imports nothing internal. This
// ensures IR remains the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - All tagged unions (Value, Term, Filter, ArgSource) are sealed
//     interfaces, so type switches over them are exhaustive by construction
//   - NO float types anywhere - use int64 for numbers (floats break
//     deterministic content addressing)
//   - Rules are immutable values: the unbound-variable set and the
//     evaluation strategy are computed once at construction time
//     (see internal/compiler) and never mutated afterwards
//   - Tuple identity is structural, never referential: TupleKey produces a
//     canonical content key from RFC 8785 canonical JSON and SHA-256 with
//     domain separation, stable across runs and processes
package ir
