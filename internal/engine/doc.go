// Package engine implements the strata fixpoint evaluator.
//
// The engine is the heart of strata - it takes an analyzed rule graph and
// a set of base facts, evaluates each strongly connected component to a
// fixpoint, and records a provenance trail for every derived tuple.
//
// ARCHITECTURE:
//
// Single-Threaded Evaluation:
// One ComputeDeductions call runs graph components to completion in a
// single goroutine. This ensures:
// - Predictable rule evaluation order (declaration order)
// - Reproducible results on re-runs with identical input
// - Simple reasoning about which facts a pass can observe
//
// Evaluation Flow:
// 1. Base facts loaded into per-relation tuple tables
// 2. Components iterated strictly in topological order
// 3. First pass per component joins the complete accumulated tables
// 4. Later passes are semi-naive: only combinations containing at least
//    one previous-pass tuple are revisited
// 5. A component finishes when a pass derives zero new tuples
//
// Note: component evaluation never fails on unsafe rules. Rules without a
// compiled strategy are silently skipped - unsafety is a data state the
// compiler already exposed, not a runtime error.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every deduction is stamped with a monotonic seq counter from Clock.Next().
// NEVER use wall-clock timestamps for ordering.
//
// Deterministic Scheduling:
// Rules evaluated in declaration order, sources in body order, tuples in
// insertion order. No randomness, no concurrency, no non-determinism.
package engine
