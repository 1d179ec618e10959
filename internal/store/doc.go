// Package store provides durable storage around the in-memory engine:
// a base-fact catalog to evaluate against, and an append-only archive of
// evaluation runs with their full provenance trail.
//
// The engine itself never touches the store - evaluation is pure and
// in-memory. The store exists at the edges: `strata eval` can load base
// facts from it, and `strata export` archives a finished result for later
// inspection with ordinary SQL.
//
// Tuples are stored as RFC 8785 canonical JSON TEXT, so byte comparison
// of stored tuples is value comparison. Ordering inside a run is by seq
// (the engine's logical clock), never by wall time; created_at on runs is
// informational only.
package store
