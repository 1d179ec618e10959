package engine

import (
	"github.com/roach88/strata/internal/ir"
)

// SourceRef identifies one tuple a deduction consumed, in body order.
type SourceRef struct {
	Relation string   `json:"relation"`
	Tuple    ir.Tuple `json:"tuple"`
	Key      string   `json:"key"`
}

// Deduction is one ground rule instantiation: the rule plus the exact
// source tuples that satisfied its body. A derived tuple keeps every
// distinct deduction that produced it, not just the first.
type Deduction struct {
	// RuleID is the rule that fired.
	RuleID string `json:"rule_id"`

	// Sources lists the consumed tuples in source (body) order.
	// Empty for facts.
	Sources []SourceRef `json:"sources,omitempty"`

	// Seq is the logical clock stamp at discovery. Strictly increasing
	// across one ComputeDeductions call.
	Seq int64 `json:"seq"`

	// Hash is the content address of this ground instantiation,
	// ir.DeductionHash over the rule id and source keys.
	Hash string `json:"hash"`
}

// Derived is one tuple of a relation together with its provenance.
type Derived struct {
	// Tuple holds the values.
	Tuple ir.Tuple `json:"tuple"`

	// Key is the canonical tuple key, a pure function of Tuple.
	Key string `json:"key"`

	// Base marks tuples supplied as input rather than derived.
	Base bool `json:"base,omitempty"`

	// Deductions lists every distinct ground rule instantiation that
	// produced this tuple, in discovery order. Empty for base tuples.
	Deductions []Deduction `json:"deductions,omitempty"`

	seen map[string]bool // deduction hashes already recorded
}

// addDeduction appends d unless an identical instantiation is already
// recorded. Reports whether the deduction was new.
func (f *Derived) addDeduction(d Deduction) bool {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[d.Hash] {
		return false
	}
	f.seen[d.Hash] = true
	f.Deductions = append(f.Deductions, d)
	return true
}

// RelationFacts holds every tuple of one relation, base and derived,
// in insertion order.
type RelationFacts struct {
	Relation string

	rows  []*Derived
	byKey map[string]*Derived
}

// Facts returns the relation's tuples in insertion order.
func (r *RelationFacts) Facts() []*Derived {
	return r.rows
}

// Get returns the entry for a canonical tuple key, or nil.
func (r *RelationFacts) Get(key string) *Derived {
	return r.byKey[key]
}

// Contains reports whether the relation holds the tuple.
func (r *RelationFacts) Contains(t ir.Tuple) bool {
	key, err := ir.TupleKey(t)
	if err != nil {
		return false
	}
	return r.byKey[key] != nil
}

// Len returns the number of tuples.
func (r *RelationFacts) Len() int {
	return len(r.rows)
}

// Result maps every relation the graph mentions to its final tuple set.
// Relations appear in graph arena order (rule declaration order).
type Result struct {
	order     []string
	relations map[string]*RelationFacts
}

// Relation returns the facts for a relation name, or nil if the graph
// never mentioned it.
func (r *Result) Relation(name string) *RelationFacts {
	return r.relations[name]
}

// Relations returns every relation name in arena order.
func (r *Result) Relations() []string {
	return r.order
}

// DerivedCount returns the number of non-base tuples across all relations.
func (r *Result) DerivedCount() int {
	n := 0
	for _, name := range r.order {
		for _, f := range r.relations[name].rows {
			if !f.Base {
				n++
			}
		}
	}
	return n
}
