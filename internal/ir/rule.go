package ir

import "strings"

// Rule is an immutable deduction rule: a head atom derived from a body of
// literals. The two cached fields are computed at construction time by
// internal/compiler and never mutated afterwards:
//
//   - Unbound: variables appearing in the head or in negative literals that
//     no positive literal binds. A non-empty set makes the rule unsafe - it
//     has no valid evaluation strategy and is permanently excluded from
//     evaluation (silently skipped, never retried, never an error).
//   - Strategy: present only for safe rules, nil otherwise. A pure function
//     of the rule's shape, not of the data, so it is compiled once and
//     reused for every evaluation pass.
type Rule struct {
	ID   string    `json:"id"`
	Head Atom      `json:"head"`
	Body []Literal `json:"body"`

	// Unbound holds unsafe variable names, sorted. Empty for safe rules.
	Unbound []string `json:"unbound,omitempty"`

	// Strategy is the compiled evaluation plan. Nil iff the rule is unsafe.
	Strategy *Strategy `json:"-"`
}

// Safe reports whether the rule has a valid evaluation strategy.
// Unsafe rules are a permanent data state, not an error: gatherers of
// evaluable rules filter them out silently.
func (r Rule) Safe() bool {
	return r.Strategy != nil
}

// String renders the rule in clause form, e.g.
// grandparent(?x, ?z) :- parent(?x, ?y), parent(?y, ?z).
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Head.String())
	if len(r.Body) > 0 {
		b.WriteString(" :- ")
		for i, lit := range r.Body {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(lit.String())
		}
	}
	b.WriteByte('.')
	return b.String()
}
