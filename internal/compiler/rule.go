package compiler

import (
	"sort"

	"github.com/roach88/strata/internal/ir"
)

// CompileRule constructs an immutable Rule from a head atom and a body of
// literals. Both cached fields are computed here, once, and never mutated:
//
//   - the unbound-variable set (safety analysis)
//   - the evaluation strategy, for safe rules only
//
// An unsafe rule (non-empty unbound set) gets a nil strategy and is
// permanently excluded from evaluation. This is a data state the caller
// checks via Rule.Safe(), not an error: unsafe rules are filtered out
// silently wherever rules are gathered for evaluation.
//
// A rule with an empty body (a fact) is always safe - it has no variables
// to bind. Callers that want time-stamped facts enforce that themselves;
// the engine takes no position.
func CompileRule(id string, head ir.Atom, body []ir.Literal) ir.Rule {
	rule := ir.Rule{
		ID:      id,
		Head:    head,
		Body:    body,
		Unbound: unboundVariables(head, body),
	}
	if len(rule.Unbound) == 0 {
		rule.Strategy = compileStrategy(head, body)
	}
	return rule
}

// unboundVariables returns the names of variables that appear in the head
// or in a negative literal but are never bound by a positive literal.
// The result is sorted for stable diagnostics.
//
// A variable is bound only by occurring in a positive body literal - the
// position of that literal in the body does not matter for safety (the
// strategy compiler resolves negations against whichever source binds
// last).
func unboundVariables(head ir.Atom, body []ir.Literal) []string {
	bound := make(map[string]bool)
	for _, lit := range body {
		if lit.Negated {
			continue
		}
		for _, name := range lit.Atom.Variables() {
			bound[name] = true
		}
	}

	// Potentially unbound: head variables and negative-literal variables.
	needed := make(map[string]bool)
	for _, name := range head.Variables() {
		needed[name] = true
	}
	for _, lit := range body {
		if !lit.Negated {
			continue
		}
		for _, name := range lit.Atom.Variables() {
			needed[name] = true
		}
	}

	var unbound []string
	for name := range needed {
		if !bound[name] {
			unbound = append(unbound, name)
		}
	}
	sort.Strings(unbound)
	return unbound
}
