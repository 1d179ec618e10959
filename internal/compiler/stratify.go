package compiler

import (
	"fmt"
	"strings"
)

// StratumWarning reports a stratification finding for diagnostics.
//
// Recursive components are informational - recursion through positive
// literals is ordinary deductive behavior. Negation inside a component is
// a genuine violation: the negated relation is not finalized before the
// rule consuming it runs, so results may be non-monotonic. The engine
// still evaluates such rules; whether to reject them instead is caller
// policy, which is why this is a queryable diagnostic and not an error.
type StratumWarning struct {
	Path    []string `json:"path"`    // relation cycle, e.g. ["p", "q", "p"]
	RuleID  string   `json:"rule_id,omitempty"`
	Message string   `json:"message"` // human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// stratify partitions the relation arena into strongly connected
// components using Tarjan's algorithm and derives the internal
// reference/negation maps.
//
// The algorithm is the standard low-link formulation: assign each relation
// a discovery depth, push it on an explicit stack, recurse into each
// rule-body relation not yet visited, and take the minimum low-link seen.
// A relation closes its own component when its low-link equals its depth,
// popping everything above it (inclusive) off the stack.
//
// Components are emitted only after every component they depend on, so the
// emission order is already a valid evaluation order - it is never
// re-sorted. A trivial relation (single node, no self-loop) is still its
// own one-element component.
func (g *Graph) stratify() {
	const unvisited = -1

	n := len(g.Relations)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}
	g.compOf = make([]int, n)

	var (
		next  int
		stack []RelID
	)

	var strongConnect func(v RelID)
	strongConnect = func(v RelID) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.bodyRelations(v) {
			if index[w] == unvisited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		}

		// v is a component root: pop the stack down to and including v.
		if lowlink[v] == index[v] {
			comp := Component{}
			compIdx := len(g.Components)
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp.Relations = append(comp.Relations, w)
				g.compOf[w] = compIdx
				if w == v {
					break
				}
			}
			comp.Recursive = len(comp.Relations) > 1 ||
				g.hasSelfLoop(comp.Relations[0])
			g.Components = append(g.Components, comp)
		}
	}

	// Visit in arena order (declaration order), not map order, so that
	// independent components come out in a deterministic sequence.
	for v := RelID(0); v < RelID(n); v++ {
		if index[v] == unvisited {
			strongConnect(v)
		}
	}

	// Flag body literals that reference the literal's own component.
	for i, rule := range g.Rules {
		id := RuleID(i)
		comp := g.compOf[g.relByName[rule.Head.Relation]]
		for li, lit := range rule.Body {
			if g.compOf[g.relByName[lit.Atom.Relation]] != comp {
				continue
			}
			g.InternalRefs[id] = append(g.InternalRefs[id], li)
			if lit.Negated {
				g.InternalNegs[id] = append(g.InternalNegs[id], li)
			}
		}
	}
}

// hasSelfLoop reports whether a relation depends on itself.
func (g *Graph) hasSelfLoop(rel RelID) bool {
	for _, w := range g.bodyRelations(rel) {
		if w == rel {
			return true
		}
	}
	return false
}

// StratumWarnings converts the analysis findings into diagnostics:
// one "info" entry per recursive component, plus one "warning" entry per
// rule with an internal negation. Callers decide whether warnings block
// evaluation or merely display.
func (g *Graph) StratumWarnings() []StratumWarning {
	var warnings []StratumWarning

	for _, comp := range g.Components {
		if !comp.Recursive {
			continue
		}
		path := make([]string, 0, len(comp.Relations)+1)
		// Tarjan pops members in reverse discovery order; reverse back for
		// a readable path.
		for i := len(comp.Relations) - 1; i >= 0; i-- {
			path = append(path, g.Relations[comp.Relations[i]].Name)
		}
		path = append(path, path[0])
		warnings = append(warnings, StratumWarning{
			Path:    path,
			Message: fmt.Sprintf("recursive component: %s", strings.Join(path, " -> ")),
			Level:   "info",
		})
	}

	for i, rule := range g.Rules {
		id := RuleID(i)
		for _, li := range g.InternalNegs[id] {
			lit := rule.Body[li]
			warnings = append(warnings, StratumWarning{
				Path:    []string{rule.Head.Relation, lit.Atom.Relation},
				RuleID:  rule.ID,
				Message: fmt.Sprintf("rule %s negates %s inside its own recursive component; results may be non-monotonic", ruleLabel(rule.ID, i), lit.Atom.Relation),
				Level:   "warning",
			})
		}
	}

	return warnings
}

func ruleLabel(id string, index int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("#%d", index)
}
