package compiler

import "github.com/roach88/strata/internal/ir"

// RelID is an arena handle for a relation node. Relation/rule
// cross-references use integer handles instead of mutual pointers, so the
// graph carries no ownership cycles.
type RelID int

// RuleID is an arena handle for a rule (its index in Graph.Rules,
// which is declaration order).
type RuleID int

// Relation is one node of the dependency graph: a named relation plus the
// rules that write it and the rules that read it. Relations referenced in
// a body but never defined by any head get a placeholder entry with empty
// OwnRules - that is what a base (extensional) relation looks like.
type Relation struct {
	Name string

	// OwnRules lists rules whose head writes this relation.
	OwnRules []RuleID

	// DependentRules lists rules whose body reads this relation
	// (each rule at most once, regardless of how often it references it).
	DependentRules []RuleID
}

// Component is a set of mutually (possibly trivially) dependent relations.
// The evaluator processes components strictly in Graph.Components order.
type Component struct {
	Relations []RelID

	// Recursive is true for components with more than one member, or a
	// single member that depends on itself.
	Recursive bool
}

// Graph is the result of one rule-set analysis: the relation arena, the
// stratified component list in evaluation order, and the internal
// reference/negation lookup maps.
//
// A Graph is built fresh from the rule set on every analysis and never
// incrementally patched - when the rule set changes, re-analyze.
// (Rebuilding is cheaper than maintaining SCCs incrementally; accepted
// limitation.)
type Graph struct {
	// Rules holds the analyzed rules in declaration order.
	Rules []ir.Rule

	// Relations is the arena of relation nodes; RelID indexes into it.
	Relations []Relation

	// Components lists strongly connected components in a valid
	// evaluation order: every component appears after everything it
	// depends on.
	Components []Component

	// InternalRefs maps a rule to the indexes of body literals whose
	// relation lives in the rule's own component.
	InternalRefs map[RuleID][]int

	// InternalNegs is the subset of InternalRefs where the literal is
	// negated. A non-empty entry is a stratification violation for the
	// rule: it negates a relation that is not finalized before the rule
	// runs. Violations are surfaced as diagnostics, never thrown - see
	// StratumWarnings.
	InternalNegs map[RuleID][]int

	relByName map[string]RelID
	compOf    []int // RelID -> index into Components
}

// AnalyzeRuleGraph builds the relation dependency graph for a rule set and
// stratifies it. Every rule contributes its head relation to OwnRules and
// every body-literal relation to DependentRules, creating placeholders for
// relations that are referenced but never defined.
//
// The rules slice is copied to keep the graph immutable against caller
// mutation.
func AnalyzeRuleGraph(rules []ir.Rule) *Graph {
	g := &Graph{
		Rules:        make([]ir.Rule, len(rules)),
		relByName:    make(map[string]RelID),
		InternalRefs: make(map[RuleID][]int),
		InternalNegs: make(map[RuleID][]int),
	}
	copy(g.Rules, rules)

	for i, rule := range g.Rules {
		id := RuleID(i)
		head := g.intern(rule.Head.Relation)
		g.Relations[head].OwnRules = append(g.Relations[head].OwnRules, id)

		seen := make(map[RelID]bool)
		for _, lit := range rule.Body {
			rel := g.intern(lit.Atom.Relation)
			if !seen[rel] {
				seen[rel] = true
				g.Relations[rel].DependentRules = append(g.Relations[rel].DependentRules, id)
			}
		}
	}

	g.stratify()
	return g
}

// intern returns the arena handle for a relation name, allocating a node
// on first sight. Allocation order follows rule declaration order, which
// keeps every downstream traversal deterministic.
func (g *Graph) intern(name string) RelID {
	if id, ok := g.relByName[name]; ok {
		return id
	}
	id := RelID(len(g.Relations))
	g.Relations = append(g.Relations, Relation{Name: name})
	g.relByName[name] = id
	return id
}

// RelationID looks up the arena handle for a relation name.
func (g *Graph) RelationID(name string) (RelID, bool) {
	id, ok := g.relByName[name]
	return id, ok
}

// ComponentOf returns the component index of a rule's head relation.
func (g *Graph) ComponentOf(rule RuleID) int {
	rel := g.relByName[g.Rules[rule].Head.Relation]
	return g.compOf[rel]
}

// ComponentOfRelation returns the component index of a relation.
func (g *Graph) ComponentOfRelation(rel RelID) int {
	return g.compOf[rel]
}

// bodyRelations returns the relations read by rules owned by rel, i.e. the
// dependency edges out of rel. Edges traverse "backwards" relative to rule
// implication: a head depends on its body.
func (g *Graph) bodyRelations(rel RelID) []RelID {
	var out []RelID
	for _, ruleID := range g.Relations[rel].OwnRules {
		for _, lit := range g.Rules[ruleID].Body {
			out = append(out, g.relByName[lit.Atom.Relation])
		}
	}
	return out
}
