package engine

import (
	"log/slog"
	"sort"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/ir"
)

// evaluation owns all mutable state of one ComputeDeductions call: the
// per-relation tuple tables, indexed by the graph's relation arena. No
// other component observes or mutates it mid-flight.
type evaluation struct {
	graph         *compiler.Graph
	clock         *Clock
	logger        *slog.Logger
	maxIterations int

	tables []*table // indexed by compiler.RelID
}

func newEvaluation(e *Engine) *evaluation {
	ev := &evaluation{
		graph:         e.graph,
		clock:         e.clock,
		logger:        e.logger,
		maxIterations: e.maxIterations,
		tables:        make([]*table, len(e.graph.Relations)),
	}
	for id, rel := range e.graph.Relations {
		ev.tables[id] = newTable(rel.Name)
	}
	return ev
}

// table returns the tuple table for a relation name. Every relation a
// strategy mentions is interned in the graph arena, so the lookup cannot
// miss during evaluation.
func (ev *evaluation) table(name string) *table {
	id, ok := ev.graph.RelationID(name)
	if !ok {
		panic("engine: relation missing from graph arena: " + name)
	}
	return ev.tables[id]
}

// loadBase installs the input tuples. Relations are processed in sorted
// name order so error reporting and row layout are deterministic for any
// map iteration order.
func (ev *evaluation) loadBase(base map[string][]ir.Tuple) error {
	names := make([]string, 0, len(base))
	for name := range base {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		id, ok := ev.graph.RelationID(name)
		if !ok {
			return NewUnknownRelationError(name)
		}
		tbl := ev.tables[id]
		for _, t := range base[name] {
			key, err := ir.TupleKey(t)
			if err != nil {
				return err
			}
			tbl.loadBase(&Derived{Tuple: t, Key: key, Base: true})
		}
	}
	return nil
}

// runComponent evaluates one component's rules to fixpoint: a full pass
// over the complete accumulated tables, then semi-naive passes fed only by
// the previous pass's delta, until a pass derives nothing new.
func (ev *evaluation) runComponent(ci int) error {
	comp := ev.graph.Components[ci]
	rules := ev.componentRules(ci)
	guard := newIterGuard(ev.maxIterations)

	if err := guard.check(ci); err != nil {
		return err
	}
	for _, id := range rules {
		ev.evalRuleFull(ev.graph.Rules[id])
	}
	newRows := ev.promote(comp)

	for newRows > 0 {
		if err := guard.check(ci); err != nil {
			return err
		}
		for _, id := range rules {
			ev.evalRuleIncremental(ev.graph.Rules[id])
		}
		newRows = ev.promote(comp)
	}

	ev.logger.Debug("component evaluated",
		"component", ci,
		"relations", len(comp.Relations),
		"rules", len(rules),
		"passes", guard.current)
	return nil
}

// componentRules returns the component's rules in declaration order.
func (ev *evaluation) componentRules(ci int) []compiler.RuleID {
	var rules []compiler.RuleID
	for i := range ev.graph.Rules {
		id := compiler.RuleID(i)
		if ev.graph.ComponentOf(id) == ci {
			rules = append(rules, id)
		}
	}
	return rules
}

// promote closes a pass for every relation in the component and returns
// the number of newly visible rows.
func (ev *evaluation) promote(comp compiler.Component) int {
	n := 0
	for _, rel := range comp.Relations {
		n += ev.tables[rel].promote()
	}
	return n
}

// evalRuleFull enumerates every combination of source tuples from the
// complete accumulated tables. Unsafe rules (no strategy) are silently
// skipped - they are a permanent data state, not an error.
func (ev *evaluation) evalRuleFull(rule ir.Rule) {
	strat := rule.Strategy
	if strat == nil {
		return
	}
	if ev.groundNegationBlocked(strat) {
		return
	}
	if len(strat.Sources) == 0 {
		// A fact fires once, on the full pass.
		ev.fire(rule, strat, nil)
		return
	}
	regions := make([]region, len(strat.Sources))
	for i := range regions {
		regions[i] = regionAll
	}
	ev.joinFrom(rule, strat, regions, make([]*Derived, len(strat.Sources)), 0)
}

// evalRuleIncremental runs the semi-naive join: one enumeration per pivot
// source, where the pivot reads the previous pass's delta, earlier sources
// read only older rows, and later sources read both. Every combination
// containing at least one delta tuple is visited exactly once.
func (ev *evaluation) evalRuleIncremental(rule ir.Rule) {
	strat := rule.Strategy
	if strat == nil || len(strat.Sources) == 0 {
		return
	}
	if ev.groundNegationBlocked(strat) {
		return
	}
	regions := make([]region, len(strat.Sources))
	chosen := make([]*Derived, len(strat.Sources))
	for pivot := range strat.Sources {
		if len(ev.table(strat.Sources[pivot].Relation).delta) == 0 {
			continue
		}
		for i := range regions {
			switch {
			case i < pivot:
				regions[i] = regionOld
			case i == pivot:
				regions[i] = regionDelta
			default:
				regions[i] = regionAll
			}
		}
		ev.joinFrom(rule, strat, regions, chosen, 0)
	}
}

// joinFrom recursively enumerates source idx onward, pruning each
// candidate by the source's own filters as soon as its tuple is chosen.
func (ev *evaluation) joinFrom(rule ir.Rule, strat *ir.Strategy, regions []region, chosen []*Derived, idx int) {
	if idx == len(strat.Sources) {
		ev.fire(rule, strat, chosen)
		return
	}
	src := strat.Sources[idx]
	for _, row := range ev.table(src.Relation).rowsIn(regions[idx]) {
		chosen[idx] = row
		if !ev.sourceMatches(src, idx, chosen) {
			continue
		}
		ev.joinFrom(rule, strat, regions, chosen, idx+1)
	}
	chosen[idx] = nil
}

// fire materializes the head tuple for a surviving combination and records
// the ground rule instantiation. A duplicate tuple gains the deduction on
// its existing entry; a duplicate deduction is dropped.
func (ev *evaluation) fire(rule ir.Rule, strat *ir.Strategy, chosen []*Derived) {
	head := resolveTuple(strat.HeadArgs, chosen)
	key, err := ir.TupleKey(head)
	if err != nil {
		panic("engine: unkeyable head tuple: " + err.Error())
	}

	sources := make([]SourceRef, len(chosen))
	sourceKeys := make([]string, len(chosen))
	for i, row := range chosen {
		sources[i] = SourceRef{
			Relation: strat.Sources[i].Relation,
			Tuple:    row.Tuple,
			Key:      row.Key,
		}
		sourceKeys[i] = row.Key
	}
	ded := Deduction{
		RuleID:  rule.ID,
		Sources: sources,
		Seq:     ev.clock.Next(),
		Hash:    ir.MustDeductionHash(rule.ID, sourceKeys),
	}

	tbl := ev.table(rule.Head.Relation)
	if f := tbl.lookup(key); f != nil {
		f.addDeduction(ded)
		return
	}
	f := &Derived{Tuple: head, Key: key}
	f.addDeduction(ded)
	tbl.insert(f)
}

// result packages the final tables in arena (declaration) order.
func (ev *evaluation) result() *Result {
	res := &Result{relations: make(map[string]*RelationFacts, len(ev.tables))}
	for id, rel := range ev.graph.Relations {
		tbl := ev.tables[id]
		res.order = append(res.order, rel.Name)
		res.relations[rel.Name] = &RelationFacts{
			Relation: rel.Name,
			rows:     tbl.rows(),
			byKey:    tbl.known,
		}
	}
	return res
}
