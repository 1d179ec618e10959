package engine

import (
	"github.com/roach88/strata/internal/ir"
)

// resolveArg resolves a strategy argument against the combination chosen
// so far. BoundArg references only ever point at sources already chosen -
// the strategy compiler asserts there are no forward references.
func resolveArg(arg ir.ArgSource, chosen []*Derived) ir.Value {
	switch a := arg.(type) {
	case ir.ConstArg:
		return a.Value
	case ir.BoundArg:
		return chosen[a.Ref.Source].Tuple[a.Ref.Pos]
	default:
		panic("engine: unknown ArgSource variant")
	}
}

// resolveTuple resolves a full argument list to a ground tuple.
func resolveTuple(args []ir.ArgSource, chosen []*Derived) ir.Tuple {
	t := make(ir.Tuple, len(args))
	for i, a := range args {
		t[i] = resolveArg(a, chosen)
	}
	return t
}

// sourceMatches applies source idx's filters to the candidate combination.
// Filters prune eagerly: they run the moment source idx's tuple is chosen,
// before any later source is enumerated.
func (ev *evaluation) sourceMatches(src ir.DataSource, idx int, chosen []*Derived) bool {
	row := chosen[idx]
	if len(row.Tuple) != src.Arity {
		return false
	}
	for _, f := range src.Filters {
		switch flt := f.(type) {
		case ir.EqConst:
			if row.Tuple[flt.Pos] != flt.Value {
				return false
			}
		case ir.EqBound:
			if row.Tuple[flt.Pos] != chosen[flt.Ref.Source].Tuple[flt.Ref.Pos] {
				return false
			}
		case ir.NegCheck:
			if ev.negHolds(flt, chosen) {
				return false
			}
		default:
			panic("engine: unknown Filter variant")
		}
	}
	return true
}

// negHolds reports whether the negated tuple exists, i.e. the negation
// FAILS. The check consults the pass-start snapshot only.
func (ev *evaluation) negHolds(n ir.NegCheck, chosen []*Derived) bool {
	key, err := ir.TupleKey(resolveTuple(n.Args, chosen))
	if err != nil {
		panic("engine: unkeyable negation tuple: " + err.Error())
	}
	return ev.table(n.Relation).contains(key)
}

// groundNegationBlocked re-checks a strategy's ground negations. Called at
// the top of every rule evaluation, every pass: a ground negation's truth
// can flip between passes as the negated relation gains tuples.
func (ev *evaluation) groundNegationBlocked(strat *ir.Strategy) bool {
	for _, n := range strat.GroundNegations {
		if ev.negHolds(n, nil) {
			return true
		}
	}
	return false
}
