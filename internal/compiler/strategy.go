package compiler

import (
	"fmt"

	"github.com/roach88/strata/internal/ir"
)

// compileStrategy compiles a safe rule's body into an ordered list of
// relation scans with positional filters. Called only for rules whose
// safety analysis passed - a missing binding site here is a programming
// bug, not an input condition, and panics.
//
// Positive literals are processed left to right, each claiming the next
// source index. The first occurrence of a variable is authoritative and
// records the binding location; every later occurrence becomes an EqBound
// filter against it. Constant arguments become EqConst filters at their
// own position.
//
// Negative literals are resolved after all binding sites exist (a negation
// may reference a variable bound by a later positive literal) and attach
// to the source with the highest index among their referenced binding
// locations - checked as late as necessary, as early as correctness
// permits. A negation with no variables at all goes to GroundNegations
// and is checked once per evaluation pass, independent of any source
// tuple.
func compileStrategy(head ir.Atom, body []ir.Literal) *ir.Strategy {
	bindings := make(map[string]ir.Loc)
	var sources []ir.DataSource

	for _, lit := range body {
		if lit.Negated {
			continue
		}
		src := len(sources)
		ds := ir.DataSource{
			Relation: lit.Atom.Relation,
			Arity:    len(lit.Atom.Args),
		}
		for pos, arg := range lit.Atom.Args {
			switch term := arg.(type) {
			case ir.Constant:
				ds.Filters = append(ds.Filters, ir.EqConst{Pos: pos, Value: term.Value})
			case ir.Variable:
				if ref, ok := bindings[term.Name]; ok {
					ds.Filters = append(ds.Filters, ir.EqBound{Pos: pos, Ref: ref})
				} else {
					bindings[term.Name] = ir.Loc{Source: src, Pos: pos}
				}
			default:
				panic(fmt.Sprintf("compiler: unknown term type %T", arg))
			}
		}
		sources = append(sources, ds)
	}

	var ground []ir.NegCheck
	for _, lit := range body {
		if !lit.Negated {
			continue
		}
		check := ir.NegCheck{Relation: lit.Atom.Relation}
		latest := -1
		for _, arg := range lit.Atom.Args {
			switch term := arg.(type) {
			case ir.Constant:
				check.Args = append(check.Args, ir.ConstArg{Value: term.Value})
			case ir.Variable:
				ref, ok := bindings[term.Name]
				if !ok {
					panic(fmt.Sprintf(
						"compiler: negated variable ?%s has no binding site; safety analysis must reject this rule first",
						term.Name))
				}
				check.Args = append(check.Args, ir.BoundArg{Ref: ref})
				if ref.Source > latest {
					latest = ref.Source
				}
			default:
				panic(fmt.Sprintf("compiler: unknown term type %T", arg))
			}
		}
		if latest < 0 {
			ground = append(ground, check)
		} else {
			sources[latest].Filters = append(sources[latest].Filters, check)
		}
	}

	headArgs := make([]ir.ArgSource, len(head.Args))
	for i, arg := range head.Args {
		switch term := arg.(type) {
		case ir.Constant:
			headArgs[i] = ir.ConstArg{Value: term.Value}
		case ir.Variable:
			ref, ok := bindings[term.Name]
			if !ok {
				panic(fmt.Sprintf(
					"compiler: head variable ?%s has no binding site; safety analysis must reject this rule first",
					term.Name))
			}
			headArgs[i] = ir.BoundArg{Ref: ref}
		default:
			panic(fmt.Sprintf("compiler: unknown term type %T", arg))
		}
	}

	strategy := &ir.Strategy{
		Sources:         sources,
		HeadArgs:        headArgs,
		GroundNegations: ground,
	}
	assertNoForwardRefs(strategy)
	return strategy
}

// assertNoForwardRefs enforces the strategy invariant: no filter references
// a binding location in a later source than its own. A violation would
// require unbound lookahead during enumeration and indicates a compiler
// bug, so it is fatal.
func assertNoForwardRefs(strategy *ir.Strategy) {
	for i, ds := range strategy.Sources {
		for _, f := range ds.Filters {
			switch filter := f.(type) {
			case ir.EqBound:
				if filter.Ref.Source > i {
					panic(fmt.Sprintf(
						"compiler: source %d filter references source %d ahead of it",
						i, filter.Ref.Source))
				}
			case ir.EqConst:
				// Constants reference nothing.
			case ir.NegCheck:
				for _, arg := range filter.Args {
					if bound, ok := arg.(ir.BoundArg); ok && bound.Ref.Source > i {
						panic(fmt.Sprintf(
							"compiler: source %d negation references source %d ahead of it",
							i, bound.Ref.Source))
					}
				}
			default:
				panic(fmt.Sprintf("compiler: unknown filter type %T", f))
			}
		}
	}
}
