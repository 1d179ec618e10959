// Package testutil provides compact builders for IR values used across
// package tests. Arguments follow the loader convention: a string with a
// leading '?' is a variable, anything else is a constant.
package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/strata/internal/ir"
)

// A builds an atom. String args starting with '?' become variables;
// all other values become constants via ir.ValueOf.
//
// Example: A("parent", "?x", "?y"), A("age", "?p", 42).
func A(relation string, args ...any) ir.Atom {
	atom := ir.Atom{Relation: relation, Args: make([]ir.Term, len(args))}
	for i, arg := range args {
		if s, ok := arg.(string); ok && strings.HasPrefix(s, "?") {
			atom.Args[i] = ir.Variable{Name: strings.TrimPrefix(s, "?")}
			continue
		}
		v, err := ir.ValueOf(arg)
		if err != nil {
			panic(fmt.Sprintf("testutil: bad constant %v: %v", arg, err))
		}
		atom.Args[i] = ir.Constant{Value: v}
	}
	return atom
}

// P builds a positive literal.
func P(relation string, args ...any) ir.Literal {
	return ir.Pos(A(relation, args...))
}

// N builds a negative literal.
func N(relation string, args ...any) ir.Literal {
	return ir.Neg(A(relation, args...))
}

// T builds a tuple from Go primitives, panicking on unsupported types.
func T(vals ...any) ir.Tuple {
	return ir.MustTupleOf(vals...)
}

// Tuples builds a slice of same-arity tuples from rows of primitives.
func Tuples(rows ...[]any) []ir.Tuple {
	out := make([]ir.Tuple, len(rows))
	for i, row := range rows {
		out[i] = ir.MustTupleOf(row...)
	}
	return out
}
