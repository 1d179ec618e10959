package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/ir"
	tu "github.com/roach88/strata/internal/testutil"
)

// TestCompileStrategy_FirstOccurrenceBinds tests that the first occurrence
// of a shared variable is the binding site and later occurrences become
// EqBound filters against it.
func TestCompileStrategy_FirstOccurrenceBinds(t *testing.T) {
	// p(?x, ?y) :- q(?x, ?y), r(?y).
	rule := CompileRule("p",
		tu.A("p", "?x", "?y"),
		[]ir.Literal{tu.P("q", "?x", "?y"), tu.P("r", "?y")})
	require.True(t, rule.Safe())

	st := rule.Strategy
	require.Len(t, st.Sources, 2)

	// q binds both variables, so it carries no filters.
	assert.Equal(t, "q", st.Sources[0].Relation)
	assert.Equal(t, 2, st.Sources[0].Arity)
	assert.Empty(t, st.Sources[0].Filters)

	// r(?y) re-uses ?y, bound at q position 1.
	assert.Equal(t, "r", st.Sources[1].Relation)
	require.Len(t, st.Sources[1].Filters, 1)
	assert.Equal(t,
		ir.EqBound{Pos: 0, Ref: ir.Loc{Source: 0, Pos: 1}},
		st.Sources[1].Filters[0])

	// Head args point at q's columns.
	assert.Equal(t, []ir.ArgSource{
		ir.BoundArg{Ref: ir.Loc{Source: 0, Pos: 0}},
		ir.BoundArg{Ref: ir.Loc{Source: 0, Pos: 1}},
	}, st.HeadArgs)
}

// TestCompileStrategy_RepeatedVariableSameSource tests q(?x, ?x): the
// second occurrence filters against the first, within one source.
func TestCompileStrategy_RepeatedVariableSameSource(t *testing.T) {
	rule := CompileRule("p",
		tu.A("p", "?x"),
		[]ir.Literal{tu.P("q", "?x", "?x")})
	require.True(t, rule.Safe())

	require.Len(t, rule.Strategy.Sources[0].Filters, 1)
	assert.Equal(t,
		ir.EqBound{Pos: 1, Ref: ir.Loc{Source: 0, Pos: 0}},
		rule.Strategy.Sources[0].Filters[0])
}

// TestCompileStrategy_ConstantsBecomeEqConst tests constant arguments.
func TestCompileStrategy_ConstantsBecomeEqConst(t *testing.T) {
	rule := CompileRule("p",
		tu.A("p", "?x"),
		[]ir.Literal{tu.P("q", "?x", "alice", 7)})
	require.True(t, rule.Safe())

	assert.Equal(t, []ir.Filter{
		ir.EqConst{Pos: 1, Value: ir.String("alice")},
		ir.EqConst{Pos: 2, Value: ir.Int(7)},
	}, rule.Strategy.Sources[0].Filters)
}

// TestCompileStrategy_NegationAttachesToLatestSource tests that a negation
// referencing several sources attaches to the highest-indexed one.
func TestCompileStrategy_NegationAttachesToLatestSource(t *testing.T) {
	// p(?x, ?y) :- q(?x), r(?y), !s(?x, ?y).
	rule := CompileRule("p",
		tu.A("p", "?x", "?y"),
		[]ir.Literal{tu.P("q", "?x"), tu.P("r", "?y"), tu.N("s", "?x", "?y")})
	require.True(t, rule.Safe())

	st := rule.Strategy
	assert.Empty(t, st.Sources[0].Filters)
	require.Len(t, st.Sources[1].Filters, 1)

	neg, ok := st.Sources[1].Filters[0].(ir.NegCheck)
	require.True(t, ok)
	assert.Equal(t, "s", neg.Relation)
	assert.Equal(t, []ir.ArgSource{
		ir.BoundArg{Ref: ir.Loc{Source: 0, Pos: 0}},
		ir.BoundArg{Ref: ir.Loc{Source: 1, Pos: 0}},
	}, neg.Args)
}

// TestCompileStrategy_NegationBeforeBindingSource tests a negation written
// before the positive literal that binds its variable: it still resolves,
// attached to the later source.
func TestCompileStrategy_NegationBeforeBindingSource(t *testing.T) {
	// p(?x) :- !s(?x), q(?x).
	rule := CompileRule("p",
		tu.A("p", "?x"),
		[]ir.Literal{tu.N("s", "?x"), tu.P("q", "?x")})
	require.True(t, rule.Safe())

	require.Len(t, rule.Strategy.Sources, 1)
	require.Len(t, rule.Strategy.Sources[0].Filters, 1)
	_, ok := rule.Strategy.Sources[0].Filters[0].(ir.NegCheck)
	assert.True(t, ok)
}

// TestCompileStrategy_GroundNegation tests that an all-constant negation
// lands in GroundNegations instead of a source filter list.
func TestCompileStrategy_GroundNegation(t *testing.T) {
	rule := CompileRule("p",
		tu.A("p", "?x"),
		[]ir.Literal{tu.P("q", "?x"), tu.N("halted", "system")})
	require.True(t, rule.Safe())

	st := rule.Strategy
	assert.Empty(t, st.Sources[0].Filters)
	require.Len(t, st.GroundNegations, 1)
	assert.Equal(t, "halted", st.GroundNegations[0].Relation)
	assert.Equal(t,
		[]ir.ArgSource{ir.ConstArg{Value: ir.String("system")}},
		st.GroundNegations[0].Args)
}

// TestCompileStrategy_ConstantHeadArg tests head constants.
func TestCompileStrategy_ConstantHeadArg(t *testing.T) {
	rule := CompileRule("p",
		tu.A("p", "?x", "fixed"),
		[]ir.Literal{tu.P("q", "?x")})
	require.True(t, rule.Safe())

	assert.Equal(t, []ir.ArgSource{
		ir.BoundArg{Ref: ir.Loc{Source: 0, Pos: 0}},
		ir.ConstArg{Value: ir.String("fixed")},
	}, rule.Strategy.HeadArgs)
}

// TestCompileStrategy_SourceOrderIsBodyOrder tests that sources keep the
// original body order - source order is authoritative, never optimized.
func TestCompileStrategy_SourceOrderIsBodyOrder(t *testing.T) {
	rule := CompileRule("p",
		tu.A("p", "?x"),
		[]ir.Literal{tu.P("big", "?x"), tu.P("small", "?x")})
	require.True(t, rule.Safe())

	assert.Equal(t, "big", rule.Strategy.Sources[0].Relation)
	assert.Equal(t, "small", rule.Strategy.Sources[1].Relation)
}
