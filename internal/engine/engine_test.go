package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/ir"
	tu "github.com/roach88/strata/internal/testutil"
)

func newEngine(rules []ir.Rule, opts ...Option) *Engine {
	return New(compiler.AnalyzeRuleGraph(rules), opts...)
}

func tuples(r *RelationFacts) []ir.Tuple {
	out := make([]ir.Tuple, 0, r.Len())
	for _, f := range r.Facts() {
		out = append(out, f.Tuple)
	}
	return out
}

// TestComputeDeductions_StrategyCorrectness tests the basic join: for
// p(?x,?y) :- q(?x,?y), r(?y) over q = {(1,2),(3,4)}, r = {(2),(5)},
// the only surviving combination is x=1, y=2.
func TestComputeDeductions_StrategyCorrectness(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("p1", tu.A("p", "?x", "?y"),
			[]ir.Literal{tu.P("q", "?x", "?y"), tu.P("r", "?y")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"q": tu.Tuples([]any{1, 2}, []any{3, 4}),
		"r": tu.Tuples([]any{2}, []any{5}),
	})
	require.NoError(t, err)

	p := res.Relation("p")
	require.NotNil(t, p)
	assert.Equal(t, tu.Tuples([]any{1, 2}), tuples(p))
}

// TestComputeDeductions_Negation tests p(?x) :- q(?x), !r(?x) over
// q = {(1),(2)}, r = {(1)}: exactly p(2) is derived.
func TestComputeDeductions_Negation(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("p1", tu.A("p", "?x"),
			[]ir.Literal{tu.P("q", "?x"), tu.N("r", "?x")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"q": tu.Tuples([]any{1}, []any{2}),
		"r": tu.Tuples([]any{1}),
	})
	require.NoError(t, err)

	assert.Equal(t, tu.Tuples([]any{2}), tuples(res.Relation("p")))
}

// TestComputeDeductions_TransitiveClosure tests recursion to fixpoint over
// a chain, which needs multiple semi-naive passes.
func TestComputeDeductions_TransitiveClosure(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("step", tu.A("reach", "?x", "?y"),
			[]ir.Literal{tu.P("edge", "?x", "?y")}),
		compiler.CompileRule("trans", tu.A("reach", "?x", "?z"),
			[]ir.Literal{tu.P("reach", "?x", "?y"), tu.P("edge", "?y", "?z")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"edge": tu.Tuples([]any{1, 2}, []any{2, 3}, []any{3, 4}),
	})
	require.NoError(t, err)

	reach := res.Relation("reach")
	assert.Equal(t, 6, reach.Len())
	for _, pair := range [][]any{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}} {
		assert.True(t, reach.Contains(tu.T(pair...)), "missing reach%v", pair)
	}
}

// TestComputeDeductions_ProvenanceCompleteness tests that a tuple derivable
// via two distinct ground instantiations carries both deductions.
func TestComputeDeductions_ProvenanceCompleteness(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("fromA", tu.A("p", "?x"), []ir.Literal{tu.P("a", "?x")}),
		compiler.CompileRule("fromB", tu.A("p", "?x"), []ir.Literal{tu.P("b", "?x")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"a": tu.Tuples([]any{1}),
		"b": tu.Tuples([]any{1}),
	})
	require.NoError(t, err)

	p := res.Relation("p")
	require.Equal(t, 1, p.Len())
	f := p.Facts()[0]
	require.Len(t, f.Deductions, 2)
	// Discovery order: rules run in declaration order.
	assert.Equal(t, "fromA", f.Deductions[0].RuleID)
	assert.Equal(t, "fromB", f.Deductions[1].RuleID)
	assert.NotEqual(t, f.Deductions[0].Hash, f.Deductions[1].Hash)
	assert.Less(t, f.Deductions[0].Seq, f.Deductions[1].Seq)
}

// TestComputeDeductions_DeductionSources tests the recorded provenance
// trail: source refs in body order with canonical keys.
func TestComputeDeductions_DeductionSources(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("gp", tu.A("grandparent", "?x", "?z"),
			[]ir.Literal{tu.P("parent", "?x", "?y"), tu.P("parent", "?y", "?z")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"parent": tu.Tuples([]any{"ann", "bob"}, []any{"bob", "cal"}),
	})
	require.NoError(t, err)

	gp := res.Relation("grandparent")
	require.Equal(t, 1, gp.Len())
	f := gp.Facts()[0]
	assert.Equal(t, tu.T("ann", "cal"), f.Tuple)
	require.Len(t, f.Deductions, 1)

	ded := f.Deductions[0]
	require.Len(t, ded.Sources, 2)
	assert.Equal(t, "parent", ded.Sources[0].Relation)
	assert.Equal(t, tu.T("ann", "bob"), ded.Sources[0].Tuple)
	assert.Equal(t, tu.T("bob", "cal"), ded.Sources[1].Tuple)
	assert.Equal(t, ir.MustTupleKey(tu.T("ann", "bob")), ded.Sources[0].Key)
	assert.Equal(t, ir.MustDeductionHash("gp", []string{ded.Sources[0].Key, ded.Sources[1].Key}), ded.Hash)
}

// TestComputeDeductions_FixpointIdempotence tests that two runs over the
// same static input produce identical tuples, keys, and deduction sets.
func TestComputeDeductions_FixpointIdempotence(t *testing.T) {
	rules := []ir.Rule{
		compiler.CompileRule("step", tu.A("reach", "?x", "?y"),
			[]ir.Literal{tu.P("edge", "?x", "?y")}),
		compiler.CompileRule("trans", tu.A("reach", "?x", "?z"),
			[]ir.Literal{tu.P("reach", "?x", "?y"), tu.P("edge", "?y", "?z")}),
		compiler.CompileRule("isolated", tu.A("isolated", "?x"),
			[]ir.Literal{tu.P("node", "?x"), tu.N("reach", "?x", "?x")}),
	}
	base := map[string][]ir.Tuple{
		"edge": tu.Tuples([]any{1, 2}, []any{2, 1}, []any{3, 3}),
		"node": tu.Tuples([]any{1}, []any{2}, []any{4}),
	}

	first, err := newEngine(rules).ComputeDeductions(base)
	require.NoError(t, err)
	second, err := newEngine(rules).ComputeDeductions(base)
	require.NoError(t, err)

	require.Equal(t, first.Relations(), second.Relations())
	for _, name := range first.Relations() {
		a, b := first.Relation(name).Facts(), second.Relation(name).Facts()
		require.Len(t, b, len(a), name)
		for i := range a {
			assert.Equal(t, a[i].Key, b[i].Key)
			require.Len(t, b[i].Deductions, len(a[i].Deductions))
			for j := range a[i].Deductions {
				assert.Equal(t, a[i].Deductions[j].Hash, b[i].Deductions[j].Hash)
				assert.Equal(t, a[i].Deductions[j].Seq, b[i].Deductions[j].Seq)
			}
		}
	}
}

// TestComputeDeductions_NegationSeesFinalizedStratum tests that a rule
// negating a derived relation only ever sees that relation fully
// finalized: hidden is completely computed before visible consults it.
func TestComputeDeductions_NegationSeesFinalizedStratum(t *testing.T) {
	e := newEngine([]ir.Rule{
		// visible declared first; evaluation order comes from the graph,
		// not declaration order of components.
		compiler.CompileRule("vis", tu.A("visible", "?x"),
			[]ir.Literal{tu.P("raw", "?x"), tu.N("hidden", "?x")}),
		compiler.CompileRule("hide", tu.A("hidden", "?x"),
			[]ir.Literal{tu.P("raw", "?x"), tu.P("flag", "?x")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"raw":  tu.Tuples([]any{1}, []any{2}),
		"flag": tu.Tuples([]any{1}),
	})
	require.NoError(t, err)

	assert.Equal(t, tu.Tuples([]any{2}), tuples(res.Relation("visible")))
}

// TestComputeDeductions_UnsafeRuleSkipped tests that a rule without a
// strategy contributes nothing and raises nothing.
func TestComputeDeductions_UnsafeRuleSkipped(t *testing.T) {
	unsafe := compiler.CompileRule("bad", tu.A("p", "?x", "?y"),
		[]ir.Literal{tu.P("q", "?x")})
	require.False(t, unsafe.Safe())

	res, err := newEngine([]ir.Rule{unsafe}).ComputeDeductions(map[string][]ir.Tuple{
		"q": tu.Tuples([]any{1}),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Relation("p").Len())
}

// TestComputeDeductions_Fact tests a zero-body rule: derived once, with a
// sourceless deduction.
func TestComputeDeductions_Fact(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("axiom", tu.A("p", "origin", 0), nil),
	})

	res, err := e.ComputeDeductions(nil)
	require.NoError(t, err)

	p := res.Relation("p")
	require.Equal(t, 1, p.Len())
	f := p.Facts()[0]
	assert.Equal(t, tu.T("origin", 0), f.Tuple)
	require.Len(t, f.Deductions, 1)
	assert.Empty(t, f.Deductions[0].Sources)
}

// TestComputeDeductions_GroundNegation tests an all-constant negated
// literal: it gates the rule as a whole.
func TestComputeDeductions_GroundNegation(t *testing.T) {
	rules := []ir.Rule{
		compiler.CompileRule("gated", tu.A("p", "?x"),
			[]ir.Literal{tu.P("q", "?x"), tu.N("kill", "switch")}),
	}

	res, err := newEngine(rules).ComputeDeductions(map[string][]ir.Tuple{
		"q": tu.Tuples([]any{1}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Relation("p").Len())

	res, err = newEngine(rules).ComputeDeductions(map[string][]ir.Tuple{
		"q":    tu.Tuples([]any{1}),
		"kill": tu.Tuples([]any{"switch"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Relation("p").Len())
}

// TestComputeDeductions_BaseTupleGainsDeduction tests merge semantics: a
// derivation landing on an existing base tuple appends provenance, the
// tuple stays marked as base.
func TestComputeDeductions_BaseTupleGainsDeduction(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("copy", tu.A("s", "?x"), []ir.Literal{tu.P("q", "?x")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"q": tu.Tuples([]any{1}),
		"s": tu.Tuples([]any{1}),
	})
	require.NoError(t, err)

	s := res.Relation("s")
	require.Equal(t, 1, s.Len())
	f := s.Facts()[0]
	assert.True(t, f.Base)
	require.Len(t, f.Deductions, 1)
	assert.Equal(t, "copy", f.Deductions[0].RuleID)
}

// TestComputeDeductions_DuplicateBaseFactsCollapse tests key-based input
// deduplication.
func TestComputeDeductions_DuplicateBaseFactsCollapse(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("copy", tu.A("p", "?x"), []ir.Literal{tu.P("q", "?x")}),
	})

	res, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"q": tu.Tuples([]any{1}, []any{1}, []any{2}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Relation("q").Len())
	assert.Equal(t, 2, res.Relation("p").Len())
}

// TestComputeDeductions_UnknownRelation tests the error path for base
// facts no rule could ever read.
func TestComputeDeductions_UnknownRelation(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("copy", tu.A("p", "?x"), []ir.Literal{tu.P("q", "?x")}),
	})

	_, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"typo": tu.Tuples([]any{1}),
	})
	require.Error(t, err)
	assert.True(t, IsUnknownRelationError(err))

	var ee *EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "typo", ee.Relation)
}

// TestComputeDeductions_IterationLimit tests the convergence cap.
func TestComputeDeductions_IterationLimit(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("step", tu.A("reach", "?x", "?y"),
			[]ir.Literal{tu.P("edge", "?x", "?y")}),
		compiler.CompileRule("trans", tu.A("reach", "?x", "?z"),
			[]ir.Literal{tu.P("reach", "?x", "?y"), tu.P("edge", "?y", "?z")}),
	}, WithMaxIterations(1))

	_, err := e.ComputeDeductions(map[string][]ir.Tuple{
		"edge": tu.Tuples([]any{1, 2}, []any{2, 3}),
	})
	require.Error(t, err)
	assert.True(t, IsIterationLimitError(err))

	var le *IterationLimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 1, le.Limit)
}

// TestComputeDeductions_RelationOrder tests that the result lists
// relations in declaration (arena) order.
func TestComputeDeductions_RelationOrder(t *testing.T) {
	e := newEngine([]ir.Rule{
		compiler.CompileRule("z", tu.A("zeta", "?x"), []ir.Literal{tu.P("mid", "?x")}),
		compiler.CompileRule("a", tu.A("alpha", "?x"), []ir.Literal{tu.P("zeta", "?x")}),
	})

	res, err := e.ComputeDeductions(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "mid", "alpha"}, res.Relations())
}

// TestComputeDeductions_SharedClock tests seq continuation across calls
// via WithClock.
func TestComputeDeductions_SharedClock(t *testing.T) {
	rules := []ir.Rule{
		compiler.CompileRule("copy", tu.A("p", "?x"), []ir.Literal{tu.P("q", "?x")}),
	}
	clock := NewClock()
	base := map[string][]ir.Tuple{"q": tu.Tuples([]any{1})}

	first, err := New(compiler.AnalyzeRuleGraph(rules), WithClock(clock)).ComputeDeductions(base)
	require.NoError(t, err)
	second, err := New(compiler.AnalyzeRuleGraph(rules), WithClock(clock)).ComputeDeductions(base)
	require.NoError(t, err)

	s1 := first.Relation("p").Facts()[0].Deductions[0].Seq
	s2 := second.Relation("p").Facts()[0].Deductions[0].Seq
	assert.Less(t, s1, s2)
}
