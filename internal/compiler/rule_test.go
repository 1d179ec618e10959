package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/ir"
	tu "github.com/roach88/strata/internal/testutil"
)

// TestCompileRule_SafeRule tests that a fully bound rule gets a strategy.
func TestCompileRule_SafeRule(t *testing.T) {
	rule := CompileRule("gp",
		tu.A("grandparent", "?x", "?z"),
		[]ir.Literal{tu.P("parent", "?x", "?y"), tu.P("parent", "?y", "?z")})

	assert.Empty(t, rule.Unbound)
	require.True(t, rule.Safe())
	assert.Len(t, rule.Strategy.Sources, 2)
}

// TestCompileRule_UnboundHeadVariable tests that a head variable with no
// positive binding marks the rule unsafe.
func TestCompileRule_UnboundHeadVariable(t *testing.T) {
	rule := CompileRule("bad",
		tu.A("p", "?x", "?y"),
		[]ir.Literal{tu.P("q", "?x")})

	assert.Equal(t, []string{"y"}, rule.Unbound)
	assert.False(t, rule.Safe(), "unsafe rules get no strategy, permanently")
	assert.Nil(t, rule.Strategy)
}

// TestCompileRule_NegationOnlyVariable tests the classic unsafe shape:
// a variable occurring only in a negative literal.
func TestCompileRule_NegationOnlyVariable(t *testing.T) {
	rule := CompileRule("bad",
		tu.A("p", "?x"),
		[]ir.Literal{tu.P("q", "?x"), tu.N("r", "?z")})

	assert.Equal(t, []string{"z"}, rule.Unbound)
	assert.False(t, rule.Safe())
}

// TestCompileRule_NegationBoundByPositive tests that a negated variable
// bound elsewhere keeps the rule safe.
func TestCompileRule_NegationBoundByPositive(t *testing.T) {
	rule := CompileRule("ok",
		tu.A("p", "?x"),
		[]ir.Literal{tu.P("q", "?x"), tu.N("r", "?x")})

	assert.Empty(t, rule.Unbound)
	assert.True(t, rule.Safe())
}

// TestCompileRule_FactIsAlwaysSafe tests that a rule with an empty body
// (a fact) has no variables to bind and is safe.
func TestCompileRule_FactIsAlwaysSafe(t *testing.T) {
	rule := CompileRule("f", tu.A("root", "a"), nil)

	assert.Empty(t, rule.Unbound)
	require.True(t, rule.Safe())
	assert.Empty(t, rule.Strategy.Sources)
	assert.Equal(t, []ir.ArgSource{ir.ConstArg{Value: ir.String("a")}}, rule.Strategy.HeadArgs)
}

// TestCompileRule_UnboundSorted tests that multiple unbound variables come
// out sorted, for stable diagnostics.
func TestCompileRule_UnboundSorted(t *testing.T) {
	rule := CompileRule("bad",
		tu.A("p", "?z", "?a", "?m"),
		nil)
	assert.Equal(t, []string{"a", "m", "z"}, rule.Unbound)
}
