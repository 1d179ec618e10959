package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTupleKey_StableAcrossCalls tests that identical tuples key identically.
func TestTupleKey_StableAcrossCalls(t *testing.T) {
	a, err := TupleKey(MustTupleOf("alice", 1))
	require.NoError(t, err)
	b, err := TupleKey(MustTupleOf("alice", 1))
	require.NoError(t, err)
	assert.Equal(t, a, b, "key must be a pure function of tuple contents")
	assert.Len(t, a, 64, "hex-encoded SHA-256")
}

// TestTupleKey_ValueSensitive tests that different contents key differently.
func TestTupleKey_ValueSensitive(t *testing.T) {
	a := MustTupleKey(MustTupleOf("alice", 1))
	b := MustTupleKey(MustTupleOf("alice", 2))
	c := MustTupleKey(MustTupleOf(1, "alice"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c, "argument order is part of identity")
}

// TestTupleKey_TypeSensitive tests that Int(1) and String("1") key differently.
func TestTupleKey_TypeSensitive(t *testing.T) {
	assert.NotEqual(t,
		MustTupleKey(MustTupleOf(1)),
		MustTupleKey(MustTupleOf("1")))
}

// TestDeductionHash_SourceOrderSensitive tests ground-rule identity.
func TestDeductionHash_SourceOrderSensitive(t *testing.T) {
	k1 := MustTupleKey(MustTupleOf("a"))
	k2 := MustTupleKey(MustTupleOf("b"))

	h1 := MustDeductionHash("r1", []string{k1, k2})
	h2 := MustDeductionHash("r1", []string{k2, k1})
	h3 := MustDeductionHash("r2", []string{k1, k2})

	assert.NotEqual(t, h1, h2, "source order is part of the instantiation")
	assert.NotEqual(t, h1, h3, "rule identity is part of the instantiation")
	assert.Equal(t, h1, MustDeductionHash("r1", []string{k1, k2}))
}

// TestDomainSeparation tests that the same payload hashes differently
// under different domains.
func TestDomainSeparation(t *testing.T) {
	payload := []byte(`["x"]`)
	assert.NotEqual(t,
		hashWithDomain(DomainTuple, payload),
		hashWithDomain(DomainDeduction, payload))
}
