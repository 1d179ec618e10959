package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/ir"
	tu "github.com/roach88/strata/internal/testutil"
)

func mkRow(vals ...any) *Derived {
	tup := tu.T(vals...)
	return &Derived{Tuple: tup, Key: ir.MustTupleKey(tup)}
}

// TestTable_PassStages tests row movement through added, delta, and
// stable across promotes, and the region views over each stage.
func TestTable_PassStages(t *testing.T) {
	tbl := newTable("r")

	base := mkRow("base")
	base.Base = true
	tbl.loadBase(base)
	assert.Equal(t, []*Derived{base}, tbl.rowsIn(regionOld))
	assert.True(t, tbl.contains(base.Key))

	fresh := mkRow("fresh")
	tbl.insert(fresh)
	// Mid-pass: the snapshot does not see the new row yet.
	assert.False(t, tbl.contains(fresh.Key))
	assert.Same(t, fresh, tbl.lookup(fresh.Key))
	assert.Empty(t, tbl.rowsIn(regionDelta))

	require.Equal(t, 1, tbl.promote())
	assert.True(t, tbl.contains(fresh.Key))
	assert.Equal(t, []*Derived{fresh}, tbl.rowsIn(regionDelta))
	assert.Equal(t, []*Derived{base}, tbl.rowsIn(regionOld))
	assert.Equal(t, []*Derived{base, fresh}, tbl.rowsIn(regionAll))

	// A quiet pass drains the delta into stable.
	require.Equal(t, 0, tbl.promote())
	assert.Empty(t, tbl.rowsIn(regionDelta))
	assert.Equal(t, []*Derived{base, fresh}, tbl.rows())
}

// TestTable_LoadBaseDeduplicates tests that duplicate input keys collapse
// onto the first row.
func TestTable_LoadBaseDeduplicates(t *testing.T) {
	tbl := newTable("r")
	tbl.loadBase(mkRow(1))
	tbl.loadBase(mkRow(1))
	tbl.loadBase(mkRow(2))
	assert.Len(t, tbl.rows(), 2)
}

// TestDerived_AddDeductionDeduplicates tests hash-based provenance dedup
// with insertion order preserved.
func TestDerived_AddDeductionDeduplicates(t *testing.T) {
	f := mkRow("x")
	first := Deduction{RuleID: "a", Hash: "h1", Seq: 1}
	second := Deduction{RuleID: "b", Hash: "h2", Seq: 2}

	assert.True(t, f.addDeduction(first))
	assert.True(t, f.addDeduction(second))
	assert.False(t, f.addDeduction(Deduction{RuleID: "a", Hash: "h1", Seq: 3}))

	require.Len(t, f.Deductions, 2)
	assert.Equal(t, "a", f.Deductions[0].RuleID)
	assert.Equal(t, "b", f.Deductions[1].RuleID)
}
