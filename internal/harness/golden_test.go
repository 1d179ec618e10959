package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_Ancestry(t *testing.T) {
	RunWithGolden(t, "testdata/scenarios/ancestry.yaml")
}

func TestGolden_Negation(t *testing.T) {
	RunWithGolden(t, "testdata/scenarios/negation.yaml")
}

func TestGolden_Reach(t *testing.T) {
	RunWithGolden(t, "testdata/scenarios/reach.yaml")
}

func TestSnapshot_Shape(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/ancestry.yaml")
	require.NoError(t, err)

	res, err := Run(s)
	require.NoError(t, err)

	snap, err := Snapshot(s.Name, res)
	require.NoError(t, err)

	// Relations appear sorted; base facts carry no deductions key.
	assert.Contains(t, string(snap), `"scenario_name":"ancestry"`)
	assert.Contains(t, string(snap), `{"base":true,"tuple":["ann","bob"]}`)
	assert.Contains(t, string(snap), `"rule":"gp"`)
	assert.NotContains(t, string(snap), `"seq"`)
}
