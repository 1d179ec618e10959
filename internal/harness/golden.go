package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strata/internal/engine"
	"github.com/roach88/strata/internal/ir"
)

// Snapshot renders a result as canonical JSON suitable for golden
// comparison. Relations are sorted by name; tuples and deductions keep
// discovery order. Clock sequence numbers are excluded so goldens stay
// stable across runs and can be written by hand.
func Snapshot(name string, res *engine.Result) ([]byte, error) {
	names := append([]string(nil), res.Relations()...)
	sort.Strings(names)

	relations := make([]any, 0, len(names))
	for _, rel := range names {
		facts := res.Relation(rel)
		tuples := make([]any, 0, facts.Len())
		for _, f := range facts.Facts() {
			entry := map[string]any{
				"tuple": f.Tuple,
			}
			if f.Base {
				entry["base"] = true
			}
			if len(f.Deductions) > 0 {
				entry["deductions"] = snapshotDeductions(f.Deductions)
			}
			tuples = append(tuples, entry)
		}
		relations = append(relations, map[string]any{
			"name":   rel,
			"tuples": tuples,
		})
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"relations":     relations,
	})
}

func snapshotDeductions(deds []engine.Deduction) []any {
	out := make([]any, 0, len(deds))
	for _, d := range deds {
		entry := map[string]any{
			"rule": d.RuleID,
		}
		if len(d.Sources) > 0 {
			sources := make([]any, 0, len(d.Sources))
			for _, src := range d.Sources {
				sources = append(sources, map[string]any{
					"relation": src.Relation,
					"tuple":    src.Tuple,
				})
			}
			entry["sources"] = sources
		}
		out = append(out, entry)
	}
	return out
}

// RunWithGolden evaluates a scenario file, checks its assertions, and
// compares the result snapshot against testdata/golden/<name>.golden.
func RunWithGolden(t *testing.T, scenarioPath string) {
	t.Helper()

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	res, err := Run(scenario)
	require.NoError(t, err)

	require.NoError(t, CheckAssertions(scenario, res))

	snap, err := Snapshot(scenario.Name, res)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snap)
}
