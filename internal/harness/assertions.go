package harness

import (
	"fmt"

	"github.com/roach88/strata/internal/engine"
	"github.com/roach88/strata/internal/ir"
)

// Assertion is one expectation on an evaluated scenario.
type Assertion struct {
	// Type is one of "contains", "absent", or "count".
	Type string `yaml:"type"`

	// Relation names the relation under test.
	Relation string `yaml:"relation"`

	// Tuple is the tuple to look for (contains, absent).
	Tuple []any `yaml:"tuple,omitempty"`

	// Count is the expected tuple count (count).
	Count int `yaml:"count,omitempty"`
}

// CheckAssertions verifies every assertion of a scenario against an
// evaluated result. The first failing assertion is returned as an error.
func CheckAssertions(s *Scenario, res *engine.Result) error {
	for i, a := range s.Assertions {
		if err := checkAssertion(a, res); err != nil {
			return fmt.Errorf("scenario %s: assertions[%d]: %w", s.Name, i, err)
		}
	}
	return nil
}

func checkAssertion(a Assertion, res *engine.Result) error {
	facts := res.Relation(a.Relation)

	switch a.Type {
	case "contains":
		t, err := ir.TupleOf(a.Tuple...)
		if err != nil {
			return err
		}
		if facts == nil || !facts.Contains(t) {
			return fmt.Errorf("expected %s%s, not found", a.Relation, t)
		}
	case "absent":
		t, err := ir.TupleOf(a.Tuple...)
		if err != nil {
			return err
		}
		if facts != nil && facts.Contains(t) {
			return fmt.Errorf("unexpected %s%s present", a.Relation, t)
		}
	case "count":
		got := 0
		if facts != nil {
			got = facts.Len()
		}
		if got != a.Count {
			return fmt.Errorf("relation %s has %d tuples, want %d", a.Relation, got, a.Count)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
