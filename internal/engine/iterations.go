package engine

import (
	"fmt"
)

// iterGuard counts evaluation passes within one component and enforces a
// maximum iteration limit.
//
// Each component gets a fresh guard. The guard is checked at the top of
// every pass, before any rule runs.
//
// Fixpoint evaluation terminates on its own: tuples are deduplicated and
// the universe of constants is fixed by the input, so every component
// converges. The cap exists to fail loudly if that reasoning is ever
// broken by a bug rather than spin forever.
type iterGuard struct {
	maxIterations int // maximum allowed passes for this component
	current       int // current pass count
}

func newIterGuard(maxIterations int) *iterGuard {
	return &iterGuard{maxIterations: maxIterations}
}

// check increments the pass counter and validates against the limit.
// Returns IterationLimitError if the cap is exceeded.
func (g *iterGuard) check(component int) error {
	g.current++
	if g.current > g.maxIterations {
		return &IterationLimitError{
			Component:  component,
			Iterations: g.current,
			Limit:      g.maxIterations,
		}
	}
	return nil
}

// IterationLimitError is returned when a component exceeds the maximum
// iteration limit.
//
// This error aborts the whole computation - there is no partial-result
// contract, so a caller must discard everything and treat the input as
// suspect.
type IterationLimitError struct {
	Component  int // index of the component that failed to converge
	Iterations int // number of passes taken
	Limit      int // maximum allowed passes
}

// Error implements the error interface.
func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("component %d exceeded max iterations: %d passes > %d limit",
		e.Component, e.Iterations, e.Limit)
}
