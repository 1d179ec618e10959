package engine

import (
	"log/slog"

	"github.com/roach88/strata/internal/compiler"
	"github.com/roach88/strata/internal/ir"
)

// DefaultMaxIterations is the per-component pass cap.
// Fixpoint evaluation converges on its own; the cap turns an engine bug
// into a loud error instead of an infinite loop.
const DefaultMaxIterations = 10000

// Engine evaluates an analyzed rule graph against base facts.
//
// An Engine is cheap to construct and carries no tuple state of its own -
// every ComputeDeductions call owns its tables for the duration of the
// call. The shared pieces (graph, clock) are read-only or append-only, so
// a single Engine may serve sequential evaluations.
type Engine struct {
	graph         *compiler.Graph
	maxIterations int
	logger        *slog.Logger
	clock         *Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations sets the per-component pass cap.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIterations = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the logical clock. Used when appending a run after
// previously exported deductions, so seq numbers continue rather than
// restart.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over an analyzed rule graph.
func New(graph *compiler.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:         graph,
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
		clock:         NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the analyzed rule graph the engine evaluates.
func (e *Engine) Graph() *compiler.Graph {
	return e.graph
}

// ComputeDeductions evaluates every component in topological order and
// returns the complete tuple tables with provenance.
//
// The call is synchronous and runs to completion - there is no
// cancellation and no partial result. Base facts may target any relation
// the graph mentions, including derived ones; a relation absent from the
// graph is an UNKNOWN_RELATION error since its tuples could never
// influence any rule.
//
// Rules without a strategy never evaluate and never error. Internal
// negation inside a recursive component is evaluated as written; callers
// that want to reject it consult the compiler's stratum warnings first.
func (e *Engine) ComputeDeductions(base map[string][]ir.Tuple) (*Result, error) {
	ev := newEvaluation(e)
	if err := ev.loadBase(base); err != nil {
		return nil, err
	}
	for ci := range e.graph.Components {
		if err := ev.runComponent(ci); err != nil {
			return nil, err
		}
	}
	res := ev.result()
	e.logger.Debug("evaluation complete",
		"relations", len(res.Relations()),
		"derived", res.DerivedCount(),
		"seq", e.clock.Current())
	return res, nil
}
