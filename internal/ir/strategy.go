package ir

// Loc is a binding location: the position of a variable's first (and
// authoritative) occurrence inside a specific data source.
type Loc struct {
	Source int `json:"source"` // index into Strategy.Sources
	Pos    int `json:"pos"`    // argument position within that source
}

// ArgSource is a sealed interface resolving one argument to either a
// literal value or a pointer into a source's column.
// Only ConstArg and BoundArg implement it.
type ArgSource interface {
	argSource() // Sealed - only these types implement it
}

// ConstArg is an argument fixed to a literal value.
type ConstArg struct {
	Value Value
}

func (ConstArg) argSource() {}

// BoundArg is an argument resolved from a binding location.
type BoundArg struct {
	Ref Loc
}

func (BoundArg) argSource() {}

// Filter is a sealed interface over the positional checks a data source
// applies while its tuples are enumerated.
// Only EqBound, EqConst, and NegCheck implement it.
type Filter interface {
	filter() // Sealed - only these types implement it
}

// EqBound requires this source's element at Pos to equal the value already
// bound at an earlier (or this) source's binding location. The first
// occurrence of a shared variable wins as the binding site; every later
// occurrence becomes one of these.
//
// INVARIANT: Ref.Source never exceeds the index of the source carrying the
// filter - a forward reference would require unbound lookahead and
// indicates a compiler bug.
type EqBound struct {
	Pos int `json:"pos"`
	Ref Loc `json:"ref"`
}

func (EqBound) filter() {}

// EqConst requires this source's element at Pos to equal a literal value.
type EqConst struct {
	Pos   int   `json:"pos"`
	Value Value `json:"value"`
}

func (EqConst) filter() {}

// NegCheck requires that no tuple exists in Relation matching the resolved
// argument list. It is attached to the source with the highest index among
// all referenced binding locations, so it runs as late as possible but as
// early as correctness permits. Failing the check kills the whole candidate
// combination.
type NegCheck struct {
	Relation string      `json:"relation"`
	Args     []ArgSource `json:"args"`
}

func (NegCheck) filter() {}

// DataSource is one relation scan in a compiled strategy: the relation
// to enumerate plus the filters applied to each candidate tuple.
// Sources appear in original body order - source order is authoritative,
// there is no join-order optimization.
type DataSource struct {
	Relation string   `json:"relation"`
	Arity    int      `json:"arity"`
	Filters  []Filter `json:"filters,omitempty"`
}

// Strategy is the compiled evaluation plan for a safe rule.
type Strategy struct {
	// Sources holds one relation scan per positive body literal,
	// in original body order.
	Sources []DataSource `json:"sources"`

	// HeadArgs resolves each head argument to a literal value or a
	// binding location established by the body scan.
	HeadArgs []ArgSource `json:"head_args"`

	// GroundNegations holds negated literals whose arguments are all
	// constants. They are checkable before any source is scanned and are
	// re-checked once per evaluation pass - a ground negation's truth can
	// flip between passes as negated relations gain tuples.
	GroundNegations []NegCheck `json:"ground_negations,omitempty"`
}
