package ir

import "strings"

// Term is a sealed interface over rule-body arguments.
// Only Constant and Variable implement it.
type Term interface {
	term() // Sealed - only these types implement it
}

// Constant is a term matched by value.
type Constant struct {
	Value Value
}

func (Constant) term() {}

// Variable is a term matched by position-consistent binding.
// The first occurrence in a positive body literal binds it; every later
// occurrence must equal the bound value.
type Variable struct {
	Name string
}

func (Variable) term() {}

// FormatTerm renders a term for diagnostics. Variables carry a leading
// question mark, matching the loader syntax: ?x, "alice", 3.
func FormatTerm(t Term) string {
	switch term := t.(type) {
	case Variable:
		return "?" + term.Name
	case Constant:
		return FormatValue(term.Value)
	default:
		return "<invalid term>"
	}
}

// Atom is a relation name plus an ordered argument list. It identifies
// which relation a literal reads (body) or writes (head).
type Atom struct {
	Relation string `json:"relation"`
	Args     []Term `json:"args"`
}

// String renders an atom, e.g. parent(?x, "alice").
func (a Atom) String() string {
	var b strings.Builder
	b.WriteString(a.Relation)
	b.WriteByte('(')
	for i, arg := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatTerm(arg))
	}
	b.WriteByte(')')
	return b.String()
}

// Variables returns the variable names occurring in the atom, in
// argument order, with duplicates preserved.
func (a Atom) Variables() []string {
	var names []string
	for _, arg := range a.Args {
		if v, ok := arg.(Variable); ok {
			names = append(names, v.Name)
		}
	}
	return names
}

// Literal is a signed atom. Positive literals are data sources (their
// relation's tuples are enumerated); negative literals are non-membership
// tests against an already-finalized relation.
type Literal struct {
	Atom    Atom `json:"atom"`
	Negated bool `json:"negated,omitempty"`
}

// String renders a literal, e.g. !edge(?x, ?y).
func (l Literal) String() string {
	if l.Negated {
		return "!" + l.Atom.String()
	}
	return l.Atom.String()
}

// Pos builds a positive literal.
func Pos(a Atom) Literal { return Literal{Atom: a} }

// Neg builds a negative literal.
func Neg(a Atom) Literal { return Literal{Atom: a, Negated: true} }
