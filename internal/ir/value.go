package ir

import (
	"fmt"
	"strings"
)

// Value is a sealed interface representing the primitive types a tuple
// element may carry. Only String, Int, and Bool implement it.
// NO floats - floats are forbidden (they break deterministic hashing).
type Value interface {
	value() // Sealed - only these types implement it
}

// String represents a string value.
type String string

func (String) value() {}

// Int represents an integer value. Always int64, never float64.
type Int int64

func (Int) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Tuple is an ordered list of primitive values. Tuples are compared by
// value, never by reference - use TupleKey for identity.
type Tuple []Value

// Equal reports whether two tuples have the same length and elementwise
// equal values.
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders a tuple for diagnostics, e.g. ("alice", 3, true).
func (t Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatValue(v))
	}
	b.WriteByte(')')
	return b.String()
}

// FormatValue renders a single value for diagnostics.
// Strings are quoted so ("1") and (1) remain distinguishable.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case String:
		return fmt.Sprintf("%q", string(val))
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	default:
		return fmt.Sprintf("<invalid %T>", v)
	}
}

// ValueOf converts a Go primitive to a Value.
// Accepts string, bool, and the common integer widths. Floats are rejected.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(int64(val)), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in tuples: %v", val)
	case nil:
		return nil, fmt.Errorf("null is forbidden in tuples")
	default:
		return nil, fmt.Errorf("unsupported tuple value type: %T", v)
	}
}

// GoValue converts a Value back to its native Go representation
// (string, int64, or bool). Used at the JSON and SQL boundaries.
func GoValue(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

// TupleOf builds a Tuple from Go primitives, rejecting unsupported types.
func TupleOf(vals ...any) (Tuple, error) {
	t := make(Tuple, len(vals))
	for i, v := range vals {
		val, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}
		t[i] = val
	}
	return t, nil
}

// MustTupleOf is like TupleOf but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTupleOf(vals ...any) Tuple {
	t, err := TupleOf(vals...)
	if err != nil {
		panic(err)
	}
	return t
}
