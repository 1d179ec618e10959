package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/strata/internal/ir"
)

// marshalTuple converts a tuple to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so stored text compares by value.
func marshalTuple(t ir.Tuple) (string, error) {
	data, err := ir.MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("marshal tuple: %w", err)
	}
	return string(data), nil
}

// unmarshalTuple parses canonical JSON TEXT back to a tuple.
// Decodes via json.Number to avoid float64 precision loss for integers
// beyond 2^53; fractional numbers are rejected, matching the tuple value
// model.
func unmarshalTuple(data string) (ir.Tuple, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal tuple: %w", err)
	}

	t := make(ir.Tuple, len(raw))
	for i, v := range raw {
		switch val := v.(type) {
		case json.Number:
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal tuple element %d: not an integer: %q", i, val.String())
			}
			t[i] = ir.Int(n)
		case string:
			t[i] = ir.String(val)
		case bool:
			t[i] = ir.Bool(val)
		default:
			return nil, fmt.Errorf("unmarshal tuple element %d: unsupported type %T", i, v)
		}
	}
	return t, nil
}
