package cli

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/strata/internal/ir"
)

// LoadFacts reads base facts from a YAML file mapping relation names to
// tuple rows:
//
//	parent:
//	  - [ann, bob]
//	  - [bob, cal]
//	age:
//	  - [ann, 61]
//
// YAML scalars map onto the tuple value model directly: strings,
// integers, booleans. Floats and nulls are rejected.
func LoadFacts(path string) (map[string][]ir.Tuple, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("facts file: %v", err)}
	}

	var raw map[string][][]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeBadFacts, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}

	facts := make(map[string][]ir.Tuple, len(raw))
	for relation, rows := range raw {
		for i, row := range rows {
			t, err := ir.TupleOf(row...)
			if err != nil {
				return nil, &LoadError{
					Code:    ErrCodeBadFacts,
					Path:    fmt.Sprintf("%s[%d]", relation, i),
					Message: err.Error(),
				}
			}
			facts[relation] = append(facts[relation], t)
		}
	}
	return facts, nil
}

// MergeFacts combines fact sets; later sets append after earlier ones.
// The engine deduplicates by tuple key, so overlap is harmless.
func MergeFacts(sets ...map[string][]ir.Tuple) map[string][]ir.Tuple {
	merged := make(map[string][]ir.Tuple)
	for _, set := range sets {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			merged[name] = append(merged[name], set[name]...)
		}
	}
	return merged
}
