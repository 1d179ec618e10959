package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/strata/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyRelationName   = "E101" // relation name is required
	ErrInvalidRelationName = "E102" // relation name has invalid format
	ErrDuplicateRuleID     = "E103" // duplicate rule id
	ErrArityMismatch       = "E104" // relation used with conflicting arities
	ErrEmptyVariableName   = "E105" // variable with empty name
)

// ValidationError represents a structural rule-set validation error.
//
// Note the scope: these are shape problems a loader can produce (empty
// names, conflicting arities), not safety or stratification findings.
// Unsafe rules are a data state (Rule.Safe() == false) and unstratified
// negation is a StratumWarning - neither is a ValidationError.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// relationNamePattern matches identifier-style relation names.
var relationNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateRules validates a rule set structurally.
// Returns all errors found (does not fail-fast).
func ValidateRules(rules []ir.Rule) []ValidationError {
	var errs []ValidationError

	ruleIDs := make(map[string]bool)
	arity := make(map[string]int)
	aritySeenAt := make(map[string]string)

	checkAtom := func(field string, atom ir.Atom) {
		if strings.TrimSpace(atom.Relation) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "relation name is required and must be non-empty",
				Code:    ErrEmptyRelationName,
			})
			return
		}
		if !relationNamePattern.MatchString(atom.Relation) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid relation name %q, expected an identifier", atom.Relation),
				Code:    ErrInvalidRelationName,
			})
		}
		if prev, ok := arity[atom.Relation]; ok {
			if prev != len(atom.Args) {
				errs = append(errs, ValidationError{
					Field: field,
					Message: fmt.Sprintf("relation %q used with arity %d here but arity %d at %s",
						atom.Relation, len(atom.Args), prev, aritySeenAt[atom.Relation]),
					Code: ErrArityMismatch,
				})
			}
		} else {
			arity[atom.Relation] = len(atom.Args)
			aritySeenAt[atom.Relation] = field
		}
		for j, arg := range atom.Args {
			if v, ok := arg.(ir.Variable); ok && strings.TrimSpace(v.Name) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.args[%d]", field, j),
					Message: "variable name must be non-empty",
					Code:    ErrEmptyVariableName,
				})
			}
		}
	}

	for i, rule := range rules {
		if rule.ID != "" {
			if ruleIDs[rule.ID] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].id", i),
					Message: fmt.Sprintf("duplicate rule id: %q", rule.ID),
					Code:    ErrDuplicateRuleID,
				})
			}
			ruleIDs[rule.ID] = true
		}

		checkAtom(fmt.Sprintf("rules[%d].head", i), rule.Head)
		for li, lit := range rule.Body {
			checkAtom(fmt.Sprintf("rules[%d].body[%d]", i, li), lit.Atom)
		}
	}

	return errs
}
