package engine

import (
	"errors"
	"fmt"
)

// EvalError represents an input error detected while preparing an
// evaluation, such as base facts targeting a relation no rule mentions.
// A component failing to converge within the pass cap is reported as
// IterationLimitError instead.
//
// Note what is absent: unsafe rules and unstratified negation are never
// EvalErrors. The first is a data state (Rule.Safe() == false, skipped
// silently) and the second is a compiler diagnostic the caller inspects
// before evaluating.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Relation identifies the affected relation, if any.
	Relation string

	// Component identifies the affected component index (for limit errors).
	Component int
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

// ErrCodeUnknownRelation indicates base facts reference a relation
// absent from the rule graph.
const ErrCodeUnknownRelation EvalErrorCode = "UNKNOWN_RELATION"

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Relation != "" {
		return fmt.Sprintf("%s: %s (relation=%s)", e.Code, e.Message, e.Relation)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownRelationError returns true if the error is an unknown-relation
// error. Uses errors.As to handle wrapped errors.
func IsUnknownRelationError(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUnknownRelation
	}
	return false
}

// IsIterationLimitError returns true if the error is an
// IterationLimitError. Uses errors.As to handle wrapped errors.
func IsIterationLimitError(err error) bool {
	var le *IterationLimitError
	return errors.As(err, &le)
}

// NewUnknownRelationError creates an EvalError for an unknown base relation.
func NewUnknownRelationError(relation string) *EvalError {
	return &EvalError{
		Code:     ErrCodeUnknownRelation,
		Message:  "base facts reference a relation no rule mentions",
		Relation: relation,
	}
}
