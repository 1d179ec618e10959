package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnknownRelationError(t *testing.T) {
	err := fmt.Errorf("loading base: %w", NewUnknownRelationError("typo"))

	assert.True(t, IsUnknownRelationError(err))
	assert.False(t, IsIterationLimitError(err))
}

func TestIsIterationLimitError(t *testing.T) {
	err := fmt.Errorf("component 2: %w", &IterationLimitError{
		Component:  2,
		Iterations: 11,
		Limit:      10,
	})

	assert.True(t, IsIterationLimitError(err))
	assert.False(t, IsUnknownRelationError(err))
}
