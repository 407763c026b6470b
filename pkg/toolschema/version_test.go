package toolschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatible_SatisfiedConstraintReturnsTrue(t *testing.T) {
	ok, err := CheckCompatible("^1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckCompatible_UnsatisfiedMajorReturnsFalse(t *testing.T) {
	ok, err := CheckCompatible(">=2.0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckCompatible_InvalidConstraintIsError(t *testing.T) {
	_, err := CheckCompatible("not-a-constraint")
	require.Error(t, err)
}
