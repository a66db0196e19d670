package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "membership application not found")
	require.Error(t, wrapped)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, "membership application not found: not found", wrapped.Error())
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
}

func TestWrap_PreservesChainThroughMultipleLayers(t *testing.T) {
	inner := Wrap(ErrInvalidState, "application is not pending")
	outer := Wrap(inner, "approve failed")

	assert.True(t, Is(outer, ErrInvalidState))
	assert.False(t, Is(outer, ErrNotFound))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrInvalidState, ErrForbidden}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b))
		}
	}
}
