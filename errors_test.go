package stencil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("shape")
	assert.Equal(t, "stencil: shape not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "shape", err.Label())
	assert.Nil(t, err.ID())
}

func TestNotFoundErrorWithID(t *testing.T) {
	err := NewNotFoundErrorWithID("shape", "test#Missing")
	assert.Contains(t, err.Error(), "test#Missing")
	assert.Equal(t, "test#Missing", err.ID())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIsNotFoundErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewNotFoundError("service"))
	assert.True(t, IsNotFoundError(wrapped))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, IsNotFoundError(errors.New("other")))
}
