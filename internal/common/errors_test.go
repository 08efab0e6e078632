package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := NewValidationError("end_time", "must be after start_time")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrLocked))
	assert.Equal(t, "end_time: must be after start_time", err.Error())

	wrapped := fmt.Errorf("create session: %w", err)
	assert.True(t, errors.Is(wrapped, ErrValidation))

	var ve *ValidationError
	if assert.True(t, errors.As(wrapped, &ve)) {
		assert.Equal(t, "end_time", ve.Field)
	}
}

func TestValidationError_NoField(t *testing.T) {
	err := NewValidationError("", "date must be today")
	assert.Equal(t, "date must be today", err.Error())
}
