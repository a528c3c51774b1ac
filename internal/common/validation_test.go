package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_AddAndError(t *testing.T) {
	v := NewValidationError()
	assert.False(t, v.HasErrors())

	v.Add("deposit", "must be at least the daily reward")
	v.Add("reward", "must be greater than zero")
	v.Add("deposit", "second message is ignored")

	assert.True(t, v.HasErrors())
	assert.Equal(t, "must be at least the daily reward", v.Fields["deposit"])
	assert.Equal(t,
		"validation error: deposit: must be at least the daily reward; reward: must be greater than zero",
		v.Error())
}

func TestValidationError_Empty(t *testing.T) {
	v := NewValidationError()
	assert.Equal(t, "validation error", v.Error())
}
