package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required,max=8"`
	BPM   int    `json:"bpm" validate:"gte=40,lte=220"`
	Key   string `json:"-" validate:"omitempty,oneof=A B"`
}

func TestValidateOK(t *testing.T) {
	errs, ok := NewValidator().Validate(sample{Title: "song", BPM: 120})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateUsesJSONNames(t *testing.T) {
	errs, ok := NewValidator().Validate(sample{Title: "", BPM: 500})
	require.False(t, ok)
	require.Len(t, errs, 2)

	assert.Equal(t, "title", errs[0].Field)
	assert.Equal(t, "REQUIRED", errs[0].Code)
	assert.Equal(t, "title is required", errs[0].Message)

	assert.Equal(t, "bpm", errs[1].Field)
	assert.Equal(t, "LTE", errs[1].Code)
}

func TestValidateNonStruct(t *testing.T) {
	errs, ok := NewValidator().Validate(42)
	require.False(t, ok)
	assert.Equal(t, "INVALID", errs[0].Code)
}
