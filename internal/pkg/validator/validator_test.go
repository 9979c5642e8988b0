package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(" x "))
}

func TestIsValidDate(t *testing.T) {
	t.Parallel()

	date, ok := IsValidDate("2025-06-01")
	assert.True(t, ok)
	assert.Equal(t, 2025, date.Year())

	_, ok = IsValidDate("01-06-2025")
	assert.False(t, ok)

	_, ok = IsValidDate("not a date")
	assert.False(t, ok)
}

func TestIsInSlice(t *testing.T) {
	t.Parallel()

	assert.True(t, IsInSlice("fixed", []string{"fixed", "percentage", "formula"}))
	assert.False(t, IsInSlice("other", []string{"fixed", "percentage"}))
	assert.False(t, IsInSlice("fixed", nil))
}

func TestValidationErrors_ErrorAndToMap(t *testing.T) {
	t.Parallel()

	errs := ValidationErrors{
		{Field: "name", Message: "is required"},
		{Field: "kind", Message: "must be 'earning' or 'deduction'"},
	}

	assert.Contains(t, errs.Error(), "name: is required")
	assert.Equal(t, map[string]string{
		"name": "is required",
		"kind": "must be 'earning' or 'deduction'",
	}, errs.ToMap())
}
