package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "pokedex-backend/shared/errors"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "team rocket", NormalizeName("  Team   ROCKET "))
	assert.Equal(t, "pikachu", NormalizeName("Pikachu"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ash@example.com", NormalizeEmail("  Ash@Example.COM "))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ash@example.com"))

	for _, email := range []string{"", "ash", "ash@", "Ash <ash@example.com>"} {
		err := ValidateEmail(email)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation), email)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Name", "Ash Ketchum"))

	err := ValidateName("Name", "")
	assert.EqualError(t, err, "Name is required")

	err = ValidateName("Organization name", "Team 42")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "Organization name")
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Str0ngP@ss!", true},
		{"aB1!xy", true},
		{"", false},
		{"aB1!x", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSymbols123", false},
		{"Aa1!aaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if tt.valid {
			assert.NoError(t, err, tt.password)
		} else {
			assert.True(t, apperrors.Is(err, apperrors.ErrValidation), tt.password)
		}
	}
}
