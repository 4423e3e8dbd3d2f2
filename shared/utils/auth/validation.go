package utils

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	apperrors "pokedex-backend/shared/errors"
)

const (
	passwordMinLength = 6
	passwordMaxLength = 30
)

var lettersAndSpaces = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// NormalizeName trims, collapses inner whitespace and lower-cases a display name.
// Organization, user and pokemon names are stored in this form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.New(apperrors.ErrValidation, "Email address is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.New(apperrors.ErrValidation, "Email address is invalid")
	}

	return nil
}

// ValidateName checks a name made only of letters and spaces
func ValidateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.ErrValidation, "%s is required", field)
	}
	if !lettersAndSpaces.MatchString(name) {
		return apperrors.New(apperrors.ErrValidation, "%s can only contain letters (a-z, A-Z) and spaces", field)
	}
	return nil
}

// ValidatePassword enforces the strong password policy
func ValidatePassword(password string) error {
	if password == "" {
		return apperrors.New(apperrors.ErrValidation, "Password is required")
	}
	if len(password) > passwordMaxLength {
		return apperrors.New(apperrors.ErrValidation, "Password must be shorter than or equal to %d characters", passwordMaxLength)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	if len(password) < passwordMinLength || !upper || !lower || !digit || !symbol {
		return apperrors.New(apperrors.ErrValidation,
			"Password must be at least %d characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character",
			passwordMinLength)
	}
	return nil
}
