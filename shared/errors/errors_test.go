package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "pokedex-backend/shared/errors"
)

func TestNewKeepsKindAndMessage(t *testing.T) {
	err := apperrors.New(apperrors.ErrConflict, "email %s already exists", "ash@example.com")

	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.False(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "email ash@example.com already exists", err.Error())
}

func TestWrappedKindIsStillDetected(t *testing.T) {
	err := apperrors.Wrapf(apperrors.NotFound("Pokemon"), "toggle favorite")

	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Pokemon not found", apperrors.Message(err, "x"))
}

func TestWrapfNil(t *testing.T) {
	assert.NoError(t, apperrors.Wrapf(nil, "nothing"))
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "Internal Server Error", apperrors.Message(fmt.Errorf("db down"), "Internal Server Error"))
	assert.Equal(t, "token is invalid", apperrors.Message(fmt.Errorf("parse: %w", apperrors.ErrInvalidToken), ""))
}
