package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "pokedex-backend/shared/errors"
	shared "pokedex-backend/shared/middleware"
	"pokedex-backend/shared/store"
)

// scopedStore returns the caller's organization view, answering 401 when
// the route was reached without authentication.
func scopedStore(c *gin.Context) (*store.ScopedStore, bool) {
	s, ok := shared.GetScopedStore(c)
	if !ok {
		shared.RespondError(c, apperrors.New(apperrors.ErrInvalidToken, "Authentication token is missing"))
	}
	return s, ok
}

func parseID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		shared.RespondBadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalID accepts an empty string as "not given"
func parseOptionalID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.New(apperrors.ErrValidation, "%s is invalid", field)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
