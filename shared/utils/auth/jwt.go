package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pokedex-backend/shared/database/models"
	apperrors "pokedex-backend/shared/errors"
)

// Claims is the signed token payload. Timestamp is the issuing watermark in
// unix milliseconds; it is compared against the user's stored watermark on
// every request.
type Claims struct {
	UserID         string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Timestamp      int64  `json:"timestamp"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to a request
type Identity struct {
	UserID         uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Timestamp      int64     `json:"timestamp"`
}

// UserFinder loads the token subject so its watermark can be checked
type UserFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenManager issues and validates access tokens
type TokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for issue and expiry times
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// Expiry returns the configured token lifetime
func (m *TokenManager) Expiry() time.Duration {
	return m.expiry
}

// Issue signs a token for user. The embedded timestamp is the user's watermark,
// or the current time when the user has none yet.
func (m *TokenManager) Issue(user *models.User) (string, error) {
	if user == nil || user.OrganizationID == uuid.Nil {
		return "", apperrors.New(apperrors.ErrConfiguration, "User organization ID is missing")
	}
	if len(m.secret) == 0 {
		return "", apperrors.New(apperrors.ErrSigning, "JWT secret is not configured")
	}

	now := m.now()
	timestamp := now.UnixMilli()
	if user.LastLoginTimestamp != nil {
		timestamp = *user.LastLoginTimestamp
	}

	claims := Claims{
		UserID:         user.ID.String(),
		OrganizationID: user.OrganizationID.String(),
		Timestamp:      timestamp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSigning, err)
	}
	return signed, nil
}

// Parse verifies the signature and payload shape without consulting the store
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.ErrExpiredToken, "Token has expired")
		}
		return nil, apperrors.New(apperrors.ErrInvalidToken, "Token is invalid")
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "Token is invalid")
	}
	return claims, nil
}

// Authenticate runs the full validation: signature, payload, subject lookup
// and the watermark comparison. A token stamped before the user's current
// watermark was superseded by a later login or logout.
func (m *TokenManager) Authenticate(ctx context.Context, tokenString string, users UserFinder) (*Identity, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "Token is invalid")
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil || orgID == uuid.Nil {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "Token is invalid")
	}

	user, err := users.FindUserByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrExpiredToken, "Token has expired")
		}
		return nil, apperrors.Wrapf(err, "load token subject")
	}
	if user.LastLoginTimestamp == nil {
		return nil, apperrors.New(apperrors.ErrExpiredToken, "Token has expired")
	}
	if claims.Timestamp < *user.LastLoginTimestamp {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "Token is invalid")
	}

	return &Identity{
		UserID:         userID,
		OrganizationID: orgID,
		Timestamp:      claims.Timestamp,
	}, nil
}
