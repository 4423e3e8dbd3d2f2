package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "pokedex-backend/shared/errors"
	"pokedex-backend/shared/store"
	utils "pokedex-backend/shared/utils/auth"
)

const (
	identityKey    = "identity"
	scopedStoreKey = "scoped_store"
	userIDKey      = "user_id"
)

// Auth validates access tokens and binds each authenticated request to a
// store view scoped to the caller's organization.
type Auth struct {
	tokens *utils.TokenManager
	store  *store.Store
}

func NewAuth(tokens *utils.TokenManager, s *store.Store) *Auth {
	return &Auth{tokens: tokens, store: s}
}

// RequireAuth rejects requests without a currently valid token
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := a.authenticate(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		a.bind(c, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := a.authenticate(c); err == nil {
			a.bind(c, identity)
		}
		c.Next()
	}
}

// authenticate accepts the first valid token among the cookie and the
// header. When none validates the cookie's error is reported.
func (a *Auth) authenticate(c *gin.Context) (*utils.Identity, error) {
	tokens := utils.ExtractTokens(c)
	if len(tokens) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "Authentication token is missing")
	}

	var firstErr error
	for _, token := range tokens {
		identity, err := a.tokens.Authenticate(c.Request.Context(), token, a.store)
		if err == nil {
			return identity, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (a *Auth) bind(c *gin.Context, identity *utils.Identity) {
	c.Set(identityKey, identity)
	c.Set(userIDKey, identity.UserID.String())
	c.Set(scopedStoreKey, a.store.Scoped(store.Tenant{
		UserID:         identity.UserID,
		OrganizationID: identity.OrganizationID,
	}))
}

// GetIdentity returns the authenticated caller, if any
func GetIdentity(c *gin.Context) (*utils.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*utils.Identity)
	return identity, ok
}

// GetScopedStore returns the caller's organization-scoped store view
func GetScopedStore(c *gin.Context) (*store.ScopedStore, bool) {
	v, ok := c.Get(scopedStoreKey)
	if !ok {
		return nil, false
	}
	scoped, ok := v.(*store.ScopedStore)
	return scoped, ok
}
