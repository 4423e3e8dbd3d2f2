package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "accessToken"
	UserIDCookie      = "id"
)

// CookieOptions controls the auth cookie attributes. Development runs with
// both flags off; production must turn them on.
type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
	Domain   string
}

// SetAuthCookies writes the non-persistent accessToken/id cookie pair
func SetAuthCookies(c *gin.Context, opts CookieOptions, accessToken, userID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, accessToken, 0, "/", opts.Domain, opts.Secure, opts.HTTPOnly)
	c.SetCookie(UserIDCookie, userID, 0, "/", opts.Domain, opts.Secure, opts.HTTPOnly)
}

// ClearAuthCookies expires both auth cookies
func ClearAuthCookies(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", opts.Domain, opts.Secure, opts.HTTPOnly)
	c.SetCookie(UserIDCookie, "", -1, "/", opts.Domain, opts.Secure, opts.HTTPOnly)
}

// ExtractTokens returns every distinct token the request carries, the
// cookie first and then the Bearer header. A stale cookie left behind by a
// superseded session must not hide a valid header token.
func ExtractTokens(c *gin.Context) []string {
	var tokens []string
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		tokens = append(tokens, token)
	}
	if token := ExtractTokenFromHeader(c.Request); token != "" && (len(tokens) == 0 || tokens[0] != token) {
		tokens = append(tokens, token)
	}
	return tokens
}

// ExtractTokenFromHeader extracts the token from the Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return ""
	}

	return tokenParts[1]
}
