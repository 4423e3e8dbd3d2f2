package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSetAuthCookies(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	SetAuthCookies(c, CookieOptions{HTTPOnly: true, Secure: true}, "token-value", "user-id")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := map[string]*http.Cookie{}
	for _, ck := range cookies {
		byName[ck.Name] = ck
	}
	assert.Equal(t, "token-value", byName[AccessTokenCookie].Value)
	assert.Equal(t, "user-id", byName[UserIDCookie].Value)
	for _, ck := range cookies {
		assert.True(t, ck.HttpOnly)
		assert.True(t, ck.Secure)
		assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
		assert.Zero(t, ck.MaxAge)
	}
}

func TestClearAuthCookies(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)

	ClearAuthCookies(c, CookieOptions{})

	for _, ck := range w.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	}
}

func TestExtractTokensCookieFirst(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	c.Request.Header.Set("Authorization", "Bearer from-header")

	assert.Equal(t, []string{"from-cookie", "from-header"}, ExtractTokens(c))
}

func TestExtractTokensHeaderOnly(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer from-header")

	assert.Equal(t, []string{"from-header"}, ExtractTokens(c))
}

func TestExtractTokensDeduplicates(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "same"})
	c.Request.Header.Set("Authorization", "Bearer same")

	assert.Equal(t, []string{"same"}, ExtractTokens(c))
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractTokens(c))
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"Bearer abc":       "abc",
		"bearer abc":       "",
		"Basic abc":        "",
		"Bearer":           "",
		"Bearer abc extra": "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, ExtractTokenFromHeader(r), header)
	}
}
