package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkhub/internal/models"
)

const testSecret = "test-secret"

func testUser(admin bool) *models.User {
	role := models.RoleUser
	if admin {
		role = models.RoleAdmin
	}
	return &models.User{ID: 7, Email: "driver@example.com", Role: role}
}

func TestGenerateAndParseToken(t *testing.T) {
	signed, claims, err := GenerateToken(testSecret, time.Hour, testUser(false))
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.NotEmpty(t, claims.ID)

	parsed, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), parsed.UserID)
	assert.False(t, parsed.IsAdmin)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signed, _, err := GenerateToken(testSecret, time.Hour, testUser(false))
	require.NoError(t, err)

	_, err = ParseToken("other-secret", signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	signed, _, err := GenerateToken(testSecret, -time.Minute, testUser(false))
	require.NoError(t, err)

	_, err = ParseToken(testSecret, signed)
	assert.Error(t, err)
}

// fakeBlacklist implements Blacklist for the middleware tests.
type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[tokenID], nil
}

func authRouter(blacklist Blacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(testSecret, blacklist), func(c *gin.Context) {
		p, _ := PrincipalFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID})
	})
	r.GET("/admin", JWTAuth(testSecret, blacklist), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := authRouter(nil)

	signed, _, err := GenerateToken(testSecret, time.Hour, testUser(false))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doRequest(r, "/me", "Bearer "+signed).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", signed).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "Bearer garbage").Code)
}

func TestJWTAuthBlacklist(t *testing.T) {
	signed, claims, err := GenerateToken(testSecret, time.Hour, testUser(false))
	require.NoError(t, err)

	r := authRouter(&fakeBlacklist{revoked: map[string]bool{claims.ID: true}})
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "Bearer "+signed).Code)

	// A lookup failure rejects rather than letting logged-out tokens through.
	r = authRouter(&fakeBlacklist{err: errors.New("redis down")})
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "Bearer "+signed).Code)
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter(nil)

	userToken, _, err := GenerateToken(testSecret, time.Hour, testUser(false))
	require.NoError(t, err)
	adminToken, _, err := GenerateToken(testSecret, time.Hour, testUser(true))
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(r, "/admin", "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/admin", "Bearer "+adminToken).Code)
}
