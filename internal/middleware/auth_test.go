// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/storelink/storelink-backend/internal/utils"
)

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/open", OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	r := authTestRouter()

	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "user@example.com", "affiliate", 1)
	assert.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := doRequest(r, "/protected", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(r, "/protected", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(r, "/protected", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	r := authTestRouter()

	affiliateToken, err := utils.GenerateJWT(uuid.New(), "aff@example.com", "affiliate", 1)
	assert.NoError(t, err)
	adminToken, err := utils.GenerateJWT(uuid.New(), "admin@example.com", "admin", 1)
	assert.NoError(t, err)

	t.Run("affiliate rejected", func(t *testing.T) {
		w := doRequest(r, "/admin", affiliateToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		w := doRequest(r, "/admin", adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	r := authTestRouter()

	t.Run("anonymous passes through", func(t *testing.T) {
		w := doRequest(r, "/open", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid token still passes", func(t *testing.T) {
		w := doRequest(r, "/open", "bogus")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		userID := uuid.New()
		token, err := utils.GenerateJWT(userID, "u@example.com", "affiliate", 1)
		assert.NoError(t, err)

		w := doRequest(r, "/open", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})
}
