package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return r[tokenID], nil
}

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
	if err := i18n.Initialize(); err != nil {
		panic(err)
	}
}

func newAuthRouter(revoked RevocationChecker) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/me", AuthRequired(revoked), func(c *gin.Context) {
		id, _ := utils.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "is_admin": utils.IsAdminFromContext(c)})
	})
	r.GET("/admin", AuthRequired(revoked), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/optional", OptionalAuth(revoked), func(c *gin.Context) {
		_, ok := utils.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	return r
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "ann@example.com", false, 1)
	require.NoError(t, err)

	r := newAuthRouter(revokedSet{})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", "garbage").Code)

	w := serve(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())

	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", token).Code)

	adminToken, err := utils.GenerateJWT(uuid.New(), "root@example.com", true, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, serve(r, "/admin", adminToken).Code)
}

func TestRevokedTokenRejected(t *testing.T) {
	token, err := utils.GenerateJWT(uuid.New(), "ann@example.com", false, 1)
	require.NoError(t, err)
	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)

	r := newAuthRouter(revokedSet{claims.TokenID(): true})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/me", token).Code)
	assert.Contains(t, serve(r, "/optional", token).Body.String(), `"authenticated":false`)
}

func TestOptionalAuth(t *testing.T) {
	token, err := utils.GenerateJWT(uuid.New(), "ann@example.com", false, 1)
	require.NoError(t, err)

	r := newAuthRouter(nil)

	assert.Contains(t, serve(r, "/optional", "").Body.String(), `"authenticated":false`)
	assert.Contains(t, serve(r, "/optional", "bad").Body.String(), `"authenticated":false`)
	assert.Contains(t, serve(r, "/optional", token).Body.String(), `"authenticated":true`)
}

func TestNegotiateLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"zh-TW,zh;q=0.9,en;q=0.8", "zh_TW"},
		{"fr-FR,en-US;q=0.8", "en"},
		{"de", "en"},
		{"en-GB", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, negotiateLanguage(tt.header))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, "/", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rl.evict(time.Now().Add(2 * visitorTTL))
	assert.Equal(t, http.StatusOK, serve(r, "/", "").Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "/", "")
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
