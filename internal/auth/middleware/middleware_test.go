package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/auth"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	apperrors "github.com/lk2023060901/school-assistant-backend/internal/pkg/errors"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

type envelope struct {
	Code int `json:"code"`
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString("user_id"),
			"role":     c.GetString("role"),
			"ctx_user": logger.GetUserID(c.Request.Context()),
			"ctx_role": logger.GetRole(c.Request.Context()),
		})
	})
	r.GET("/", handlers...)
	return r
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	verifier := auth.NewVerifier("secret", "school-assistant")
	r := newRouter(JWTAuth(verifier, logger.NewNop()))

	token, err := verifier.Issue("u1", types.RoleAdmin, time.Minute)
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "admin", body["role"])
	assert.Equal(t, "u1", body["ctx_user"])
	assert.Equal(t, "admin", body["ctx_role"])

	expired, err := verifier.Issue("u1", types.RoleAdmin, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", apperrors.ErrAuthMissingToken},
		{"not bearer", "Basic abc", apperrors.ErrAuthMissingToken},
		{"garbage", "Bearer abc", apperrors.ErrAuthInvalidToken},
		{"expired", "Bearer " + expired, apperrors.ErrAuthTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var env envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set("role", role) }
	}

	w := get(newRouter(withRole("admin"), RequireRole("admin")), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(newRouter(withRole("student"), RequireRole("admin", "teacher")), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(newRouter(RequireRole("admin")), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMemoryLimiter(t *testing.T) {
	l, err := NewMemoryLimiter(2, time.Minute, 10)
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	d, _ := l.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "a")
	assert.False(t, d.Allowed)

	// other keys have their own window
	d, _ = l.Allow(ctx, "b")
	assert.True(t, d.Allowed)

	now = now.Add(time.Minute)
	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestRateLimiter(t *testing.T) {
	l, err := NewMemoryLimiter(1, time.Minute, 10)
	require.NoError(t, err)
	r := newRouter(RateLimiter(l, logger.NewNop()))

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, apperrors.ErrTooManyRequests, env.Code)

	// a broken limiter fails open
	w = get(newRouter(RateLimiter(failingLimiter{}, logger.NewNop())), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.168.1.5:4000"
	assert.Equal(t, "rate_limit:ip:192.168.1.5", rateLimitKey(c))

	c.Set("user_id", "u1")
	assert.Equal(t, "rate_limit:user:u1", rateLimitKey(c))
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://school.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://school.example", w.Header().Get("Access-Control-Allow-Origin"))
}
