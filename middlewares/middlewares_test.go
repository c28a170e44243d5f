package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-orders/utils"
)

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"tenant": actor.TenantID, "role": actor.Role, "staff": actor.StaffID})
	})
	r.GET("/protected", handlers...)
	return r
}

func token(t *testing.T, tenant, role string) string {
	t.Helper()
	utils.SetJWTSecret("middleware-secret")
	tok, err := utils.GenerateToken(tenant, 3, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := setupRouter(AuthMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "tenant-a", RoleStaff))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenant":"tenant-a","role":"staff","staff":3}`, w.Body.String())
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	r := setupRouter(WebSocketAuthMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?token="+token(t, "tenant-b", RoleChef), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenant":"tenant-b"`)
}

func TestRoleCheck(t *testing.T) {
	r := setupRouter(AuthMiddleware(), RoleCheck(RoleChef))

	tests := []struct {
		role string
		want int
	}{
		{RoleChef, http.StatusOK},
		{RoleAdmin, http.StatusOK},
		{RoleStaff, http.StatusForbidden},
		{RoleGuest, http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "tenant-a", tt.role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, tt.role)
	}

	w := httptest.NewRecorder()
	setupRouter(RoleCheck(RoleChef)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := setupRouter(rl.RateLimit())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	start := time.Now()
	assert.True(t, rl.allow("a", start))
	assert.False(t, rl.allow("a", start))

	later := start.Add(2 * limiterIdleTTL)
	assert.True(t, rl.allow("b", later))
	_, kept := rl.visitors["a"]
	assert.False(t, kept)
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddlewares(""), SecurityHeaders(), NoStore())
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/protected", func(c *gin.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/protected", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestLoggerMiddlewareSetsRequestID(t *testing.T) {
	r := setupRouter(LoggerMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
