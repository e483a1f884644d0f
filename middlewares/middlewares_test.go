package middlewares

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutrilog/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": UserID(c), "email": Email(c)})
}

func authRouter(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), whoami)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	good, err := utils.GenerateJWT("user-1", "a@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateJWT("user-1", "", testSecret, -time.Hour)
	require.NoError(t, err)
	otherKey, err := utils.GenerateJWT("user-1", "", "other", time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"no subject", "Bearer " + noSub, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusOK},
	}
	r := authRouter(testSecret)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"user":"user-1","email":"a@example.com"}`, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareQueryTokenOnlyForUpgrades(t *testing.T) {
	tok, err := utils.GenerateJWT("user-1", "", testSecret, time.Hour)
	require.NoError(t, err)
	r := authRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil)
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareWithoutSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	authRouter("").ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUserRateLimiter(t *testing.T) {
	l := NewUserRateLimiter(2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per key")

	r := gin.New()
	r.GET("/ai", func(c *gin.Context) { c.Set(ctxUserID, "u1") }, NewUserRateLimiter(1).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ai", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestUserRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	l := NewUserRateLimiter(1)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Equal(t, 100, l.Len())

	now = now.Add(5 * time.Minute)
	assert.True(t, l.Allow("active"))
	assert.False(t, l.Allow("active"))
	assert.Equal(t, 101, l.Len(), "nothing is swept before the idle window")

	now = now.Add(6 * time.Minute)
	l.Allow("late")
	assert.Equal(t, 2, l.Len(), "only buckets used within the idle window survive")
}

func TestZapLoggerAndRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(ZapRecovery(log), ZapLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	for _, p := range []string{"/ok", "/missing", "/panic"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if p == "/panic" {
			assert.Equal(t, http.StatusInternalServerError, w.Code)
		}
	}

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	// the panicking request unwinds past the access log
	reqs := logs.FilterMessage("request").All()
	require.Len(t, reqs, 2)
	assert.Equal(t, zapcore.InfoLevel, reqs[0].Level)
	assert.Equal(t, zapcore.WarnLevel, reqs[1].Level)
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetrics()
	assert.Same(t, m, NewHTTPMetrics())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200"))
	for _, p := range []string{"/items/1", "/items/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")), 1.0)
	assert.Zero(t, testutil.ToFloat64(m.ActiveRequests))
}
