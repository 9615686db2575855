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
)

type fakeLimiter struct {
	count int64
	err   error
	keys  []string
}

func (l *fakeLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	l.count++
	l.keys = append(l.keys, key)
	if l.err != nil {
		return 0, l.err
	}
	return l.count, nil
}

func rateLimitTestRouter(limiter RateLimiter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", LoginRateLimit(limiter, limit, time.Minute, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestLoginRateLimitUnderLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	r := rateLimitTestRouter(limiter, 5)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestLoginRateLimitOverLimit(t *testing.T) {
	limiter := &fakeLimiter{count: 5}
	r := rateLimitTestRouter(limiter, 5)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too many requests")
}

func TestLoginRateLimitKeyedByClientIP(t *testing.T) {
	limiter := &fakeLimiter{}
	r := rateLimitTestRouter(limiter, 5)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"ratelimit:login:203.0.113.7"}, limiter.keys)
}

func TestLoginRateLimitFailsOpenOnBackendError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	r := rateLimitTestRouter(limiter, 5)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRateLimitDisabledWithoutLimiter(t *testing.T) {
	r := rateLimitTestRouter(nil, 5)

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
