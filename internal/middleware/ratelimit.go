package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
	"github.com/jebol-id/adminduk-api/pkg/response"
)

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisRateLimiter implements RateLimiter on a redis counter with TTL.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter creates a redis-backed limiter.
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Hit increments the window counter, setting the expiry on first hit.
func (l *RedisRateLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// LoginRateLimit throttles an endpoint per client IP. The limiter fails open:
// if the counter backend is down, logins keep working and the error is logged.
func LoginRateLimit(limiter RateLimiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:login:%s", c.ClientIP())
		count, err := limiter.Hit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > int64(limit) {
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
