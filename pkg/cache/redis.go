package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jebol-id/adminduk-api/pkg/config"
)

// Redis only backs the login rate limiter here. The limiter fails open, so
// timeouts are kept short: a slow redis must not slow down logins.
const (
	dialTimeout = 2 * time.Second
	opTimeout   = 500 * time.Millisecond
	pingTimeout = 5 * time.Second
)

// NewRedis returns a connected client, or an error the caller may treat as
// "rate limiting disabled" rather than fatal.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
