package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoAddr = errors.New("utils: redis addr is required")

// Notifier configures the Redis client used to PUBLISH audio events.
// Publishing is fire-and-forget, so timeouts are short and the pool small.
type Notifier struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PingTimeout  time.Duration
}

func (c Notifier) withDefaults() Notifier {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 2 * time.Second
	}
	return c
}

func (c Notifier) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.WriteTimeout,
		WriteTimeout: c.WriteTimeout,
		PoolSize:     c.PoolSize,
	}
}

// OpenRedis builds the client and checks connectivity with PING.
func OpenRedis(ctx context.Context, cfg Notifier) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrNoAddr
	}
	cfg = cfg.withDefaults()

	rdb := redis.NewClient(cfg.options())
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("utils: redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
