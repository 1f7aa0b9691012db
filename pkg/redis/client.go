package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/folio/pkg/config"
)

// connectTimeout bounds the initial PING
const connectTimeout = 5 * time.Second

// Client is the shared connection behind the price cache and the rate limiter.
// ⭐ SSOT: Redis 연결은 여기서만 관리
// 비활성 클라이언트는 캐시 미스/무제한 허용으로 동작
type Client struct {
	rdb *redis.Client
}

// New connects to REDIS_HOST:REDIS_PORT and verifies the connection.
// REDIS_ENABLED 판단은 호출자 몫 (redis 캐시 백엔드는 항상 연결)
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", rdb.Options().Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Disabled returns a client that never touches the network
func Disabled() *Client {
	return &Client{}
}

// Wrap adapts an existing go-redis client (tests)
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the connection
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether a connection is attached
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Redis returns the underlying go-redis client
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
