package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// Cache is a namespaced byte store without expiry
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves raw bytes. Missing keys return ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.client.Enabled() {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}
	return data, nil
}

// Set stores raw bytes without TTL (가격 캐시는 만료 없음)
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), value, 0).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Keys lists the keys (without namespace) stored under this cache
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	if !c.client.Enabled() {
		return nil, nil
	}

	prefix := c.fullKey("")
	var keys []string
	iter := c.client.Redis().Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cache scan failed: %w", err)
	}
	return keys, nil
}

// PriceCacheKey is the key of an adjusted-close table for a fingerprint
func PriceCacheKey(fingerprint string) string {
	return fmt.Sprintf("adjclose:%s", fingerprint)
}
