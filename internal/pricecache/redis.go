package pricecache

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/wonny/folio/pkg/redis"
)

// RedisStore keeps entries in redis without TTL
type RedisStore struct {
	cache *redis.Cache
}

// NewRedisStore creates a redis-backed store
func NewRedisStore(cache *redis.Cache) *RedisStore {
	return &RedisStore{cache: cache}
}

// Name returns the backend name
func (s *RedisStore) Name() string { return "redis" }

// Load reads the entry for fingerprint
func (s *RedisStore) Load(ctx context.Context, fingerprint string) ([]byte, error) {
	data, err := s.cache.Get(ctx, redis.PriceCacheKey(fingerprint))
	if errors.Is(err, redis.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	return data, err
}

// Save writes the entry for fingerprint
func (s *RedisStore) Save(ctx context.Context, fingerprint string, data []byte) error {
	return s.cache.Set(ctx, redis.PriceCacheKey(fingerprint), data)
}

// List returns stored fingerprints (크기/시각은 조회하지 않음)
func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	keys, err := s.cache.Keys(ctx)
	if err != nil {
		return nil, err
	}

	prefix := redis.PriceCacheKey("")
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entries = append(entries, Entry{Fingerprint: strings.TrimPrefix(key, prefix)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries, nil
}

// Clear removes every price entry
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := s.cache.Delete(ctx, redis.PriceCacheKey(e.Fingerprint)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
