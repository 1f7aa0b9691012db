package pricecache

import (
	"context"
	"fmt"

	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/database"
	"github.com/wonny/folio/pkg/logger"
	"github.com/wonny/folio/pkg/redis"
)

// Open builds the price cache selected by CACHE_BACKEND.
// 반환된 close 함수가 백엔드 연결을 정리한다.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*PriceCache, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.CacheBackendFile, "":
		return NewPriceCache(NewFileStore(cfg.Cache.Dir), log), noop, nil

	case config.CacheBackendMemory:
		return NewPriceCache(NewMemoryStore(), log), noop, nil

	case config.CacheBackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open redis cache: %w", err)
		}
		store := NewRedisStore(redis.NewCache(client, "folio"))
		return NewPriceCache(store, log), func() { _ = client.Close() }, nil

	case config.CacheBackendPostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open postgres cache: %w", err)
		}
		store := NewPostgresStore(db.Pool)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to create price_cache table: %w", err)
		}
		return NewPriceCache(store, log), db.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
