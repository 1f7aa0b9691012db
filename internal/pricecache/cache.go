package pricecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/logger"
)

// ErrNotFound is returned by a Store when no entry exists for a fingerprint
var ErrNotFound = errors.New("price cache entry not found")

// Cache is the boundary used by the price assembler.
// Get은 손상/읽기 불가/백엔드 장애를 모두 "없음"으로 취급 (경고 로그만)
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*contracts.PriceTable, bool)
	Put(ctx context.Context, fingerprint string, table *contracts.PriceTable) error
}

// Entry describes a stored cache entry (cache ls)
type Entry struct {
	Fingerprint string
	Size        int64
	StoredAt    time.Time
}

// Store persists encoded tables keyed by fingerprint.
// 만료/축출 없음. 같은 키 재기록은 마지막 기록이 이김
type Store interface {
	Load(ctx context.Context, fingerprint string) ([]byte, error)
	Save(ctx context.Context, fingerprint string, data []byte) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) (int, error)
	Name() string
}

// PriceCache implements Cache on top of a Store with the msgpack codec
type PriceCache struct {
	store  Store
	logger *logger.Logger
}

// NewPriceCache creates a new price cache over store
func NewPriceCache(store Store, log *logger.Logger) *PriceCache {
	return &PriceCache{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"module": "pricecache", "backend": store.Name()}),
	}
}

// Store returns the underlying store
func (c *PriceCache) Store() Store {
	return c.store
}

// Get returns the cached table for fingerprint
func (c *PriceCache) Get(ctx context.Context, fingerprint string) (*contracts.PriceTable, bool) {
	data, err := c.store.Load(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		c.logger.WithField("fingerprint", fingerprint).Debug("Price cache miss")
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("fingerprint", fingerprint).Warn("Price cache unreadable, treating as miss")
		return nil, false
	}

	table, err := Decode(data)
	if err != nil {
		c.logger.WithError(err).WithField("fingerprint", fingerprint).Warn("Price cache entry corrupted, treating as miss")
		return nil, false
	}

	c.logger.WithFields(map[string]interface{}{
		"fingerprint": fingerprint,
		"rows":        table.Len(),
		"tickers":     len(table.Tickers),
	}).Debug("Price cache hit")
	return table, true
}

// Put encodes and stores table under fingerprint
func (c *PriceCache) Put(ctx context.Context, fingerprint string, table *contracts.PriceTable) error {
	data, err := Encode(table)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, fingerprint, data); err != nil {
		return fmt.Errorf("failed to save price cache %s: %w", fingerprint, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"fingerprint": fingerprint,
		"bytes":       len(data),
	}).Debug("Price cache stored")
	return nil
}
