package prices

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/pricecache"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

// DefaultBatchSize keeps each upstream request small (429 회피)
const DefaultBatchSize = 7

// BatchSource fetches one batch (BatchFetcher)
type BatchSource interface {
	FetchBatch(ctx context.Context, tickers []string, start time.Time) (*contracts.PriceTable, error)
}

// Assembler builds the full price table: cache → batches → merge → persist
// ⭐ SSOT: 가격 테이블 조립은 여기서만
type Assembler struct {
	source    BatchSource
	cache     pricecache.Cache
	batchSize int
	pauseMin  time.Duration
	pauseMax  time.Duration
	sleep     SleepFunc
	rand      func() float64
	logger    *logger.Logger
}

// NewAssembler creates a new assembler
func NewAssembler(source BatchSource, cache pricecache.Cache, cfg config.FetchConfig, log *logger.Logger) *Assembler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Assembler{
		source:    source,
		cache:     cache,
		batchSize: batchSize,
		pauseMin:  cfg.PauseMin,
		pauseMax:  cfg.PauseMax,
		sleep:     Sleep,
		rand:      rand.Float64,
		logger:    log.WithField("module", "assembler"),
	}
}

// WithSleep replaces the inter-batch sleep (tests)
func (a *Assembler) WithSleep(sleep SleepFunc) *Assembler {
	a.sleep = sleep
	return a
}

// WithRand replaces the pause jitter source (tests)
func (a *Assembler) WithRand(fn func() float64) *Assembler {
	a.rand = fn
	return a
}

// GetPrices returns adjusted closes for tickers from start.
// forceRefresh이면 캐시 조회를 건너뛴다 (기록은 수행)
func (a *Assembler) GetPrices(ctx context.Context, tickers []string, start time.Time, forceRefresh bool) (*contracts.PriceTable, error) {
	tickers = dedupe(tickers)
	if len(tickers) == 0 {
		return nil, contracts.NewConfigError(contracts.StagePrices, nil, "no tickers requested")
	}

	fp := pricecache.Fingerprint(tickers, start)
	log := a.logger.WithFields(map[string]interface{}{
		"fingerprint": fp,
		"tickers":     len(tickers),
		"start":       start.Format(contracts.DateLayout),
	})

	if !forceRefresh {
		if cached, ok := a.cache.Get(ctx, fp); ok && !cached.IsEmpty() {
			log.Info("Using cached prices")
			return cached, nil
		}
	}

	batches := Partition(tickers, a.batchSize)
	tables := make([]*contracts.PriceTable, 0, len(batches))
	for i, batch := range batches {
		log.WithFields(map[string]interface{}{
			"batch": fmt.Sprintf("%d/%d", i+1, len(batches)),
			"items": batch,
		}).Info("Downloading batch")

		table, err := a.source.FetchBatch(ctx, batch, start)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)

		if i < len(batches)-1 {
			if err := a.sleep(ctx, a.pause()); err != nil {
				return nil, fmt.Errorf("inter-batch pause interrupted: %w", err)
			}
		}
	}

	merged := Merge(tables...)
	ForwardFill(merged)
	if dropped := DropEmptyColumns(merged); len(dropped) > 0 {
		log.WithField("dropped", dropped).Warn("Tickers returned no data, dropping")
	}
	DropEmptyRows(merged)

	if merged.IsEmpty() {
		return nil, &contracts.StageError{
			Kind:    contracts.ErrDataIntegrity,
			Stage:   contracts.StagePrices,
			Tickers: tickers,
			Message: "all tickers failed, no usable price data",
		}
	}

	if err := a.cache.Put(ctx, fp, merged); err != nil {
		log.WithError(err).Warn("Failed to persist price cache")
	}

	log.WithFields(map[string]interface{}{
		"rows":    merged.Len(),
		"columns": len(merged.Tickers),
	}).Info("Download + cache complete")
	return merged, nil
}

// pause returns a uniform draw in [pauseMin, pauseMax)
func (a *Assembler) pause() time.Duration {
	span := a.pauseMax - a.pauseMin
	if span <= 0 {
		return a.pauseMin
	}
	return a.pauseMin + time.Duration(a.rand()*float64(span))
}

// Partition splits tickers into ordered batches of at most size
func Partition(tickers []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]string
	for i := 0; i < len(tickers); i += size {
		end := i + size
		if end > len(tickers) {
			end = len(tickers)
		}
		batches = append(batches, tickers[i:end])
	}
	return batches
}

func dedupe(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
