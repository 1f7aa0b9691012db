package prices

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

// DefaultMaxAttempts is the number of tries per batch
const DefaultMaxAttempts = 6

// BatchFetcher downloads one batch of tickers with retry and backoff.
// ⭐ SSOT: 업스트림 재시도 루프는 여기서만
type BatchFetcher struct {
	provider    Provider
	policy      BackoffPolicy
	maxAttempts int
	sleep       SleepFunc
	rand        func() float64
	logger      *logger.Logger
}

// NewBatchFetcher creates a fetcher from the fetch config
func NewBatchFetcher(provider Provider, cfg config.FetchConfig, log *logger.Logger) *BatchFetcher {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	policy := BackoffPolicyFromConfig(cfg)
	if policy.Base <= 0 {
		policy = DefaultBackoffPolicy
	}

	return &BatchFetcher{
		provider:    provider,
		policy:      policy,
		maxAttempts: maxAttempts,
		sleep:       Sleep,
		rand:        rand.Float64,
		logger:      log.WithField("module", "fetcher"),
	}
}

// WithSleep replaces the backoff sleep (tests)
func (f *BatchFetcher) WithSleep(sleep SleepFunc) *BatchFetcher {
	f.sleep = sleep
	return f
}

// WithRand replaces the jitter source (tests)
func (f *BatchFetcher) WithRand(fn func() float64) *BatchFetcher {
	f.rand = fn
	return f
}

// FetchBatch returns a normalized adjusted-close table for tickers.
// 전부 성공하거나 FetchExhausted로 실패 (부분 성공 없음)
func (f *BatchFetcher) FetchBatch(ctx context.Context, tickers []string, start time.Time) (*contracts.PriceTable, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		table, err := f.try(ctx, tickers, start, attempt)
		if err == nil {
			if attempt > 1 {
				f.logger.WithFields(map[string]interface{}{
					"tickers": tickers,
					"attempt": attempt,
				}).Info("Batch download recovered")
			}
			return table, nil
		}
		lastErr = err

		if attempt == f.maxAttempts {
			break
		}

		delay := f.policy.Delay(attempt, f.rand())
		f.logger.WithError(err).WithFields(map[string]interface{}{
			"tickers":  tickers,
			"attempt":  attempt,
			"max":      f.maxAttempts,
			"backoff":  delay.String(),
			"err_kind": "transient_fetch",
		}).Warn("Batch download failed, backing off")

		if err := f.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("batch %v: backoff interrupted: %w", tickers, err)
		}
	}

	f.logger.WithError(lastErr).WithFields(map[string]interface{}{
		"tickers":  tickers,
		"attempts": f.maxAttempts,
	}).Error("Batch download exhausted retries")

	return nil, &contracts.StageError{
		Kind:     contracts.ErrFetchExhausted,
		Stage:    contracts.StageFetch,
		Tickers:  append([]string(nil), tickers...),
		Attempts: f.maxAttempts,
		Message:  "batch failed after retries",
		Cause:    lastErr,
	}
}

// try performs a single attempt; every failure is transient
func (f *BatchFetcher) try(ctx context.Context, tickers []string, start time.Time, attempt int) (*contracts.PriceTable, error) {
	raw, err := f.provider.FetchDailyAdjustedClose(ctx, tickers, start)
	if err == nil {
		var table *contracts.PriceTable
		table, err = Normalize(raw, tickers)
		if err == nil {
			return table, nil
		}
	}

	return nil, &contracts.StageError{
		Kind:     contracts.ErrTransientFetch,
		Stage:    contracts.StageFetch,
		Tickers:  tickers,
		Attempts: attempt,
		Cause:    err,
	}
}
