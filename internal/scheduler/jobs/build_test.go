package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/pipeline"
	"github.com/wonny/folio/internal/pricecache"
	"github.com/wonny/folio/internal/prices"
	"github.com/wonny/folio/internal/valuation"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

type fakeBuilder struct {
	cfgs []pipeline.RunConfig
	err  error
}

func (b *fakeBuilder) Run(_ context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error) {
	b.cfgs = append(b.cfgs, cfg)
	if b.err != nil {
		return &pipeline.RunResult{Error: b.err}, b.err
	}
	return &pipeline.RunResult{RunID: "r1", Status: contracts.RunStatusUpdated, Success: true}, nil
}

func TestBuildJob(t *testing.T) {
	tests := []struct {
		name         string
		forceRefresh bool
	}{
		{"refreshing", true},
		{"cache only", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBuilder{}
			job := NewBuildJob(b, "0 30 22 * * 1-5", tt.forceRefresh, logger.Nop())

			assert.Equal(t, "portfolio_build", job.Name())
			assert.Equal(t, "0 30 22 * * 1-5", job.Schedule())

			require.NoError(t, job.Run(context.Background()))
			require.Len(t, b.cfgs, 1)
			assert.Equal(t, tt.forceRefresh, b.cfgs[0].ForceRefresh)
		})
	}
}

func TestBuildJob_Error(t *testing.T) {
	cause := &contracts.StageError{Kind: contracts.ErrFetchExhausted, Stage: contracts.StageFetch}
	job := NewBuildJob(&fakeBuilder{err: cause}, "@daily", true, logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrFetchExhausted))
}

// growingProvider serves a price history that gains sessions over time
type growingProvider struct {
	mu    sync.Mutex
	dates []string
	a     []float64
	spy   []float64
}

func (p *growingProvider) add(date string, a, spy float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dates = append(p.dates, date)
	p.a = append(p.a, a)
	p.spy = append(p.spy, spy)
}

func (p *growingProvider) FetchDailyAdjustedClose(_ context.Context, tickers []string, _ time.Time) (*prices.RawFrame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame := &prices.RawFrame{}
	for _, ds := range p.dates {
		d, _ := time.Parse(contracts.DateLayout, ds)
		frame.Index = append(frame.Index, d)
	}
	for _, tk := range tickers {
		src := p.spy
		if tk == "A" {
			src = p.a
		}
		values := make([]*float64, len(src))
		for i := range src {
			v := src[i]
			values[i] = &v
		}
		frame.Columns = append(frame.Columns, prices.RawColumn{Field: prices.FieldAdjClose, Ticker: tk, Values: values})
	}
	return frame, nil
}

func TestBuildJob_ScheduledBuildPicksUpNewSessions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "portfolioName": "Solo",
  "inceptionDate": "2023-01-03",
  "benchmark": "SPY",
  "initialCapital": 10000,
  "weights": [{"ticker": "A", "name": "Alpha", "weight": 1.0}]
}`), 0o644))
	outDir := filepath.Join(dir, "out")

	provider := &growingProvider{}
	provider.add("2023-01-03", 100, 380)
	provider.add("2023-01-04", 120, 382)

	log := logger.Nop()
	cfg := config.FetchConfig{BatchSize: 7, MaxAttempts: 1, BackoffBase: 2.0}
	noSleep := func(context.Context, time.Duration) error { return nil }
	fetcher := prices.NewBatchFetcher(provider, cfg, log).WithSleep(noSleep)
	cache := pricecache.NewPriceCache(pricecache.NewMemoryStore(), log)
	assembler := prices.NewAssembler(fetcher, cache, cfg, log).WithSleep(noSleep)
	engine := valuation.NewEngine(0, log).WithClock(func() time.Time {
		return time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC)
	})
	runner := pipeline.NewRunner(path, assembler, engine, artifacts.NewWriter(outDir, log), log)

	job := NewBuildJob(runner, "@daily", true, log)
	reader := artifacts.NewReader(outDir)

	require.NoError(t, job.Run(context.Background()))
	m, err := reader.Metrics()
	require.NoError(t, err)
	assert.Equal(t, 12000.0, m.AUMUsd)

	provider.add("2023-01-05", 130, 385)
	provider.add("2023-01-06", 140, 390)

	require.NoError(t, job.Run(context.Background()))
	m, err = reader.Metrics()
	require.NoError(t, err)
	assert.Equal(t, 14000.0, m.AUMUsd, "second scheduled run sees the new sessions")
	assert.Equal(t, "2023-01-10", m.AsOf)
}
