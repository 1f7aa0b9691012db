package commands

import (
	"context"
	"fmt"

	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/external/yahoo"
	"github.com/wonny/folio/internal/pipeline"
	"github.com/wonny/folio/internal/pricecache"
	"github.com/wonny/folio/internal/prices"
	"github.com/wonny/folio/internal/valuation"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/httputil"
	"github.com/wonny/folio/pkg/logger"
	"github.com/wonny/folio/pkg/redis"
)

// app holds the wired components shared by commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	cache   *pricecache.PriceCache
	runner  *pipeline.Runner
	closers []func()
}

// loadConfig reads env config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if portfolioPath != "" {
		cfg.Portfolio.Path = portfolioPath
	}
	if outDir != "" {
		cfg.Portfolio.OutDir = outDir
	}
	if cacheBackend != "" {
		cfg.Cache.Backend = cacheBackend
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config → cache → yahoo client → fetcher → assembler → runner
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	cache, closeCache, err := pricecache.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open price cache: %w", err)
	}
	a.cache = cache
	a.closers = append(a.closers, closeCache)

	httpClient := httputil.New(cfg, log)
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "folio"), redis.YahooRateLimit)
	}

	yahooClient := yahoo.NewClient(httpClient, cfg.Yahoo.BaseURL, log)
	fetcher := prices.NewBatchFetcher(yahooClient, cfg.Fetch, log)
	assembler := prices.NewAssembler(fetcher, cache, cfg.Fetch, log)
	engine := valuation.NewEngine(cfg.RiskFreeAnnual, log)
	writer := artifacts.NewWriter(cfg.Portfolio.OutDir, log)

	a.runner = pipeline.NewRunner(cfg.Portfolio.Path, assembler, engine, writer, log)

	log.WithFields(map[string]interface{}{
		"portfolio": cfg.Portfolio.Path,
		"out_dir":   cfg.Portfolio.OutDir,
		"cache":     cache.Store().Name(),
	}).Debug("Application wired")

	return a, nil
}

// Close releases backend connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
