package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/portfolio"
	"github.com/wonny/folio/internal/valuation"
	"github.com/wonny/folio/pkg/logger"
)

// PriceSource returns a merged adjusted-close table for tickers since start
type PriceSource interface {
	GetPrices(ctx context.Context, tickers []string, start time.Time, forceRefresh bool) (*contracts.PriceTable, error)
}

// Runner coordinates one build run
// ⭐ SSOT: 파이프라인 조율은 여기서만
// config → universe → prices → valuation → artifacts
type Runner struct {
	portfolioPath string
	prices        PriceSource
	engine        *valuation.Engine
	writer        *artifacts.Writer
	logger        *logger.Logger
}

// RunConfig holds configuration for a run
type RunConfig struct {
	RunID        string // 비어 있으면 uuid 생성
	ForceRefresh bool   // 캐시 무시하고 재조회
}

// RunResult holds the results of a run
type RunResult struct {
	RunID           string
	Status          contracts.RunStatus
	Success         bool
	Error           error
	CompletedStages []string
	Portfolio       *contracts.Portfolio
	Universe        []string
	Valuation       *contracts.Valuation
	Paths           []string
	Dropped         []string
	Duration        time.Duration
}

// NewRunner creates a new runner
func NewRunner(
	portfolioPath string,
	prices PriceSource,
	engine *valuation.Engine,
	writer *artifacts.Writer,
	log *logger.Logger,
) *Runner {
	return &Runner{
		portfolioPath: portfolioPath,
		prices:        prices,
		engine:        engine,
		writer:        writer,
		logger:        log.WithField("module", "pipeline"),
	}
}

// Run executes the complete pipeline.
// 가격 단계가 실패하고 기존 산출물 7개가 모두 있으면 kept_last_good 으로 성공 처리
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}

	result := &RunResult{
		RunID:           cfg.RunID,
		CompletedStages: make([]string, 0, len(contracts.AllStages())),
	}
	log := r.logger.WithField("run_id", cfg.RunID)

	log.WithFields(map[string]interface{}{
		"portfolio":     r.portfolioPath,
		"out_dir":       r.writer.OutDir(),
		"force_refresh": cfg.ForceRefresh,
	}).Info("Starting build run")

	// config
	p, err := portfolio.Load(r.portfolioPath)
	if err != nil {
		return r.fail(result, contracts.StageConfig, err)
	}
	result.Portfolio = p
	result.CompletedStages = append(result.CompletedStages, contracts.StageConfig.String())

	// universe
	universe := p.Universe()
	if len(universe) == 0 {
		return r.fail(result, contracts.StageUniverse,
			contracts.NewConfigError(contracts.StageUniverse, nil, "universe is empty"))
	}
	result.Universe = universe
	result.CompletedStages = append(result.CompletedStages, contracts.StageUniverse.String())

	// prices
	table, err := r.prices.GetPrices(ctx, universe, p.InceptionDate, cfg.ForceRefresh)
	if err != nil {
		if r.canKeepLastGood(ctx, err) {
			result.Status = contracts.RunStatusKeptLastGood
			result.Success = true
			result.Duration = time.Since(startTime)
			log.WithError(err).WithField("out_dir", r.writer.OutDir()).
				Warn("Price refresh failed, keeping last good artifacts")
			return result, nil
		}
		return r.fail(result, contracts.StagePrices, err)
	}
	result.CompletedStages = append(result.CompletedStages, contracts.StagePrices.String())

	// valuation
	v, err := r.engine.Value(table, p.Holdings, p.Benchmark, p.InitialCapital)
	if err != nil {
		return r.fail(result, contracts.StageValuation, err)
	}
	result.Valuation = v
	result.Dropped = v.MissingTickersDropped
	result.CompletedStages = append(result.CompletedStages, contracts.StageValuation.String())

	// artifacts
	paths, err := r.writer.Write(v, p)
	if err != nil {
		return r.fail(result, contracts.StageArtifacts, err)
	}
	result.Paths = paths
	result.CompletedStages = append(result.CompletedStages, contracts.StageArtifacts.String())

	result.Status = contracts.RunStatusUpdated
	result.Success = true
	result.Duration = time.Since(startTime)

	log.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
		"dropped":  result.Dropped,
		"aum":      v.Metrics.AUM,
	}).Info("Build run completed successfully")

	return result, nil
}

// canKeepLastGood reports whether a price-stage failure degrades softly.
// 취소된 컨텍스트는 항상 에러로 전파
func (r *Runner) canKeepLastGood(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return artifacts.AllExist(r.writer.OutDir())
}

func (r *Runner) fail(result *RunResult, stage contracts.Stage, err error) (*RunResult, error) {
	result.Error = fmt.Errorf("%s failed: %w", stage, err)
	r.logger.WithError(err).WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"stage":  stage.String(),
		"kind":   errorKind(err),
	}).Error("Build run failed")
	return result, result.Error
}

func errorKind(err error) string {
	if kind := contracts.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "unknown"
}
