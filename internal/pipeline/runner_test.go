package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/valuation"
	"github.com/wonny/folio/pkg/logger"
)

const testPortfolio = `{
  "portfolioName": "Growth",
  "inceptionDate": "2023-01-03",
  "benchmark": "SPY",
  "initialCapital": 10000,
  "weights": [
    {"ticker": "A", "name": "Alpha", "weight": 0.6},
    {"ticker": "B", "name": "Beta", "weight": 0.4}
  ]
}`

func day(s string) time.Time {
	t, _ := time.Parse(contracts.DateLayout, s)
	return t
}

// priceSourceFunc adapts a function to PriceSource
type priceSourceFunc func(ctx context.Context, tickers []string, start time.Time, force bool) (*contracts.PriceTable, error)

func (f priceSourceFunc) GetPrices(ctx context.Context, tickers []string, start time.Time, force bool) (*contracts.PriceTable, error) {
	return f(ctx, tickers, start, force)
}

func goodTable() *contracts.PriceTable {
	return &contracts.PriceTable{
		Tickers: []string{"A", "B", "SPY"},
		Rows: []contracts.PriceRow{
			{Date: day("2023-01-03"), Prices: map[string]float64{"A": 100, "B": 50, "SPY": 380}},
			{Date: day("2023-01-04"), Prices: map[string]float64{"A": 110, "B": 55, "SPY": 383.8}},
			{Date: day("2023-01-05"), Prices: map[string]float64{"A": 121, "B": 60.5, "SPY": 380}},
		},
	}
}

func exhausted() error {
	return &contracts.StageError{
		Kind:     contracts.ErrFetchExhausted,
		Stage:    contracts.StageFetch,
		Tickers:  []string{"A", "B", "SPY"},
		Attempts: 6,
		Message:  "batch failed after retries",
	}
}

type fixture struct {
	dir    string
	outDir string
	path   string
}

func newFixture(t *testing.T, doc string) fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return fixture{dir: dir, outDir: filepath.Join(dir, "out"), path: path}
}

func (fx fixture) runner(source PriceSource) *Runner {
	log := logger.Nop()
	engine := valuation.NewEngine(0, log).WithClock(func() time.Time {
		return day("2023-01-06").Add(12 * time.Hour)
	})
	return NewRunner(fx.path, source, engine, artifacts.NewWriter(fx.outDir, log), log)
}

func TestRun_Success(t *testing.T) {
	fx := newFixture(t, testPortfolio)

	var gotTickers []string
	var gotStart time.Time
	var gotForce bool
	source := priceSourceFunc(func(_ context.Context, tickers []string, start time.Time, force bool) (*contracts.PriceTable, error) {
		gotTickers, gotStart, gotForce = tickers, start, force
		return goodTable(), nil
	})

	result, err := fx.runner(source).Run(context.Background(), RunConfig{RunID: "run-1", ForceRefresh: true})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, contracts.RunStatusUpdated, result.Status)
	assert.Equal(t, []string{"config", "universe", "prices", "valuation", "artifacts"}, result.CompletedStages)
	assert.Equal(t, []string{"A", "B", "SPY"}, result.Universe)
	assert.Len(t, result.Paths, 7)
	assert.True(t, artifacts.AllExist(fx.outDir))

	assert.Equal(t, []string{"A", "B", "SPY"}, gotTickers)
	assert.Equal(t, day("2023-01-03"), gotStart)
	assert.True(t, gotForce)

	m, err := artifacts.NewReader(fx.outDir).Metrics()
	require.NoError(t, err)
	assert.Equal(t, 21.0, m.TotalReturnPct)
	assert.Equal(t, 12100.0, m.AUMUsd)
}

func TestRun_GeneratesRunID(t *testing.T) {
	fx := newFixture(t, testPortfolio)
	source := priceSourceFunc(func(context.Context, []string, time.Time, bool) (*contracts.PriceTable, error) {
		return goodTable(), nil
	})

	result, err := fx.runner(source).Run(context.Background(), RunConfig{})
	require.NoError(t, err)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
}

func TestRun_PriceFailureWithoutArtifacts(t *testing.T) {
	fx := newFixture(t, testPortfolio)
	source := priceSourceFunc(func(context.Context, []string, time.Time, bool) (*contracts.PriceTable, error) {
		return nil, exhausted()
	})

	result, err := fx.runner(source).Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrFetchExhausted)
	assert.False(t, result.Success)
	assert.Equal(t, []string{"config", "universe"}, result.CompletedStages)
	assert.Len(t, artifacts.Missing(fx.outDir), 7)
}

func TestRun_KeepsLastGood(t *testing.T) {
	fx := newFixture(t, testPortfolio)

	fail := false
	source := priceSourceFunc(func(context.Context, []string, time.Time, bool) (*contracts.PriceTable, error) {
		if fail {
			return nil, exhausted()
		}
		return goodTable(), nil
	})
	runner := fx.runner(source)

	_, err := runner.Run(context.Background(), RunConfig{})
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(fx.outDir, artifacts.MetricsFile))
	require.NoError(t, err)

	fail = true
	result, err := runner.Run(context.Background(), RunConfig{ForceRefresh: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, contracts.RunStatusKeptLastGood, result.Status)
	assert.Nil(t, result.Valuation)

	after, err := os.ReadFile(filepath.Join(fx.outDir, artifacts.MetricsFile))
	require.NoError(t, err)
	assert.Equal(t, before, after, "artifacts untouched")
}

func TestRun_CancelledContextIsNotSoftened(t *testing.T) {
	fx := newFixture(t, testPortfolio)
	source := priceSourceFunc(func(context.Context, []string, time.Time, bool) (*contracts.PriceTable, error) {
		return goodTable(), nil
	})
	runner := fx.runner(source)
	_, err := runner.Run(context.Background(), RunConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cancelled := priceSourceFunc(func(ctx context.Context, _ []string, _ time.Time, _ bool) (*contracts.PriceTable, error) {
		return nil, ctx.Err()
	})

	_, err = fx.runner(cancelled).Run(ctx, RunConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ConfigError(t *testing.T) {
	fx := newFixture(t, `{"portfolioName": "Bad", "inceptionDate": "2023-01-03", "initialCapital": 100,
		"weights": [{"ticker": "A", "weight": 0.5}]}`)

	called := false
	source := priceSourceFunc(func(context.Context, []string, time.Time, bool) (*contracts.PriceTable, error) {
		called = true
		return goodTable(), nil
	})

	result, err := fx.runner(source).Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrConfigInvariant)
	assert.Empty(t, result.CompletedStages)
	assert.False(t, called)
}

func TestRun_ValuationErrorWritesNothing(t *testing.T) {
	fx := newFixture(t, testPortfolio)
	source := priceSourceFunc(func(context.Context, []string, time.Time, bool) (*contracts.PriceTable, error) {
		table := goodTable()
		for _, row := range table.Rows {
			delete(row.Prices, "SPY")
		}
		return table, nil
	})

	result, err := fx.runner(source).Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataIntegrity)
	assert.Equal(t, []string{"config", "universe", "prices"}, result.CompletedStages)
	assert.Len(t, artifacts.Missing(fx.outDir), 7)
}
