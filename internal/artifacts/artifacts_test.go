package artifacts

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/logger"
)

func day(s string) time.Time {
	t, _ := time.Parse(contracts.DateLayout, s)
	return t
}

func testPortfolio() *contracts.Portfolio {
	return &contracts.Portfolio{
		Name:           "Growth",
		InceptionDate:  day("2023-01-03"),
		Benchmark:      "SPY",
		InitialCapital: 10000,
	}
}

func testValuation() *contracts.Valuation {
	points := []contracts.PerformancePoint{
		{Date: day("2023-01-03"), Portfolio: 100, Benchmark: 100},
		{Date: day("2023-01-04"), Portfolio: 110.123456, Benchmark: 101.00005},
	}
	performance := make([]contracts.PerformanceSeries, 0, 4)
	for _, r := range contracts.AllRanges() {
		performance = append(performance, contracts.PerformanceSeries{Range: r, Points: points})
	}

	return &contracts.Valuation{
		AsOf: day("2023-01-06"),
		Snapshot: contracts.Snapshot{
			EntryDate:     day("2023-01-03"),
			ValuationDate: day("2023-01-04"),
		},
		Performance: performance,
		Metrics: contracts.MetricsSummary{
			TotalReturnPct:      10.123456,
			YTDReturnPct:        10.1235,
			VolatilityAnnualPct: 15.55555,
			Sharpe:              1.23456,
			MaxDrawdownPct:      -3.21049,
			AUM:                 11012.34567,
			Profit:              1012.34567,
			InitialCapital:      10000,
		},
		Positions: []contracts.PositionRecord{
			{
				Ticker:        "A",
				Shares:        60.123456789,
				EntryPrice:    100.00004,
				CurrentPrice:  110.12345,
				EntryValue:    6000.004,
				MarketValue:   6620.987,
				CurrentWeight: 0.60123456789,
				PnL:           620.983,
				ReturnPct:     10.12345,
			},
		},
		Holdings: []contracts.HoldingView{
			{Ticker: "A", Name: "Alpha", Weight: 0.6012345678, TargetWeight: 0.6, Shares: 60.123456789, Price: 110.12345, MarketValue: 6620.987},
		},
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   float64
	}{
		{1.23456, 3, 1.235},
		{-1.23456, 3, -1.235},
		{2.5, 0, 3},
		{100, 4, 100},
		{0.000000015, 8, 0.00000002},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, round(tt.v, tt.places))
	}
}

func TestBenchmarkName(t *testing.T) {
	assert.Equal(t, "S&P 500 (SPY)", BenchmarkName("SPY"))
	assert.Equal(t, "QQQ", BenchmarkName("QQQ"))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, []string{
		"performance.1m.json",
		"performance.3m.json",
		"performance.1y.json",
		"performance.max.json",
		"metrics.json",
		"holdings.json",
		"positions.json",
	}, FileNames())
}

func TestNewPerformanceDoc_FromValuationSeries(t *testing.T) {
	series, ok := testValuation().Series(contracts.RangeMax)
	require.True(t, ok)

	doc := NewPerformanceDoc(*series)
	assert.Equal(t, "MAX", doc.Range)
	require.Len(t, doc.Points, 2)
	assert.Equal(t, "2023-01-03", doc.Points[0].Date)
	assert.Equal(t, 100.0, doc.Points[0].Portfolio)
	assert.Equal(t, 110.1235, doc.Points[1].Portfolio)
}

func TestWriter_WritesAllArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, logger.Nop())

	assert.False(t, AllExist(dir))

	paths, err := w.Write(testValuation(), testPortfolio())
	require.NoError(t, err)
	assert.Len(t, paths, 7)
	assert.True(t, AllExist(dir))
	assert.Empty(t, Missing(dir))

	r := NewReader(dir)

	perf, err := r.Performance(contracts.Range3M)
	require.NoError(t, err)
	assert.Equal(t, "3M", perf.Range)
	require.Len(t, perf.Points, 2)
	assert.Equal(t, "2023-01-04", perf.Points[1].Date)
	assert.Equal(t, 110.1235, perf.Points[1].Portfolio)
	assert.Equal(t, 101.0001, perf.Points[1].Benchmark)

	m, err := r.Metrics()
	require.NoError(t, err)
	assert.Equal(t, "Growth", m.PortfolioName)
	assert.Equal(t, "S&P 500 (SPY)", m.BenchmarkName)
	assert.Equal(t, "Since inception", m.Since)
	assert.Equal(t, "2023-01-06", m.AsOf)
	assert.Equal(t, 10.123, m.TotalReturnPct)
	assert.Equal(t, 15.556, m.VolatilityAnnualPct)
	assert.Equal(t, 1.235, m.Sharpe)
	assert.Equal(t, -3.21, m.MaxDrawdownPct)
	assert.Equal(t, 11012.35, m.AUMUsd)
	assert.Equal(t, 1012.35, m.ProfitUsd)

	h, err := r.Holdings()
	require.NoError(t, err)
	require.Len(t, h.Holdings, 1)
	assert.Equal(t, 0.601235, h.Holdings[0].Weight)
	assert.Equal(t, 60.12345679, h.Holdings[0].Shares)
	assert.Equal(t, 110.1235, h.Holdings[0].Price)
	assert.Equal(t, 6620.99, h.Holdings[0].MarketValue)

	p, err := r.Positions()
	require.NoError(t, err)
	assert.Equal(t, "2023-01-03", p.EntryDateUsed)
	assert.Equal(t, "2023-01-04", p.ValuationDate)
	require.Len(t, p.Positions, 1)
	assert.Equal(t, 100.0, p.Positions[0].EntryPrice)
	assert.Equal(t, 620.98, p.Positions[0].PnLUsd)
	assert.Equal(t, 10.123, p.Positions[0].ReturnPct)

	// 임시 파일이 남지 않아야 함
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestWriter_EmptyListsSerializeAsArrays(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWriter(dir, logger.Nop()).Write(testValuation(), testPortfolio())
	require.NoError(t, err)

	for _, name := range []string{HoldingsFile, PositionsFile} {
		raw, err := NewReader(dir).Raw(name)
		require.NoError(t, err)

		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.JSONEq(t, `[]`, string(doc["missingTickersDropped"]), name)
		assert.JSONEq(t, `false`, string(doc["weightsRenormalized"]), name)
	}
}

func TestWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	v := testValuation()
	_, err := w.Write(v, testPortfolio())
	require.NoError(t, err)

	v.MissingTickersDropped = []string{"C"}
	v.WeightsRenormalized = true
	_, err = w.Write(v, testPortfolio())
	require.NoError(t, err)

	h, err := NewReader(dir).Holdings()
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, h.MissingTickersDropped)
	assert.True(t, h.WeightsRenormalized)
}

func TestWriter_MissingSeries(t *testing.T) {
	v := testValuation()
	v.Performance = v.Performance[:2]

	_, err := NewWriter(t.TempDir(), logger.Nop()).Write(v, testPortfolio())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataIntegrity)
}

func TestReader_NotBuilt(t *testing.T) {
	_, err := NewReader(t.TempDir()).Metrics()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotBuilt))
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetricsFile), []byte("{}"), 0o644))

	missing := Missing(dir)
	assert.Len(t, missing, 6)
	assert.NotContains(t, missing, MetricsFile)
	assert.False(t, AllExist(dir))
}
