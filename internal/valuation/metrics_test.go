package valuation

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/wonny/folio/internal/contracts"
)

func approxEqual(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

func TestComputeIndex(t *testing.T) {
	index := ComputeIndex([]float64{0, 0.1, math.NaN(), -0.5}, 100)
	assert.InDeltaSlice(t, []float64{100, 110, 110, 55}, index, 1e-9)
}

func TestReturnsFromIndex(t *testing.T) {
	returns := ReturnsFromIndex([]float64{100, 110, 121})
	assert.InDeltaSlice(t, []float64{0, 0.1, 0.1}, returns, 1e-12)
	assert.Empty(t, ReturnsFromIndex(nil))
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name  string
		index []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"monotonic", []float64{100, 101, 101, 120}, 0},
		{"single dip", []float64{100, 120, 90, 130}, -0.25},
		{"deepest wins", []float64{100, 80, 100, 200, 100}, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdown(tt.index), 1e-12)
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	// popstd([0, 0.01, -0.01]) = sqrt(2/3)*0.01
	got := AnnualizedVolatility([]float64{0, 0.01, -0.01})
	assert.InDelta(t, math.Sqrt(2.0/3.0)*0.01*math.Sqrt(252), got, 1e-12)
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0, 0.02, 0}
	mean := 0.02 / 3
	std := math.Sqrt((2*mean*mean + (0.02-mean)*(0.02-mean)) / 3)
	assert.InDelta(t, mean/std*math.Sqrt(252), SharpeRatio(returns, 0), 1e-9)

	assert.Equal(t, 0.0, SharpeRatio([]float64{0, 0, 0}, 0))
	assert.Equal(t, 0.0, SharpeRatio(nil, 0.03))

	// 무위험 수익률은 평균만 이동시키고 분산은 그대로
	assert.Less(t, SharpeRatio(returns, 0.05), SharpeRatio(returns, 0))
}

func TestDailyRiskFree(t *testing.T) {
	assert.Equal(t, 0.0, DailyRiskFree(0))
	assert.InDelta(t, 0.05, math.Pow(1+DailyRiskFree(0.05), 252)-1, 1e-12)
}

func TestYTDReturnPct(t *testing.T) {
	dates := []time.Time{
		time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	values := []float64{90, 100, 105}

	assert.InDelta(t, 5.0, YTDReturnPct(dates, values, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), 1e-9)
	assert.Equal(t, 0.0, YTDReturnPct(dates, values, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)), "fewer than two points")
}

func TestSliceRange(t *testing.T) {
	today := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	var points []contracts.PerformancePoint
	for d := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC); !d.After(today); d = d.AddDate(0, 0, 1) {
		points = append(points, contracts.PerformancePoint{Date: d})
	}

	oneMonth := SliceRange(points, contracts.Range1M.Days(), today)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), oneMonth[0].Date)
	assert.Len(t, oneMonth, 32)

	assert.Len(t, SliceRange(points, contracts.RangeMax.Days(), today), len(points))
}

func TestProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("ComputeIndex and ReturnsFromIndex are inverses", prop.ForAll(
		func(returns []float64, base float64) bool {
			if len(returns) == 0 {
				return true
			}
			returns[0] = 0

			index := ComputeIndex(returns, base)
			back := ReturnsFromIndex(index)
			for i := range returns {
				if !approxEqual(back[i], returns[i], 1e-9) {
					return false
				}
			}

			again := ComputeIndex(ReturnsFromIndex(index), index[0])
			for i := range index {
				if !approxEqual(again[i], index[i], 1e-9) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-0.5, 0.5)),
		gen.Float64Range(1, 1000),
	))

	properties.Property("max drawdown is non-positive and zero iff non-decreasing", prop.ForAll(
		func(steps []int) bool {
			index := make([]float64, 0, len(steps)+1)
			level := 100.0
			index = append(index, level)
			nonDecreasing := true
			for _, s := range steps {
				level *= 1 + float64(s)/100
				index = append(index, level)
				if s < 0 {
					nonDecreasing = false
				}
			}

			dd := MaxDrawdown(index)
			return dd <= 0 && (dd == 0) == nonDecreasing
		},
		gen.SliceOf(gen.IntRange(-20, 20)),
	))

	properties.Property("sharpe is zero for constant returns", prop.ForAll(
		func(c float64, n int) bool {
			returns := make([]float64, n)
			for i := range returns {
				returns[i] = c
			}
			return SharpeRatio(returns, 0) == 0
		},
		gen.Float64Range(-0.05, 0.05),
		gen.IntRange(1, 300),
	))

	properties.Property("renormalized weights sum to one", prop.ForAll(
		func(weights []float64, present []bool) bool {
			holdings := make([]contracts.Holding, len(weights))
			table := &contracts.PriceTable{}
			anyPresent := false
			for i, w := range weights {
				ticker := string(rune('A' + i))
				holdings[i] = contracts.Holding{Ticker: ticker, TargetWeight: w}
				if present[i] || (i == len(weights)-1 && !anyPresent) {
					table.Tickers = append(table.Tickers, ticker)
					anyPresent = true
				}
			}

			rec, err := Reconcile(holdings, table)
			if err != nil {
				return false
			}
			sum := 0.0
			for _, w := range rec.Weights {
				sum += w
			}
			return math.Abs(sum-1) < 1e-9 && len(rec.Tickers)+len(rec.Missing) == len(holdings)
		},
		gen.SliceOfN(6, gen.Float64Range(0.01, 1)),
		gen.SliceOfN(6, gen.Bool()),
	))

	properties.TestingRun(t)
}
