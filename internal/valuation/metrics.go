package valuation

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics
const TradingDaysPerYear = 252

// stdEpsilon treats float noise on constant series as zero dispersion
const stdEpsilon = 1e-12

// =============================================================================
// Index / Returns (Pure)
// =============================================================================

// ComputeIndex compounds returns into an index starting at base.
// index[i] = base × Π(1 + r[0..i]), NaN 수익률은 0으로 취급
func ComputeIndex(returns []float64, base float64) []float64 {
	index := make([]float64, len(returns))
	level := base
	for i, r := range returns {
		if math.IsNaN(r) {
			r = 0
		}
		level *= 1.0 + r
		index[i] = level
	}
	return index
}

// ReturnsFromIndex returns the percent change of an index (first = 0).
// ComputeIndex(ReturnsFromIndex(x), x[0]) == x
func ReturnsFromIndex(index []float64) []float64 {
	returns := make([]float64, len(index))
	for i := 1; i < len(index); i++ {
		if index[i-1] == 0 {
			continue
		}
		returns[i] = index[i]/index[i-1] - 1.0
	}
	return returns
}

// Rebase scales values so the first equals base
func Rebase(values []float64, base float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || values[0] == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / values[0] * base
	}
	return out
}

// =============================================================================
// Risk / Return Statistics (Pure)
// =============================================================================

// AnnualizedVolatility returns population std of daily returns × √252
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(dailyReturns, nil)
	if math.IsNaN(std) || std < stdEpsilon {
		return 0
	}
	return std * math.Sqrt(TradingDaysPerYear)
}

// DailyRiskFree converts an annual risk-free rate into a daily one
func DailyRiskFree(annual float64) float64 {
	return math.Pow(1.0+annual, 1.0/TradingDaysPerYear) - 1.0
}

// SharpeRatio returns mean(excess)/popstd(excess) × √252.
// 분산이 0이거나 NaN이면 0
func SharpeRatio(dailyReturns []float64, rfAnnual float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}

	rfDaily := DailyRiskFree(rfAnnual)
	excess := make([]float64, len(dailyReturns))
	for i, r := range dailyReturns {
		excess[i] = r - rfDaily
	}

	mean, std := stat.PopMeanStdDev(excess, nil)
	if math.IsNaN(std) || std < stdEpsilon {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns min(index / running max − 1) (≤ 0)
func MaxDrawdown(index []float64) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, v := range index {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := v/peak - 1.0; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// TotalReturnPct returns (last/first − 1) × 100
func TotalReturnPct(values []float64) float64 {
	if len(values) < 2 || values[0] == 0 {
		return 0
	}
	return (values[len(values)-1]/values[0] - 1.0) * 100.0
}

// YTDReturnPct returns the return of values dated on/after Jan 1 of today's year.
// 해당 구간 관측치가 2개 미만이면 0
func YTDReturnPct(dates []time.Time, values []float64, today time.Time) float64 {
	yearStart := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	var ytd []float64
	for i, d := range dates {
		if !d.Before(yearStart) {
			ytd = append(ytd, values[i])
		}
	}
	if len(ytd) < 2 {
		return 0
	}
	return TotalReturnPct(ytd)
}
