package valuation

import (
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// Series is a dated value series (날짜 오름차순)
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Dates)
}

// Last returns the last date and value
func (s Series) Last() (time.Time, float64) {
	n := len(s.Dates)
	return s.Dates[n-1], s.Values[n-1]
}

// EntryRow returns the first row where every ticker has a price
func EntryRow(table *contracts.PriceTable, tickers []string) (int, error) {
	for i, r := range table.Rows {
		complete := true
		for _, t := range tickers {
			if _, ok := r.Prices[t]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return i, nil
		}
	}
	return -1, contracts.NewIntegrityError(contracts.StageValuation,
		"no date where all portfolio tickers have a price (%v)", tickers)
}

// BuyShares returns fractional shares bought at the entry row.
// shares = capital × weight / entryPrice
func BuyShares(row contracts.PriceRow, weights map[string]float64, capital float64) (map[string]float64, map[string]float64, error) {
	shares := make(map[string]float64, len(weights))
	entry := make(map[string]float64, len(weights))
	for t, w := range weights {
		p := row.Prices[t]
		if p <= 0 {
			return nil, nil, contracts.NewIntegrityError(contracts.StageValuation,
				"non-positive entry price for %s on %s", t, row.Date.Format(contracts.DateLayout))
		}
		shares[t] = capital * w / p
		entry[t] = p
	}
	return shares, entry, nil
}

// ValueSeries returns Σ shares × price for each date from row `from` on.
// 가격 없는 티커는 0으로 기여, 가격이 하나도 없는 날짜는 제외
func ValueSeries(table *contracts.PriceTable, shares map[string]float64, tickers []string, from int) Series {
	var s Series
	for _, r := range table.Rows[from:] {
		total := 0.0
		priced := false
		for _, t := range tickers {
			if p, ok := r.Prices[t]; ok {
				total += shares[t] * p
				priced = true
			}
		}
		if !priced {
			continue
		}
		s.Dates = append(s.Dates, r.Date)
		s.Values = append(s.Values, total)
	}
	return s
}

// AlignBenchmark restricts the benchmark price to the dates of values
func AlignBenchmark(table *contracts.PriceTable, benchmark string, values Series) (Series, error) {
	if !table.HasTicker(benchmark) {
		return Series{}, contracts.NewIntegrityError(contracts.StageValuation,
			"benchmark %s has no price data", benchmark)
	}

	want := make(map[time.Time]bool, values.Len())
	for _, d := range values.Dates {
		want[d] = true
	}

	var s Series
	for _, r := range table.Rows {
		p, ok := r.Prices[benchmark]
		if !ok || !want[r.Date] {
			continue
		}
		s.Dates = append(s.Dates, r.Date)
		s.Values = append(s.Values, p)
	}

	if s.Len() == 0 {
		return Series{}, contracts.NewIntegrityError(contracts.StageValuation,
			"benchmark series empty after aligning to portfolio dates")
	}
	return s, nil
}

// RebaseAndJoin rebases both series to 100 and inner-joins them on date
func RebaseAndJoin(portfolio, benchmark Series) ([]contracts.PerformancePoint, error) {
	portIndex := Rebase(portfolio.Values, 100.0)
	benchIndex := Rebase(benchmark.Values, 100.0)

	bench := make(map[time.Time]float64, benchmark.Len())
	for i, d := range benchmark.Dates {
		bench[d] = benchIndex[i]
	}

	var points []contracts.PerformancePoint
	for i, d := range portfolio.Dates {
		b, ok := bench[d]
		if !ok {
			continue
		}
		points = append(points, contracts.PerformancePoint{
			Date:      d,
			Portfolio: portIndex[i],
			Benchmark: b,
		})
	}

	if len(points) == 0 {
		return nil, contracts.NewIntegrityError(contracts.StageValuation, "combined series empty")
	}
	return points, nil
}

// SliceRange keeps points dated on/after today − days (days = 0: 전체)
func SliceRange(points []contracts.PerformancePoint, days int, today time.Time) []contracts.PerformancePoint {
	if days <= 0 {
		return points
	}
	cutoff := contracts.CalendarDate(today).AddDate(0, 0, -days)

	out := make([]contracts.PerformancePoint, 0, len(points))
	for _, p := range points {
		if !p.Date.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
