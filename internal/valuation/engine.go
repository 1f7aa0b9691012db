package valuation

import (
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/logger"
)

// Engine turns a price table and holdings into a Valuation
// ⭐ SSOT: 평가 계산은 여기서만. I/O 없음 (순수 계산기 + 로그)
type Engine struct {
	riskFreeAnnual float64
	now            func() time.Time
	logger         *logger.Logger
}

// NewEngine creates a new valuation engine
func NewEngine(riskFreeAnnual float64, log *logger.Logger) *Engine {
	return &Engine{
		riskFreeAnnual: riskFreeAnnual,
		now:            time.Now,
		logger:         log.WithField("module", "valuation"),
	}
}

// WithClock replaces the clock that defines "today" (tests)
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Today returns the current UTC calendar date
func (e *Engine) Today() time.Time {
	return contracts.CalendarDate(e.now().UTC())
}

// Value runs reconciliation → inception → value series → benchmark →
// rebasing → metrics → positions → range slicing
func (e *Engine) Value(table *contracts.PriceTable, holdings []contracts.Holding, benchmark string, initialCapital float64) (*contracts.Valuation, error) {
	if table.IsEmpty() {
		return nil, contracts.NewIntegrityError(contracts.StageValuation, "price table is empty")
	}
	today := e.Today()

	// 1. Reconciliation
	rec, err := Reconcile(holdings, table)
	if err != nil {
		return nil, err
	}
	if len(rec.Missing) > 0 {
		e.logger.WithField("missing", rec.Missing).Warn("Missing/unsupported tickers, dropping + renormalizing")
	}

	// 2. Inception pricing
	entryIdx, err := EntryRow(table, rec.Tickers)
	if err != nil {
		return nil, err
	}
	entryRow := table.Rows[entryIdx]
	shares, entryPrices, err := BuyShares(entryRow, rec.Weights, initialCapital)
	if err != nil {
		return nil, err
	}

	// 3. Daily value
	values := ValueSeries(table, shares, rec.Tickers, entryIdx)
	if values.Len() == 0 {
		return nil, contracts.NewIntegrityError(contracts.StageValuation, "portfolio value series is empty")
	}

	// 4. Benchmark alignment
	bench, err := AlignBenchmark(table, benchmark, values)
	if err != nil {
		return nil, err
	}

	// 5. Rebasing
	points, err := RebaseAndJoin(values, bench)
	if err != nil {
		return nil, err
	}

	// 6. Metrics
	valuationDate, aum := values.Last()
	returns := ReturnsFromIndex(values.Values)
	portIndex := Rebase(values.Values, 100.0)
	metrics := contracts.MetricsSummary{
		TotalReturnPct:      TotalReturnPct(values.Values),
		YTDReturnPct:        YTDReturnPct(values.Dates, values.Values, today),
		VolatilityAnnualPct: AnnualizedVolatility(returns) * 100.0,
		Sharpe:              SharpeRatio(returns, e.riskFreeAnnual),
		MaxDrawdownPct:      MaxDrawdown(portIndex) * 100.0,
		AUM:                 aum,
		Profit:              aum - initialCapital,
		InitialCapital:      initialCapital,
	}

	// 7. Positions / holdings (한 번만 계산)
	st := markToMarket(table, shares, rec.Tickers, valuationDate)
	positions := buildPositions(rec.Tickers, shares, entryPrices, st)
	views := buildHoldings(holdings, table, shares, st)

	// 8. Range slicing
	ranges := contracts.AllRanges()
	performance := make([]contracts.PerformanceSeries, 0, len(ranges))
	for _, r := range ranges {
		performance = append(performance, contracts.PerformanceSeries{
			Range:  r,
			Points: SliceRange(points, r.Days(), today),
		})
	}

	e.logger.WithFields(map[string]interface{}{
		"entry_date":     entryRow.Date.Format(contracts.DateLayout),
		"valuation_date": valuationDate.Format(contracts.DateLayout),
		"points":         len(points),
		"aum":            aum,
		"total_return":   metrics.TotalReturnPct,
	}).Info("Valuation complete")

	return &contracts.Valuation{
		AsOf: today,
		Snapshot: contracts.Snapshot{
			EntryDate:     entryRow.Date,
			ValuationDate: valuationDate,
			Shares:        shares,
			EntryPrices:   entryPrices,
			CurrentPrices: st.latest,
			Weights:       rec.Weights,
		},
		Performance:           performance,
		Metrics:               metrics,
		Positions:             positions,
		Holdings:              views,
		MissingTickersDropped: rec.Missing,
		WeightsRenormalized:   rec.Renormalize,
	}, nil
}
