package valuation

import (
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// positionState is the per-ticker state at the valuation date
type positionState struct {
	latest   map[string]float64
	values   map[string]float64
	weights  map[string]float64
	totalMV  float64
	valuedAt time.Time
}

// markToMarket prices every position at the last price on/before valuationDate.
// 현재 비중 = 평가액 / 평가액 합 (합이 0이면 분모 1)
func markToMarket(table *contracts.PriceTable, shares map[string]float64, tickers []string, valuationDate time.Time) positionState {
	st := positionState{
		latest:   make(map[string]float64, len(tickers)),
		values:   make(map[string]float64, len(tickers)),
		weights:  make(map[string]float64, len(tickers)),
		valuedAt: valuationDate,
	}

	for _, t := range tickers {
		p, _ := table.LastOnOrBefore(t, valuationDate)
		st.latest[t] = p
		st.values[t] = shares[t] * p
		st.totalMV += st.values[t]
	}

	denom := st.totalMV
	if denom == 0 {
		denom = 1
	}
	for _, t := range tickers {
		st.weights[t] = st.values[t] / denom
	}
	return st
}

// buildPositions returns one record per priced ticker (설정 순서)
func buildPositions(tickers []string, shares, entry map[string]float64, st positionState) []contracts.PositionRecord {
	positions := make([]contracts.PositionRecord, 0, len(tickers))
	for _, t := range tickers {
		entryValue := shares[t] * entry[t]
		marketValue := st.values[t]

		returnPct := 0.0
		if entry[t] != 0 {
			returnPct = (st.latest[t]/entry[t] - 1.0) * 100.0
		}

		positions = append(positions, contracts.PositionRecord{
			Ticker:        t,
			Shares:        shares[t],
			EntryPrice:    entry[t],
			CurrentPrice:  st.latest[t],
			EntryValue:    entryValue,
			MarketValue:   marketValue,
			CurrentWeight: st.weights[t],
			PnL:           marketValue - entryValue,
			ReturnPct:     returnPct,
		})
	}
	return positions
}

// buildHoldings returns a view of every configured holding.
// 제외된 티커/현금은 비중·수량·평가액 0
func buildHoldings(holdings []contracts.Holding, table *contracts.PriceTable, shares map[string]float64, st positionState) []contracts.HoldingView {
	views := make([]contracts.HoldingView, 0, len(holdings))
	for _, h := range holdings {
		price, ok := st.latest[h.Ticker]
		if !ok && !h.IsCash() {
			price, _ = table.LastOnOrBefore(h.Ticker, st.valuedAt)
		}

		views = append(views, contracts.HoldingView{
			Ticker:       h.Ticker,
			Name:         h.Name,
			Weight:       st.weights[h.Ticker],
			TargetWeight: h.TargetWeight,
			Shares:       shares[h.Ticker],
			Price:        price,
			MarketValue:  st.values[h.Ticker],
		})
	}
	return views
}
