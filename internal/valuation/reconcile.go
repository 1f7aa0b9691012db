package valuation

import (
	"github.com/wonny/folio/internal/contracts"
)

// Reconciliation is the intersection of configured holdings and priced tickers
type Reconciliation struct {
	Tickers     []string           // 평가 대상 (설정 순서)
	Weights     map[string]float64 // 재정규화된 비중 (합 = 1)
	Missing     []string           // 가격 없는 티커 (설정 순서)
	Renormalize bool
}

// Reconcile drops holdings without prices and renormalizes the rest.
// CASH는 평가 대상도 아니고 누락으로도 보고하지 않음
func Reconcile(holdings []contracts.Holding, table *contracts.PriceTable) (*Reconciliation, error) {
	rec := &Reconciliation{Weights: make(map[string]float64)}

	sum := 0.0
	for _, h := range holdings {
		if h.IsCash() {
			continue
		}
		if !table.HasTicker(h.Ticker) {
			rec.Missing = append(rec.Missing, h.Ticker)
			continue
		}
		rec.Tickers = append(rec.Tickers, h.Ticker)
		rec.Weights[h.Ticker] = h.TargetWeight
		sum += h.TargetWeight
	}

	if sum <= 0 {
		return nil, contracts.NewConfigError(contracts.StageValuation, nil,
			"no portfolio tickers available after filtering (missing=%v)", rec.Missing)
	}

	for t, w := range rec.Weights {
		rec.Weights[t] = w / sum
	}
	rec.Renormalize = len(rec.Missing) > 0
	return rec, nil
}
