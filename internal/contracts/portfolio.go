package contracts

import (
	"strings"
	"time"
)

// DefaultBenchmark is used when the portfolio config omits a benchmark
const DefaultBenchmark = "SPY"

// CashTicker marks a non-equity holding (가격 조회/평가 대상 아님)
const CashTicker = "CASH"

// Holding is one configured position of the portfolio
// ⭐ SSOT: 로드 이후 불변
type Holding struct {
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	TargetWeight float64 `json:"targetWeight"`
}

// IsCash reports whether the holding is the cash sleeve
func (h Holding) IsCash() bool {
	return strings.EqualFold(h.Ticker, CashTicker)
}

// Portfolio is the declared portfolio (입력 설정)
type Portfolio struct {
	Name           string    `json:"portfolioName"`
	InceptionDate  time.Time `json:"inceptionDate"`
	Benchmark      string    `json:"benchmark"`
	InitialCapital float64   `json:"initialCapital"`
	Holdings       []Holding `json:"weights"`
}

// Equities returns holdings that are priced (CASH 제외), in config order
func (p *Portfolio) Equities() []Holding {
	out := make([]Holding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		if h.IsCash() {
			continue
		}
		out = append(out, h)
	}
	return out
}

// TotalWeight returns the sum of all target weights
func (p *Portfolio) TotalWeight() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.TargetWeight
	}
	return total
}

// Universe returns the sorted, de-duplicated ticker set to fetch
// (equity tickers + benchmark)
func (p *Portfolio) Universe() []string {
	tickers := make([]string, 0, len(p.Holdings)+1)
	for _, h := range p.Equities() {
		tickers = append(tickers, h.Ticker)
	}
	if p.Benchmark != "" {
		tickers = append(tickers, p.Benchmark)
	}
	return SortedUnique(tickers)
}
