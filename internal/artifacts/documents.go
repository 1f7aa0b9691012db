package artifacts

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/folio/internal/contracts"
)

// File names in OUT_DIR
const (
	MetricsFile   = "metrics.json"
	HoldingsFile  = "holdings.json"
	PositionsFile = "positions.json"
)

// PerformanceFile returns performance.<range>.json
func PerformanceFile(r contracts.Range) string {
	return "performance." + string(r) + ".json"
}

// FileNames returns every artifact file name
func FileNames() []string {
	names := make([]string, 0, 7)
	for _, r := range contracts.AllRanges() {
		names = append(names, PerformanceFile(r))
	}
	return append(names, MetricsFile, HoldingsFile, PositionsFile)
}

// Rounding places per field family
const (
	placesIndex   = 4 // performance 지수
	placesPct     = 3 // %, sharpe
	placesMoney   = 2
	placesPrice   = 4
	placesShares  = 8
	placesWeights = 6
)

// round rounds half away from zero at places (NaN/Inf → 0)
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// PerformanceDoc is performance.<range>.json
type PerformanceDoc struct {
	Range  string     `json:"range"`
	Points []PointDoc `json:"points"`
}

// PointDoc is one chart point
type PointDoc struct {
	Date      string  `json:"date"`
	Portfolio float64 `json:"portfolio"`
	Benchmark float64 `json:"benchmark"`
}

// MetricsDoc is metrics.json
type MetricsDoc struct {
	PortfolioName       string  `json:"portfolioName"`
	BenchmarkName       string  `json:"benchmarkName"`
	Since               string  `json:"since"`
	AsOf                string  `json:"asOf"`
	TotalReturnPct      float64 `json:"totalReturnPct"`
	YTDReturnPct        float64 `json:"ytdReturnPct"`
	VolatilityAnnualPct float64 `json:"volatilityAnnualPct"`
	Sharpe              float64 `json:"sharpe"`
	MaxDrawdownPct      float64 `json:"maxDrawdownPct"`
	AUMUsd              float64 `json:"aumUsd"`
	ProfitUsd           float64 `json:"profitUsd"`
	InitialCapitalUsd   float64 `json:"initialCapitalUsd"`
}

// HoldingsDoc is holdings.json
type HoldingsDoc struct {
	AsOf                  string       `json:"asOf"`
	Holdings              []HoldingDoc `json:"holdings"`
	MissingTickersDropped []string     `json:"missingTickersDropped"`
	WeightsRenormalized   bool         `json:"weightsRenormalized"`
}

// HoldingDoc is one configured holding
type HoldingDoc struct {
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	TargetWeight float64 `json:"targetWeight"`
	Shares       float64 `json:"shares"`
	Price        float64 `json:"price"`
	MarketValue  float64 `json:"marketValue"`
}

// PositionsDoc is positions.json
type PositionsDoc struct {
	AsOf                  string        `json:"asOf"`
	EntryDateUsed         string        `json:"entryDateUsed"`
	ValuationDate         string        `json:"valuationDate"`
	InitialCapitalUsd     float64       `json:"initialCapitalUsd"`
	AUMUsd                float64       `json:"aumUsd"`
	Positions             []PositionDoc `json:"positions"`
	MissingTickersDropped []string      `json:"missingTickersDropped"`
	WeightsRenormalized   bool          `json:"weightsRenormalized"`
}

// PositionDoc is one priced position
type PositionDoc struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	EntryPrice    float64 `json:"entryPrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	EntryValue    float64 `json:"entryValue"`
	MarketValue   float64 `json:"marketValue"`
	CurrentWeight float64 `json:"currentWeight"`
	PnLUsd        float64 `json:"pnlUsd"`
	ReturnPct     float64 `json:"returnPct"`
}

// BenchmarkName returns the display name of a benchmark
func BenchmarkName(benchmark string) string {
	if strings.EqualFold(benchmark, contracts.DefaultBenchmark) {
		return "S&P 500 (" + benchmark + ")"
	}
	return benchmark
}

// NewPerformanceDoc converts a series (지수 소수 4자리)
func NewPerformanceDoc(s contracts.PerformanceSeries) PerformanceDoc {
	doc := PerformanceDoc{
		Range:  strings.ToUpper(string(s.Range)),
		Points: make([]PointDoc, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		doc.Points = append(doc.Points, PointDoc{
			Date:      p.Date.Format(contracts.DateLayout),
			Portfolio: round(p.Portfolio, placesIndex),
			Benchmark: round(p.Benchmark, placesIndex),
		})
	}
	return doc
}

// NewMetricsDoc converts the metrics summary
func NewMetricsDoc(v *contracts.Valuation, p *contracts.Portfolio) MetricsDoc {
	m := v.Metrics
	return MetricsDoc{
		PortfolioName:       p.Name,
		BenchmarkName:       BenchmarkName(p.Benchmark),
		Since:               "Since inception",
		AsOf:                v.AsOf.Format(contracts.DateLayout),
		TotalReturnPct:      round(m.TotalReturnPct, placesPct),
		YTDReturnPct:        round(m.YTDReturnPct, placesPct),
		VolatilityAnnualPct: round(m.VolatilityAnnualPct, placesPct),
		Sharpe:              round(m.Sharpe, placesPct),
		MaxDrawdownPct:      round(m.MaxDrawdownPct, placesPct),
		AUMUsd:              round(m.AUM, placesMoney),
		ProfitUsd:           round(m.Profit, placesMoney),
		InitialCapitalUsd:   round(m.InitialCapital, placesMoney),
	}
}

// NewHoldingsDoc converts the holdings view
func NewHoldingsDoc(v *contracts.Valuation) HoldingsDoc {
	doc := HoldingsDoc{
		AsOf:                  v.AsOf.Format(contracts.DateLayout),
		Holdings:              make([]HoldingDoc, 0, len(v.Holdings)),
		MissingTickersDropped: nonNil(v.MissingTickersDropped),
		WeightsRenormalized:   v.WeightsRenormalized,
	}
	for _, h := range v.Holdings {
		doc.Holdings = append(doc.Holdings, HoldingDoc{
			Ticker:       h.Ticker,
			Name:         h.Name,
			Weight:       round(h.Weight, placesWeights),
			TargetWeight: round(h.TargetWeight, placesWeights),
			Shares:       round(h.Shares, placesShares),
			Price:        round(h.Price, placesPrice),
			MarketValue:  round(h.MarketValue, placesMoney),
		})
	}
	return doc
}

// NewPositionsDoc converts the position records
func NewPositionsDoc(v *contracts.Valuation) PositionsDoc {
	doc := PositionsDoc{
		AsOf:                  v.AsOf.Format(contracts.DateLayout),
		EntryDateUsed:         v.Snapshot.EntryDate.Format(contracts.DateLayout),
		ValuationDate:         v.Snapshot.ValuationDate.Format(contracts.DateLayout),
		InitialCapitalUsd:     round(v.Metrics.InitialCapital, placesMoney),
		AUMUsd:                round(v.Metrics.AUM, placesMoney),
		Positions:             make([]PositionDoc, 0, len(v.Positions)),
		MissingTickersDropped: nonNil(v.MissingTickersDropped),
		WeightsRenormalized:   v.WeightsRenormalized,
	}
	for _, p := range v.Positions {
		doc.Positions = append(doc.Positions, PositionDoc{
			Ticker:        p.Ticker,
			Shares:        round(p.Shares, placesShares),
			EntryPrice:    round(p.EntryPrice, placesPrice),
			CurrentPrice:  round(p.CurrentPrice, placesPrice),
			EntryValue:    round(p.EntryValue, placesMoney),
			MarketValue:   round(p.MarketValue, placesMoney),
			CurrentWeight: round(p.CurrentWeight, placesWeights),
			PnLUsd:        round(p.PnL, placesMoney),
			ReturnPct:     round(p.ReturnPct, placesPct),
		})
	}
	return doc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
