package contracts

import (
	"strings"
	"time"
)

// Range identifies a performance window
type Range string

const (
	Range1M  Range = "1m"
	Range3M  Range = "3m"
	Range1Y  Range = "1y"
	RangeMax Range = "max"
)

// AllRanges returns ranges in artifact order
func AllRanges() []Range {
	return []Range{Range1M, Range3M, Range1Y, RangeMax}
}

// Days returns the lookback in calendar days (0 = unbounded)
func (r Range) Days() int {
	switch r {
	case Range1M:
		return 31
	case Range3M:
		return 92
	case Range1Y:
		return 366
	default:
		return 0
	}
}

// ParseRange parses a range name (case-insensitive)
func ParseRange(s string) (Range, bool) {
	switch Range(strings.ToLower(s)) {
	case Range1M:
		return Range1M, true
	case Range3M:
		return Range3M, true
	case Range1Y:
		return Range1Y, true
	case RangeMax:
		return RangeMax, true
	}
	return "", false
}

// Snapshot is the inception/valuation state of the portfolio
type Snapshot struct {
	EntryDate     time.Time
	ValuationDate time.Time
	Shares        map[string]float64
	EntryPrices   map[string]float64
	CurrentPrices map[string]float64
	Weights       map[string]float64 // 재정규화된 비중
}

// PerformancePoint is one rebased observation
type PerformancePoint struct {
	Date      time.Time
	Portfolio float64
	Benchmark float64
}

// PerformanceSeries is a range slice of the rebased series (기준 100)
type PerformanceSeries struct {
	Range  Range
	Points []PerformancePoint
}

// MetricsSummary holds summary statistics of the portfolio
type MetricsSummary struct {
	TotalReturnPct      float64
	YTDReturnPct        float64
	VolatilityAnnualPct float64
	Sharpe              float64
	MaxDrawdownPct      float64
	AUM                 float64
	Profit              float64
	InitialCapital      float64
}

// PositionRecord is the current state of one priced position
type PositionRecord struct {
	Ticker        string
	Shares        float64
	EntryPrice    float64
	CurrentPrice  float64
	EntryValue    float64
	MarketValue   float64
	CurrentWeight float64
	PnL           float64
	ReturnPct     float64
}

// HoldingView is a configured holding with its drifted weight
// (제외된 티커/현금은 0)
type HoldingView struct {
	Ticker       string
	Name         string
	Weight       float64
	TargetWeight float64
	Shares       float64
	Price        float64
	MarketValue  float64
}

// Valuation is the complete output of the valuation engine
// ⭐ SSOT: 엔진이 한 번 생성, 이후 불변
type Valuation struct {
	AsOf                  time.Time
	Snapshot              Snapshot
	Performance           []PerformanceSeries
	Metrics               MetricsSummary
	Positions             []PositionRecord
	Holdings              []HoldingView
	MissingTickersDropped []string
	WeightsRenormalized   bool
}

// Series returns the performance series for r
func (v *Valuation) Series(r Range) (*PerformanceSeries, bool) {
	for i := range v.Performance {
		if v.Performance[i].Range == r {
			return &v.Performance[i], true
		}
	}
	return nil, false
}
