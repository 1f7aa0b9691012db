package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func TestPortfolio_Universe(t *testing.T) {
	p := &Portfolio{
		Benchmark: "SPY",
		Holdings: []Holding{
			{Ticker: "MSFT", TargetWeight: 0.4},
			{Ticker: "AAPL", TargetWeight: 0.4},
			{Ticker: "cash", TargetWeight: 0.1},
			{Ticker: "SPY", TargetWeight: 0.1},
		},
	}

	assert.Equal(t, []string{"AAPL", "MSFT", "SPY"}, p.Universe())
	assert.Len(t, p.Equities(), 3)
	assert.InDelta(t, 1.0, p.TotalWeight(), 1e-12)
}

func TestPriceTable_LastOnOrBefore(t *testing.T) {
	table := &PriceTable{
		Tickers: []string{"A", "B"},
		Rows: []PriceRow{
			{Date: day("2024-01-02"), Prices: map[string]float64{"A": 10, "B": 20}},
			{Date: day("2024-01-03"), Prices: map[string]float64{"A": 11}},
			{Date: day("2024-01-04"), Prices: map[string]float64{"A": 12}},
		},
	}

	tests := []struct {
		name   string
		ticker string
		date   string
		want   float64
		wantOK bool
	}{
		{"exact date", "A", "2024-01-03", 11, true},
		{"after last row", "A", "2024-02-01", 12, true},
		{"gap uses earlier", "B", "2024-01-04", 20, true},
		{"before first row", "A", "2024-01-01", 0, false},
		{"unknown ticker", "C", "2024-01-04", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.LastOnOrBefore(tt.ticker, day(tt.date))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceTable_CloneIsDeep(t *testing.T) {
	table := &PriceTable{
		Tickers: []string{"A"},
		Rows:    []PriceRow{{Date: day("2024-01-02"), Prices: map[string]float64{"A": 1}}},
	}
	clone := table.Clone()
	clone.Rows[0].Prices["A"] = 2
	clone.Tickers[0] = "Z"

	assert.Equal(t, 1.0, table.Rows[0].Prices["A"])
	assert.Equal(t, "A", table.Tickers[0])
}

func TestCalendarDate(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got := CalendarDate(time.Date(2024, 3, 8, 16, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), got)
}

func TestStageError(t *testing.T) {
	cause := fmt.Errorf("status 429")
	err := error(&StageError{
		Kind:     ErrFetchExhausted,
		Stage:    StageFetch,
		Tickers:  []string{"AAPL", "MSFT"},
		Attempts: 6,
		Cause:    cause,
	})

	assert.True(t, errors.Is(err, ErrFetchExhausted))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrDataIntegrity))
	assert.Equal(t, ErrFetchExhausted, KindOf(fmt.Errorf("wrapped: %w", err)))

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, 6, stageErr.Attempts)
	assert.Contains(t, err.Error(), "tickers=AAPL,MSFT")
	assert.Contains(t, err.Error(), "status 429")
}

func TestParseRange(t *testing.T) {
	r, ok := ParseRange("1Y")
	require.True(t, ok)
	assert.Equal(t, Range1Y, r)
	assert.Equal(t, 366, r.Days())

	_, ok = ParseRange("5y")
	assert.False(t, ok)
	assert.Equal(t, 0, RangeMax.Days())
}
