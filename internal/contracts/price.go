package contracts

import (
	"sort"
	"time"
)

// DateLayout is the calendar date format used on every boundary
const DateLayout = "2006-01-02"

// PriceRow holds adjusted closes for one calendar date.
// 가격 부재 = 맵에 키가 없음 (0이나 NaN으로 표현하지 않음)
type PriceRow struct {
	Date   time.Time
	Prices map[string]float64
}

// PriceTable is a date × ticker table of adjusted close prices
// ⭐ SSOT: 날짜는 UTC 자정, 엄격히 증가, 중복 없음. 티커 중복 없음.
type PriceTable struct {
	Tickers []string
	Rows    []PriceRow
}

// NewPriceTable creates an empty table with the given columns
func NewPriceTable(tickers []string) *PriceTable {
	cols := make([]string, len(tickers))
	copy(cols, tickers)
	return &PriceTable{Tickers: cols}
}

// Len returns the number of rows
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty reports whether the table has no rows or no columns
func (t *PriceTable) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0 || len(t.Tickers) == 0
}

// HasTicker reports whether ticker is a column
func (t *PriceTable) HasTicker(ticker string) bool {
	for _, tk := range t.Tickers {
		if tk == ticker {
			return true
		}
	}
	return false
}

// Price returns the price of ticker at row i
func (t *PriceTable) Price(i int, ticker string) (float64, bool) {
	p, ok := t.Rows[i].Prices[ticker]
	return p, ok
}

// Dates returns the row dates
func (t *PriceTable) Dates() []time.Time {
	dates := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		dates[i] = r.Date
	}
	return dates
}

// LastOnOrBefore returns the last available price of ticker on or before date
func (t *PriceTable) LastOnOrBefore(ticker string, date time.Time) (float64, bool) {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		r := t.Rows[i]
		if r.Date.After(date) {
			continue
		}
		if p, ok := r.Prices[ticker]; ok {
			return p, true
		}
	}
	return 0, false
}

// Clone returns a deep copy
func (t *PriceTable) Clone() *PriceTable {
	out := NewPriceTable(t.Tickers)
	out.Rows = make([]PriceRow, len(t.Rows))
	for i, r := range t.Rows {
		prices := make(map[string]float64, len(r.Prices))
		for k, v := range r.Prices {
			prices[k] = v
		}
		out.Rows[i] = PriceRow{Date: r.Date, Prices: prices}
	}
	return out
}

// CalendarDate truncates t to its calendar date at UTC midnight
// (시각 정보는 버리고 날짜만 유지)
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortedUnique returns a sorted copy of tickers without duplicates
func SortedUnique(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
