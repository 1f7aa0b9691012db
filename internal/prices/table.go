package prices

import (
	"sort"
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// Merge outer-joins tables on date.
// 같은 티커가 여러 테이블에 있으면 먼저 나온 테이블의 값만 사용
func Merge(tables ...*contracts.PriceTable) *contracts.PriceTable {
	var tickers []string
	owner := make(map[string]int)
	for i, t := range tables {
		if t == nil {
			continue
		}
		for _, tk := range t.Tickers {
			if _, ok := owner[tk]; ok {
				continue
			}
			owner[tk] = i
			tickers = append(tickers, tk)
		}
	}

	merged := contracts.NewPriceTable(tickers)
	rows := make(map[time.Time]map[string]float64)
	for i, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.Rows {
			row, ok := rows[r.Date]
			if !ok {
				row = make(map[string]float64, len(tickers))
				rows[r.Date] = row
			}
			for tk, p := range r.Prices {
				if owner[tk] == i {
					row[tk] = p
				}
			}
		}
	}

	merged.Rows = make([]contracts.PriceRow, 0, len(rows))
	for d, prices := range rows {
		merged.Rows = append(merged.Rows, contracts.PriceRow{Date: d, Prices: prices})
	}
	SortRows(merged)
	return merged
}

// SortRows sorts rows by ascending date (in place)
func SortRows(t *contracts.PriceTable) {
	sort.Slice(t.Rows, func(i, j int) bool {
		return t.Rows[i].Date.Before(t.Rows[j].Date)
	})
}

// ForwardFill carries the last known price forward over gaps (in place).
// 첫 관측 이전은 채우지 않음 (back-fill 금지)
func ForwardFill(t *contracts.PriceTable) {
	last := make(map[string]float64, len(t.Tickers))
	for _, r := range t.Rows {
		for _, tk := range t.Tickers {
			if p, ok := r.Prices[tk]; ok {
				last[tk] = p
				continue
			}
			if p, ok := last[tk]; ok {
				r.Prices[tk] = p
			}
		}
	}
}

// DropEmptyColumns removes tickers with no price on any date (in place)
// and returns the removed tickers in column order
func DropEmptyColumns(t *contracts.PriceTable) []string {
	present := make(map[string]bool, len(t.Tickers))
	for _, r := range t.Rows {
		for tk := range r.Prices {
			present[tk] = true
		}
	}

	var dropped []string
	kept := t.Tickers[:0]
	for _, tk := range t.Tickers {
		if present[tk] {
			kept = append(kept, tk)
		} else {
			dropped = append(dropped, tk)
		}
	}
	t.Tickers = kept
	return dropped
}

// DropEmptyRows removes dates with no price for any column (in place)
func DropEmptyRows(t *contracts.PriceTable) {
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		for _, tk := range t.Tickers {
			if _, ok := r.Prices[tk]; ok {
				kept = append(kept, r)
				break
			}
		}
	}
	t.Rows = kept
}
