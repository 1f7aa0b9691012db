package prices

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// Normalization failures (모두 일시적 실패로 재시도 대상)
var (
	ErrEmptyResponse    = errors.New("empty response (likely rate limited)")
	ErrAdjCloseNotFound = errors.New("adj close not found in response")
	ErrEmptyAfterClean  = errors.New("adj close empty after cleaning")
)

// Normalize extracts a clean adjusted-close table from a raw frame.
//
//  1. flat shape: "Adj Close" 컬럼을 tickers[0]으로 rename
//     multi shape: ("Adj Close", ticker) 컬럼 선택
//  2. 시각 제거 → 달력 날짜 (같은 날짜 행은 첫 유효값 우선)
//  3. 날짜 오름차순 정렬, forward-fill, 전부 빈 행 제거
//
// NaN/Inf/0 이하 가격은 부재로 취급한다.
// 요청 티커 전부가 미지원이면 행 없는 테이블을 돌려주고 조립 단계에서 컬럼을 제거한다.
func Normalize(raw *RawFrame, tickers []string) (*contracts.PriceTable, error) {
	if raw.AllUnsupported(tickers) {
		return contracts.NewPriceTable(tickers), nil
	}
	if raw.IsEmpty() {
		return nil, ErrEmptyResponse
	}

	columns, err := adjCloseColumns(raw, tickers)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if len(c.Values) != len(raw.Index) {
			return nil, fmt.Errorf("malformed response: column %s has %d values for %d dates", c.Ticker, len(c.Values), len(raw.Index))
		}
		names = append(names, c.Ticker)
	}

	table := contracts.NewPriceTable(names)
	byDate := make(map[time.Time]int)
	for i, ts := range raw.Index {
		date := contracts.CalendarDate(ts)
		idx, ok := byDate[date]
		if !ok {
			idx = len(table.Rows)
			byDate[date] = idx
			table.Rows = append(table.Rows, contracts.PriceRow{
				Date:   date,
				Prices: make(map[string]float64, len(names)),
			})
		}

		row := table.Rows[idx]
		for _, c := range columns {
			v := c.Values[i]
			if !validPrice(v) {
				continue
			}
			if _, seen := row.Prices[c.Ticker]; seen {
				continue
			}
			row.Prices[c.Ticker] = *v
		}
	}

	SortRows(table)
	ForwardFill(table)
	DropEmptyRows(table)

	if table.IsEmpty() {
		return nil, ErrEmptyAfterClean
	}
	return table, nil
}

// adjCloseColumns selects adjusted close columns keyed by ticker
func adjCloseColumns(raw *RawFrame, tickers []string) ([]RawColumn, error) {
	if !raw.IsMulti() {
		if len(tickers) == 0 {
			return nil, fmt.Errorf("flat response without requested ticker")
		}
		for _, c := range raw.Columns {
			if c.Field == FieldAdjClose {
				return []RawColumn{{Field: c.Field, Ticker: tickers[0], Values: c.Values}}, nil
			}
		}
		return nil, ErrAdjCloseNotFound
	}

	var out []RawColumn
	seen := make(map[string]bool)
	for _, c := range raw.Columns {
		if c.Field != FieldAdjClose || c.Ticker == "" || seen[c.Ticker] {
			continue
		}
		seen[c.Ticker] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (multi-ticker shape)", ErrAdjCloseNotFound)
	}
	return out, nil
}

func validPrice(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v > 0
}
