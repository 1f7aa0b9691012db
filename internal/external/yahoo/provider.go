package yahoo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/wonny/folio/internal/prices"
)

// FetchDailyAdjustedClose downloads one batch and returns it as a raw frame.
// 티커 1개 → flat shape, 여러 개 → (field, ticker) shape.
// 미지원 티커는 빈 컬럼 + Unsupported로 남기고 다른 실패는 배치 전체를 실패시킨다.
func (c *Client) FetchDailyAdjustedClose(ctx context.Context, tickers []string, start time.Time) (*prices.RawFrame, error) {
	series := make(map[string][]Bar, len(tickers))
	var unsupported []string
	for _, ticker := range tickers {
		bars, err := c.Chart(ctx, ticker, start)
		if errors.Is(err, ErrNoData) {
			c.logger.WithField("ticker", ticker).Warn("No data found, symbol may be delisted")
			unsupported = append(unsupported, ticker)
			continue
		}
		if err != nil {
			return nil, err
		}
		series[ticker] = bars
	}

	frame := buildFrame(tickers, series)
	frame.Unsupported = unsupported
	return frame, nil
}

// buildFrame aligns per-ticker bars on the union of their timestamps
func buildFrame(tickers []string, series map[string][]Bar) *prices.RawFrame {
	slot := make(map[int64]time.Time)
	for _, bars := range series {
		for _, b := range bars {
			if _, ok := slot[b.Time.Unix()]; !ok {
				slot[b.Time.Unix()] = b.Time
			}
		}
	}

	keys := make([]int64, 0, len(slot))
	for k := range slot {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	frame := &prices.RawFrame{Index: make([]time.Time, len(keys))}
	pos := make(map[int64]int, len(keys))
	for i, k := range keys {
		frame.Index[i] = slot[k]
		pos[k] = i
	}

	multi := len(tickers) > 1
	for _, ticker := range tickers {
		closes := make([]*float64, len(keys))
		adj := make([]*float64, len(keys))
		for _, b := range series[ticker] {
			i := pos[b.Time.Unix()]
			closes[i] = b.Close
			adj[i] = b.AdjClose
		}

		name := ""
		if multi {
			name = ticker
		}
		frame.Columns = append(frame.Columns,
			prices.RawColumn{Field: prices.FieldClose, Ticker: name, Values: closes},
			prices.RawColumn{Field: prices.FieldAdjClose, Ticker: name, Values: adj},
		)
	}

	return frame
}

var _ prices.Provider = (*Client)(nil)
