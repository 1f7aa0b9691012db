package prices

import (
	"context"
	"time"
)

// Raw frame field names
const (
	FieldAdjClose = "Adj Close"
	FieldClose    = "Close"
)

// Provider is the upstream market data boundary.
// 한 번의 호출 = 한 번의 시도. 재시도는 BatchFetcher가 담당
type Provider interface {
	FetchDailyAdjustedClose(ctx context.Context, tickers []string, start time.Time) (*RawFrame, error)
}

// RawColumn is one (field, ticker) column of a raw frame.
// Ticker == "" 이면 단일 티커 응답 (flat shape)
type RawColumn struct {
	Field  string
	Ticker string
	Values []*float64
}

// RawFrame is the unnormalized provider response.
// Index는 시각 정보를 포함할 수 있고 정렬/중복 제거가 보장되지 않음
type RawFrame struct {
	Index   []time.Time
	Columns []RawColumn

	// Unsupported lists requested tickers the upstream does not know (상장폐지/미지원)
	Unsupported []string
}

// IsEmpty reports whether the frame carries no observations
func (f *RawFrame) IsEmpty() bool {
	return f == nil || len(f.Index) == 0 || len(f.Columns) == 0
}

// AllUnsupported reports whether every requested ticker was reported unsupported
func (f *RawFrame) AllUnsupported(tickers []string) bool {
	if f == nil || len(tickers) == 0 {
		return false
	}
	known := make(map[string]bool, len(f.Unsupported))
	for _, t := range f.Unsupported {
		known[t] = true
	}
	for _, t := range tickers {
		if !known[t] {
			return false
		}
	}
	return true
}

// IsMulti reports whether the frame uses the (field, ticker) shape
func (f *RawFrame) IsMulti() bool {
	for _, c := range f.Columns {
		if c.Ticker != "" {
			return true
		}
	}
	return false
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, tickers []string, start time.Time) (*RawFrame, error)

// FetchDailyAdjustedClose calls f
func (f ProviderFunc) FetchDailyAdjustedClose(ctx context.Context, tickers []string, start time.Time) (*RawFrame, error) {
	return f(ctx, tickers, start)
}
