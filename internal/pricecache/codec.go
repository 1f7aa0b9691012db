package pricecache

import (
	"fmt"
	"math"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wonny/folio/internal/contracts"
)

// codecVersion is bumped whenever the on-disk layout changes
const codecVersion = 1

// document is the columnar msgpack layout of a cached table
// columns[i][j] = tickers[i]의 dates[j] 가격 (nil = 부재)
type document struct {
	Version int          `msgpack:"version"`
	Tickers []string     `msgpack:"tickers"`
	Dates   []string     `msgpack:"dates"`
	Columns [][]*float64 `msgpack:"columns"`
}

// Encode serializes a price table
func Encode(table *contracts.PriceTable) ([]byte, error) {
	if table == nil {
		return nil, fmt.Errorf("encode: nil table")
	}

	doc := document{
		Version: codecVersion,
		Tickers: table.Tickers,
		Dates:   make([]string, len(table.Rows)),
		Columns: make([][]*float64, len(table.Tickers)),
	}
	for j, row := range table.Rows {
		doc.Dates[j] = row.Date.Format(contracts.DateLayout)
	}
	for i, ticker := range table.Tickers {
		col := make([]*float64, len(table.Rows))
		for j, row := range table.Rows {
			if p, ok := row.Prices[ticker]; ok {
				v := p
				col[j] = &v
			}
		}
		doc.Columns[i] = col
	}

	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// Decode deserializes and validates a cached table.
// 손상된 엔트리는 에러 반환 (호출자가 캐시 미스로 취급)
func Decode(data []byte) (*contracts.PriceTable, error) {
	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if doc.Version != codecVersion {
		return nil, fmt.Errorf("decode: unsupported version %d", doc.Version)
	}
	if len(doc.Columns) != len(doc.Tickers) {
		return nil, fmt.Errorf("decode: %d columns for %d tickers", len(doc.Columns), len(doc.Tickers))
	}

	seen := make(map[string]bool, len(doc.Tickers))
	for _, ticker := range doc.Tickers {
		if ticker == "" || seen[ticker] {
			return nil, fmt.Errorf("decode: invalid or duplicate ticker %q", ticker)
		}
		seen[ticker] = true
	}

	table := contracts.NewPriceTable(doc.Tickers)
	table.Rows = make([]contracts.PriceRow, len(doc.Dates))

	var prev time.Time
	for j, ds := range doc.Dates {
		d, err := time.Parse(contracts.DateLayout, ds)
		if err != nil {
			return nil, fmt.Errorf("decode: bad date %q: %w", ds, err)
		}
		if j > 0 && !d.After(prev) {
			return nil, fmt.Errorf("decode: dates not strictly increasing at %s", ds)
		}
		prev = d
		table.Rows[j] = contracts.PriceRow{Date: d, Prices: make(map[string]float64, len(doc.Tickers))}
	}

	for i, col := range doc.Columns {
		if len(col) != len(doc.Dates) {
			return nil, fmt.Errorf("decode: column %s has %d values for %d dates", doc.Tickers[i], len(col), len(doc.Dates))
		}
		for j, v := range col {
			if v == nil {
				continue
			}
			if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
				return nil, fmt.Errorf("decode: invalid price %v for %s", *v, doc.Tickers[i])
			}
			table.Rows[j].Prices[doc.Tickers[i]] = *v
		}
	}

	return table, nil
}
