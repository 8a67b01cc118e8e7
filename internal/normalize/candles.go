// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// klinesProvider decodes the exchange kline format: an array of rows
// [openTime, open, high, low, close, volume, closeTime, ...] with prices
// as strings.
type klinesProvider struct{}

func (klinesProvider) Kind() types.ProviderKind { return types.ProviderBinanceKlines }

func (klinesProvider) SampleKind() types.SampleKind { return types.SampleCandle }

func (klinesProvider) Decode(raw []byte, opts Options, yield func(types.EvidenceSample) bool) error {
	page, err := parseJSON(raw)
	if err != nil {
		return err
	}
	if !page.IsArray() {
		return shapeError(-1, "expected an array of kline rows")
	}
	return eachRow(page, func(i int, row gjson.Result) (bool, error) {
		s, err := decodeOHLCRow(row, opts, true)
		if err != nil {
			return false, shapeError(i, "%v", err)
		}
		return yield(s), nil
	})
}

// LastEnd returns the close time of the last kline, or its open time when
// the row carries no close time.
func (klinesProvider) LastEnd(page []byte, loc *time.Location) (int64, int, error) {
	rows := gjson.ParseBytes(page)
	if !rows.IsArray() {
		return 0, 0, fmt.Errorf("expected an array of kline rows")
	}
	all := rows.Array()
	if len(all) == 0 {
		return 0, 0, nil
	}
	last := all[len(all)-1].Array()
	idx := 0
	if len(last) > 6 {
		idx = 6
	}
	if len(last) == 0 {
		return 0, 0, fmt.Errorf("empty kline row")
	}
	end, err := toMillis(last[idx], loc)
	if err != nil {
		return 0, 0, err
	}
	return end, len(all), nil
}

// ohlcObjectsProvider decodes an array of candle objects keyed by name.
// An optional data path selects the array inside a wrapper object.
type ohlcObjectsProvider struct{}

func (ohlcObjectsProvider) Kind() types.ProviderKind { return types.ProviderOHLCObjects }

func (ohlcObjectsProvider) SampleKind() types.SampleKind { return types.SampleCandle }

var (
	timeKeys  = []string{"t", "time", "timestamp", "open_time", "openTime", "datetime"}
	openKeys  = []string{"open", "o"}
	highKeys  = []string{"high", "h"}
	lowKeys   = []string{"low", "l"}
	closeKeys = []string{"close", "c"}
	endKeys   = []string{"close_time", "closeTime", "end"}
)

func (ohlcObjectsProvider) Decode(raw []byte, opts Options, yield func(types.EvidenceSample) bool) error {
	page, err := parseJSON(raw)
	if err != nil {
		return err
	}
	arr := page
	if opts.DataPath != "" {
		arr = page.Get(opts.DataPath)
	}
	if !arr.IsArray() {
		return shapeError(-1, "expected an array of candle objects")
	}
	return eachRow(arr, func(i int, obj gjson.Result) (bool, error) {
		s, err := decodeOHLCObject(obj, opts)
		if err != nil {
			return false, shapeError(i, "%v", err)
		}
		return yield(s), nil
	})
}

func (ohlcObjectsProvider) LastEnd(page []byte, loc *time.Location) (int64, int, error) {
	arr := gjson.ParseBytes(page)
	if !arr.IsArray() {
		return 0, 0, fmt.Errorf("expected an array of candle objects")
	}
	all := arr.Array()
	if len(all) == 0 {
		return 0, 0, nil
	}
	last := all[len(all)-1]
	r := firstOf(last, endKeys)
	if !r.Exists() {
		r = firstOf(last, timeKeys)
	}
	end, err := toMillis(r, loc)
	if err != nil {
		return 0, 0, err
	}
	return end, len(all), nil
}

func decodeOHLCObject(obj gjson.Result, opts Options) (types.EvidenceSample, error) {
	if !obj.IsObject() {
		return types.EvidenceSample{}, fmt.Errorf("expected an object, got %s", obj.Type)
	}
	ts, err := toMillis(firstOf(obj, timeKeys), opts.Location)
	if err != nil {
		return types.EvidenceSample{}, fmt.Errorf("timestamp: %v", err)
	}
	var c types.Candle
	fields := []struct {
		name string
		keys []string
		dst  *float64
	}{
		{"open", openKeys, &c.Open},
		{"high", highKeys, &c.High},
		{"low", lowKeys, &c.Low},
		{"close", closeKeys, &c.Close},
	}
	for _, f := range fields {
		v, err := toFloat(firstOf(obj, f.keys))
		if err != nil {
			return types.EvidenceSample{}, fmt.Errorf("%s: %v", f.name, err)
		}
		*f.dst = v
	}
	if end := firstOf(obj, endKeys); end.Exists() {
		if c.EndMS, err = toMillis(end, opts.Location); err != nil {
			return types.EvidenceSample{}, fmt.Errorf("close time: %v", err)
		}
	}
	return types.EvidenceSample{TimestampMS: ts, Kind: types.SampleCandle, Candle: c}, nil
}

// decodeOHLCRow reads [ts, open, high, low, close, ...]. When withClose is
// set, a seventh column is read as the candle close time.
func decodeOHLCRow(row gjson.Result, opts Options, withClose bool) (types.EvidenceSample, error) {
	if !row.IsArray() {
		return types.EvidenceSample{}, fmt.Errorf("expected a row array, got %s", row.Type)
	}
	cols := row.Array()
	if len(cols) < 5 {
		return types.EvidenceSample{}, fmt.Errorf("row has %d columns, want at least 5", len(cols))
	}
	ts, err := toMillis(cols[0], opts.Location)
	if err != nil {
		return types.EvidenceSample{}, fmt.Errorf("timestamp: %v", err)
	}
	var vals [4]float64
	for j := range vals {
		if vals[j], err = toFloat(cols[j+1]); err != nil {
			return types.EvidenceSample{}, fmt.Errorf("column %d: %v", j+1, err)
		}
	}
	c := types.Candle{Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if withClose && len(cols) > 6 {
		if c.EndMS, err = toMillis(cols[6], opts.Location); err != nil {
			return types.EvidenceSample{}, fmt.Errorf("close time: %v", err)
		}
	}
	return types.EvidenceSample{TimestampMS: ts, Kind: types.SampleCandle, Candle: c}, nil
}

// chartDataProvider decodes nested chart payloads (DEX aggregators,
// market-chart endpoints). Rows at the data path are either
// [ts, open, high, low, close, ...] or [ts, price].
type chartDataProvider struct{}

const defaultChartPath = "data.attributes.ohlcv_list"

func (chartDataProvider) Kind() types.ProviderKind { return types.ProviderChartData }

func (chartDataProvider) SampleKind() types.SampleKind { return types.SampleCandle }

func (chartDataProvider) Decode(raw []byte, opts Options, yield func(types.EvidenceSample) bool) error {
	page, err := parseJSON(raw)
	if err != nil {
		return err
	}
	path := opts.DataPath
	if path == "" {
		path = defaultChartPath
	}
	arr := page.Get(path)
	if !arr.Exists() {
		return shapeError(-1, "no chart data at %q", path)
	}
	if !arr.IsArray() {
		return shapeError(-1, "chart data at %q is not an array", path)
	}
	return eachRow(arr, func(i int, row gjson.Result) (bool, error) {
		cols := row.Array()
		if row.IsArray() && len(cols) == 2 {
			ts, err := toMillis(cols[0], opts.Location)
			if err != nil {
				return false, shapeError(i, "timestamp: %v", err)
			}
			p, err := toFloat(cols[1])
			if err != nil {
				return false, shapeError(i, "price: %v", err)
			}
			s := types.EvidenceSample{
				TimestampMS: ts,
				Kind:        types.SampleCandle,
				Candle:      types.Candle{Open: p, High: p, Low: p, Close: p},
			}
			return yield(s), nil
		}
		s, err := decodeOHLCRow(row, opts, false)
		if err != nil {
			return false, shapeError(i, "%v", err)
		}
		return yield(s), nil
	})
}

// eachRow iterates arr, stopping on error or when fn returns false.
func eachRow(arr gjson.Result, fn func(i int, row gjson.Result) (bool, error)) error {
	for i, row := range arr.Array() {
		more, err := fn(i, row)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// firstOf returns the first non-null value among keys.
func firstOf(obj gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}
