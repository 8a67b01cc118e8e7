// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// secondsCutoff separates second-resolution timestamps from milliseconds.
const secondsCutoff = 100_000_000_000

// toFloat coerces a JSON number or numeric string to float64. Exchange
// APIs send prices as strings ("2000.02"); decimal parses them exactly
// before the conversion.
func toFloat(r gjson.Result) (float64, error) {
	switch r.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(r.Raw)
		if err != nil {
			return r.Float(), nil
		}
		f, _ := d.Float64()
		return f, nil
	case gjson.String:
		d, err := decimal.NewFromString(strings.TrimSpace(r.Str))
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", r.Str)
		}
		f, _ := d.Float64()
		return f, nil
	case gjson.Null:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("not a number: %s", r.Raw)
	}
}

// toMillis coerces an epoch timestamp in seconds or milliseconds, or an
// ISO-8601 string, to UTC milliseconds.
func toMillis(r gjson.Result, loc *time.Location) (int64, error) {
	if r.Type == gjson.String {
		if t, err := parseTimestamp(r.Str, loc); err == nil {
			return t.UnixMilli(), nil
		}
	}
	f, err := toFloat(r)
	if err != nil {
		return 0, err
	}
	ms := int64(f)
	if ms < secondsCutoff {
		ms *= 1000
	}
	return ms, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// optionalFloat returns nil for a missing or null value.
func optionalFloat(r gjson.Result) (*float64, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	f, err := toFloat(r)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
