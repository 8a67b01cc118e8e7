// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package timewindow converts local wall-clock times in a named zone into
// absolute UTC millisecond windows.
package timewindow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Embed the IANA database so zone lookups do not depend on the host.
	_ "time/tzdata"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// ErrInvalidTimeSpec marks a time string or zone that cannot be parsed.
// It is a configuration error, never a runtime fallback case.
var ErrInvalidTimeSpec = errors.New("invalid time spec")

// DefaultWidthMS is the width of a single-candle lookup window.
const DefaultWidthMS int64 = 60_000

// Layouts are the accepted local time formats, tried in order.
var Layouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadZone returns the location for an IANA zone name.
func LoadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: timezone is required", ErrInvalidTimeSpec)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidTimeSpec, name, err)
	}
	return loc, nil
}

// ParseLocal localizes a naive datetime string to loc. Wall-clock times
// that do not exist in loc (a DST gap) are rejected because they would not
// round-trip.
func ParseLocal(local string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(local)
	for _, layout := range Layouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if t.Format(layout) != s {
			return time.Time{}, fmt.Errorf("%w: %q does not exist in %s", ErrInvalidTimeSpec, local, loc)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q (want YYYY-MM-DD HH:MM[:SS])", ErrInvalidTimeSpec, local)
}

// Resolve converts a local datetime in zone to a fixed-width UTC window
// [start, start+60s).
func Resolve(local, zone string) (startMS, endMS int64, err error) {
	return ResolveWidth(local, zone, DefaultWidthMS)
}

// ResolveWidth is Resolve with an explicit window width in milliseconds.
func ResolveWidth(local, zone string, widthMS int64) (startMS, endMS int64, err error) {
	if widthMS <= 0 {
		return 0, 0, fmt.Errorf("%w: width must be positive, got %d", ErrInvalidTimeSpec, widthMS)
	}
	loc, err := LoadZone(zone)
	if err != nil {
		return 0, 0, err
	}
	t, err := ParseLocal(local, loc)
	if err != nil {
		return 0, 0, err
	}
	startMS = t.UnixMilli()
	return startMS, startMS + widthMS, nil
}

// ResolveRange converts an explicit local [from, to) range to UTC.
func ResolveRange(from, to, zone string) (startMS, endMS int64, err error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return 0, 0, err
	}
	f, err := ParseLocal(from, loc)
	if err != nil {
		return 0, 0, err
	}
	t, err := ParseLocal(to, loc)
	if err != nil {
		return 0, 0, err
	}
	if !t.After(f) {
		return 0, 0, fmt.Errorf("%w: range end %q is not after start %q", ErrInvalidTimeSpec, to, from)
	}
	return f.UnixMilli(), t.UnixMilli(), nil
}

// ResolveSpec builds the evidence window for a TimeSpec. The window's
// segments are the spans the fetcher requests.
func ResolveSpec(spec types.TimeSpec) (types.Window, error) {
	loc, err := LoadZone(spec.Timezone)
	if err != nil {
		return types.Window{}, err
	}
	width := spec.WidthMS
	if width == 0 {
		width = DefaultWidthMS
	}
	if width < 0 {
		return types.Window{}, fmt.Errorf("%w: width must be positive, got %d", ErrInvalidTimeSpec, width)
	}

	set := 0
	if spec.At != "" {
		set++
	}
	if spec.From != "" || spec.To != "" {
		set++
	}
	if len(spec.Points) > 0 {
		set++
	}
	if set != 1 {
		return types.Window{}, fmt.Errorf("%w: exactly one of at, from/to, or points is required", ErrInvalidTimeSpec)
	}

	switch {
	case spec.At != "":
		start, end, err := ResolveWidth(spec.At, spec.Timezone, width)
		if err != nil {
			return types.Window{}, err
		}
		return newWindow(loc, types.Span{StartMS: start, EndMS: end}), nil

	case len(spec.Points) > 0:
		if len(spec.Points) != 2 {
			return types.Window{}, fmt.Errorf("%w: points needs exactly 2 entries, got %d", ErrInvalidTimeSpec, len(spec.Points))
		}
		var spans []types.Span
		for _, p := range spec.Points {
			start, end, err := ResolveWidth(p, spec.Timezone, width)
			if err != nil {
				return types.Window{}, err
			}
			spans = append(spans, types.Span{StartMS: start, EndMS: end})
		}
		if spans[1].StartMS <= spans[0].StartMS {
			return types.Window{}, fmt.Errorf("%w: second point must be after the first", ErrInvalidTimeSpec)
		}
		return newWindow(loc, spans...), nil

	default:
		if spec.From == "" || spec.To == "" {
			return types.Window{}, fmt.Errorf("%w: both from and to are required", ErrInvalidTimeSpec)
		}
		start, end, err := ResolveRange(spec.From, spec.To, spec.Timezone)
		if err != nil {
			return types.Window{}, err
		}
		return newWindow(loc, types.Span{StartMS: start, EndMS: end}), nil
	}
}

func newWindow(loc *time.Location, spans ...types.Span) types.Window {
	return types.Window{
		StartMS:  spans[0].StartMS,
		EndMS:    spans[len(spans)-1].EndMS,
		Segments: spans,
		Location: loc,
	}
}

// ClampTo truncates the window at nowMS and marks it open. Segments that
// start after nowMS are dropped. It returns w unchanged when the window has
// already closed.
func ClampTo(w types.Window, nowMS int64) types.Window {
	if w.EndMS <= nowMS {
		return w
	}
	out := w
	out.Open = true
	out.EndMS = nowMS
	out.Segments = nil
	for _, s := range w.Segments {
		if s.StartMS >= nowMS {
			continue
		}
		if s.EndMS > nowMS {
			s.EndMS = nowMS
		}
		out.Segments = append(out.Segments, s)
	}
	return out
}
