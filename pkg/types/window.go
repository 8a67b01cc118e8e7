// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Span is a half-open UTC millisecond interval [StartMS, EndMS).
type Span struct {
	StartMS int64 `json:"start_ms" yaml:"start_ms"`
	EndMS   int64 `json:"end_ms" yaml:"end_ms"`
}

// Contains reports whether ts falls inside the span.
func (s Span) Contains(ts int64) bool {
	return ts >= s.StartMS && ts < s.EndMS
}

// Window is the resolved evidence window. Segments are the spans the
// fetcher requests; a single lookup or range scan has one segment, a
// two-point comparison has two.
type Window struct {
	StartMS  int64          `json:"start_ms" yaml:"start_ms"`
	EndMS    int64          `json:"end_ms" yaml:"end_ms"`
	Segments []Span         `json:"segments" yaml:"segments"`
	Location *time.Location `json:"-" yaml:"-"`

	// Open is set when the window end lay in the future and the scan was
	// clamped to the current time.
	Open bool `json:"open,omitempty" yaml:"open,omitempty"`
}

// Start returns the window start in the request's zone.
func (w Window) Start() time.Time {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(w.StartMS).In(loc)
}
