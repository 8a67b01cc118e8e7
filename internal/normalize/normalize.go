// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts provider-specific JSON payloads into
// provider-agnostic evidence samples. Each provider kind is a Strategy
// registered by name; unknown kinds and malformed shapes fail with a
// NormalizationError rather than yielding zero-valued samples.
package normalize

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// ErrConsumed is yielded when a Samples sequence is iterated a second time.
var ErrConsumed = errors.New("evidence samples already consumed")

// NormalizationError reports a payload that does not match its provider's shape.
type NormalizationError struct {
	Provider types.ProviderKind
	Page     int
	Index    int
	Reason   string
}

func (e *NormalizationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("normalizing %s page %d record %d: %s", e.Provider, e.Page, e.Index, e.Reason)
	}
	return fmt.Sprintf("normalizing %s page %d: %s", e.Provider, e.Page, e.Reason)
}

// Options carries per-request context a provider may need.
type Options struct {
	// DataPath is a gjson path to the evidence inside each page.
	DataPath string
	// Location interprets zone-less timestamps (default UTC).
	Location *time.Location
}

// Provider decodes one payload page. Decode stops early when yield returns false.
type Provider interface {
	Kind() types.ProviderKind
	// SampleKind is the kind of every sample Decode yields.
	SampleKind() types.SampleKind
	Decode(page []byte, opts Options, yield func(types.EvidenceSample) bool) error
}

// Pager is implemented by providers whose records carry an end time the
// fetcher can paginate on. Zone-less timestamps are read in loc.
type Pager interface {
	LastEnd(page []byte, loc *time.Location) (endMS int64, n int, err error)
}

var registry = map[types.ProviderKind]Provider{}

// Register adds a provider. Registering a kind twice panics.
func Register(p Provider) {
	if _, dup := registry[p.Kind()]; dup {
		panic(fmt.Sprintf("normalize: provider %q registered twice", p.Kind()))
	}
	registry[p.Kind()] = p
}

func init() {
	Register(klinesProvider{})
	Register(ohlcObjectsProvider{})
	Register(chartDataProvider{})
	Register(gamesProvider{})
	Register(textProvider{})
}

// Lookup returns the provider for kind.
func Lookup(kind types.ProviderKind) (Provider, bool) {
	p, ok := registry[kind]
	return p, ok
}

// Kinds lists the registered provider kinds in sorted order.
func Kinds() []types.ProviderKind {
	kinds := make([]types.ProviderKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// PagerFor returns the pager of kind when the provider supports pagination.
func PagerFor(kind types.ProviderKind) (Pager, bool) {
	p, ok := registry[kind]
	if !ok {
		return nil, false
	}
	pg, ok := p.(Pager)
	return pg, ok
}

// Samples is a lazy, finite, single-use sequence of evidence samples.
type Samples struct {
	seq  iter.Seq2[types.EvidenceSample, error]
	used bool
}

// All returns the sequence. Each page is decoded only when iteration
// reaches it. A second call yields ErrConsumed.
func (s *Samples) All() iter.Seq2[types.EvidenceSample, error] {
	return func(yield func(types.EvidenceSample, error) bool) {
		if s.used {
			yield(types.EvidenceSample{}, ErrConsumed)
			return
		}
		s.used = true
		s.seq(yield)
	}
}

// Collect drains s into a slice, stopping at the first error.
func (s *Samples) Collect() ([]types.EvidenceSample, error) {
	var out []types.EvidenceSample
	for sample, err := range s.All() {
		if err != nil {
			return out, err
		}
		out = append(out, sample)
	}
	return out, nil
}

// Normalize prepares the pages of a successful fetch for iteration. It
// fails immediately for an unknown provider kind; shape errors surface as
// *NormalizationError values during iteration.
func Normalize(pages [][]byte, kind types.ProviderKind, opts Options) (*Samples, error) {
	p, ok := Lookup(kind)
	if !ok {
		return nil, &NormalizationError{Provider: kind, Index: -1, Reason: "unknown provider kind"}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	seq := func(yield func(types.EvidenceSample, error) bool) {
		for i, page := range pages {
			stopped := false
			err := p.Decode(page, opts, func(s types.EvidenceSample) bool {
				if !yield(s, nil) {
					stopped = true
					return false
				}
				return true
			})
			if stopped {
				return
			}
			if err != nil {
				var ne *NormalizationError
				if errors.As(err, &ne) {
					ne.Provider = kind
					ne.Page = i
				}
				yield(types.EvidenceSample{}, err)
				return
			}
		}
	}
	return &Samples{seq: seq}, nil
}

// parseJSON validates page and returns its root value.
func parseJSON(page []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(page) {
		return gjson.Result{}, shapeError(-1, "payload is not valid JSON")
	}
	return gjson.ParseBytes(page), nil
}

// shapeError builds a NormalizationError; the caller fills in provider and page.
func shapeError(index int, format string, args ...any) error {
	return &NormalizationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
