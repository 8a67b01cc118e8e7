// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the resolution engine.
// A ResolutionRequest describes one question instance; the engine stages
// exchange Window, FetchResult, EvidenceSample, and PredicateResult values
// and produce exactly one Outcome.
package types

// ProviderKind selects the field mapping the normalizer applies to a payload.
type ProviderKind string

const (
	ProviderBinanceKlines   ProviderKind = "binance-klines"
	ProviderOHLCObjects     ProviderKind = "ohlc-objects"
	ProviderChartData       ProviderKind = "chart-data"
	ProviderSportsdataGames ProviderKind = "sportsdata-games"
	ProviderText            ProviderKind = "text"
)

// PredicateKind names a declarative comparison.
type PredicateKind string

const (
	PredicateThresholdAbove   PredicateKind = "threshold-above"
	PredicateThresholdBelow   PredicateKind = "threshold-below"
	PredicateDipTo            PredicateKind = "dip-to"
	PredicateRiseTo           PredicateKind = "rise-to"
	PredicateCompareTwoPoints PredicateKind = "compare-two-points"
	PredicateWinnerByScore    PredicateKind = "winner-by-score"
	PredicateTextContains     PredicateKind = "text-contains"
)

// IsTimeSeries reports whether the predicate evaluates price candles and
// therefore depends on the window having closed.
func (k PredicateKind) IsTimeSeries() bool {
	switch k {
	case PredicateThresholdAbove, PredicateThresholdBelow,
		PredicateDipTo, PredicateRiseTo, PredicateCompareTwoPoints:
		return true
	}
	return false
}

// SampleKind is the evidence the predicate reads.
func (k PredicateKind) SampleKind() SampleKind {
	switch k {
	case PredicateWinnerByScore:
		return SampleGame
	case PredicateTextContains:
		return SampleText
	}
	return SampleCandle
}

// IsScan reports whether the predicate scans a range rather than a single sample.
func (k PredicateKind) IsScan() bool {
	return k == PredicateDipTo || k == PredicateRiseTo
}

// ResolutionRequest identifies one question instance. Construct it with
// request.Builder or load it from a request file; treat it as immutable.
type ResolutionRequest struct {
	// ID is a human-readable question identifier used in logs.
	ID string `json:"id" yaml:"id" toml:"id"`

	// Source lists where evidence is fetched from and how it is shaped.
	Source SourceSpec `json:"source" yaml:"source" toml:"source"`

	// Time is the local time specification of the evidence window.
	Time TimeSpec `json:"time" yaml:"time" toml:"time"`

	// Predicate is the comparison applied to the normalized evidence.
	Predicate PredicateSpec `json:"predicate" yaml:"predicate" toml:"predicate"`

	// Outcomes maps MET and NOT_MET to canonical tokens.
	Outcomes OutcomeMap `json:"outcomes" yaml:"outcomes" toml:"outcomes"`
}

// SourceSpec is the ordered endpoint list plus the payload provider kind.
type SourceSpec struct {
	// Provider selects the normalizer (e.g. "binance-klines").
	Provider ProviderKind `json:"provider" yaml:"provider" toml:"provider"`

	// Endpoints are tried in order: typically proxy first, then the vendor.
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints" toml:"endpoints"`

	// Paginate re-issues requests with an advanced start until the window
	// is exhausted. Used for range scans.
	Paginate bool `json:"paginate,omitempty" yaml:"paginate,omitempty" toml:"paginate,omitempty"`

	// PageLimit is substituted for {limit} (default 1000).
	PageLimit int `json:"page_limit,omitempty" yaml:"page_limit,omitempty" toml:"page_limit,omitempty"`

	// DataPath is a gjson path to the evidence inside the payload
	// (chart-data and text providers).
	DataPath string `json:"data_path,omitempty" yaml:"data_path,omitempty" toml:"data_path,omitempty"`
}

// Endpoint is one URL template. URL, Params, and Headers may contain
// placeholders such as {start_ms}, {date:2006-01-02}, or {secret:NAME}.
type Endpoint struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	URL     string            `json:"url" yaml:"url" toml:"url"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
}

// Label returns the endpoint name, or its URL when unnamed.
func (e Endpoint) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.URL
}

// TimeSpec describes the evidence window in local wall-clock terms.
// Exactly one of At, From/To, or Points is set.
type TimeSpec struct {
	// Timezone is an IANA zone name (e.g. "US/Eastern").
	Timezone string `json:"timezone" yaml:"timezone" toml:"timezone"`

	// At is a single local time; the window is [At, At+Width).
	At string `json:"at,omitempty" yaml:"at,omitempty" toml:"at,omitempty"`

	// WidthMS is the fixed window width for At and Points (default 60000).
	WidthMS int64 `json:"width_ms,omitempty" yaml:"width_ms,omitempty" toml:"width_ms,omitempty"`

	// From and To bound a scan range.
	From string `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty"`

	// Points are the two local times compared by compare-two-points.
	Points []string `json:"points,omitempty" yaml:"points,omitempty" toml:"points,omitempty"`
}

// PredicateSpec is a declarative comparison and its operands.
type PredicateSpec struct {
	Kind PredicateKind `json:"kind" yaml:"kind" toml:"kind"`

	// Value is the threshold for threshold, dip, and rise predicates.
	Value float64 `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`

	// Field is the candle field threshold predicates read (default "close").
	Field string `json:"field,omitempty" yaml:"field,omitempty" toml:"field,omitempty"`

	// Home and Away identify the game for winner-by-score. MET means Home won.
	Home string `json:"home,omitempty" yaml:"home,omitempty" toml:"home,omitempty"`
	Away string `json:"away,omitempty" yaml:"away,omitempty" toml:"away,omitempty"`

	// FinalStatuses and CanceledStatuses override the default status sets.
	FinalStatuses    []string `json:"final_statuses,omitempty" yaml:"final_statuses,omitempty" toml:"final_statuses,omitempty"`
	CanceledStatuses []string `json:"canceled_statuses,omitempty" yaml:"canceled_statuses,omitempty" toml:"canceled_statuses,omitempty"`

	// Phrase is the text-contains needle.
	Phrase string `json:"phrase,omitempty" yaml:"phrase,omitempty" toml:"phrase,omitempty"`
}

// OutcomeMap assigns canonical tokens to predicate truth values.
// INSUFFICIENT_EVIDENCE and NOT_YET_DUE always map to p3 and p4.
type OutcomeMap struct {
	True  Outcome `json:"true" yaml:"true" toml:"true"`
	False Outcome `json:"false" yaml:"false" toml:"false"`
}
