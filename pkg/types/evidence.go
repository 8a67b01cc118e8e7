// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SampleKind tags which payload an EvidenceSample carries.
type SampleKind int

const (
	SampleCandle SampleKind = iota + 1
	SampleGame
	SampleText
)

func (k SampleKind) String() string {
	switch k {
	case SampleCandle:
		return "candle"
	case SampleGame:
		return "game"
	case SampleText:
		return "text"
	default:
		return "unknown"
	}
}

// Candle is an OHLC tuple. EndMS is the close time of the candle when the
// provider reports one, otherwise zero.
type Candle struct {
	Open  float64 `json:"open" yaml:"open"`
	High  float64 `json:"high" yaml:"high"`
	Low   float64 `json:"low" yaml:"low"`
	Close float64 `json:"close" yaml:"close"`
	EndMS int64   `json:"end_ms,omitempty" yaml:"end_ms,omitempty"`
}

// Field returns the named OHLC field. ok is false for unknown names.
func (c Candle) Field(name string) (v float64, ok bool) {
	switch name {
	case "", "close":
		return c.Close, true
	case "open":
		return c.Open, true
	case "high":
		return c.High, true
	case "low":
		return c.Low, true
	}
	return 0, false
}

// GameResult is a scored game. Scores are nil until the provider reports
// them. Status is preserved verbatim ("Final", "Postponed", "Canceled", ...).
type GameResult struct {
	HomeTeam  string   `json:"home_team" yaml:"home_team"`
	AwayTeam  string   `json:"away_team" yaml:"away_team"`
	HomeScore *float64 `json:"home_score" yaml:"home_score"`
	AwayScore *float64 `json:"away_score" yaml:"away_score"`
	Status    string   `json:"status" yaml:"status"`
}

// EvidenceSample is one normalized data point. Exactly the field matching
// Kind is meaningful. Samples are never mutated after creation.
type EvidenceSample struct {
	TimestampMS int64      `json:"timestamp_ms" yaml:"timestamp_ms"`
	Kind        SampleKind `json:"kind" yaml:"kind"`
	Candle      Candle     `json:"candle,omitempty" yaml:"candle,omitempty"`
	Game        GameResult `json:"game,omitempty" yaml:"game,omitempty"`
	Text        string     `json:"text,omitempty" yaml:"text,omitempty"`
}
