// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package predicate applies declarative comparisons to normalized evidence.
// All threshold comparisons are inclusive; equality in a two-point
// comparison is its own result and is never rounded to up or down.
package predicate

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// ErrInvalidPredicate marks a malformed predicate spec (configuration error).
var ErrInvalidPredicate = errors.New("invalid predicate")

// ErrWrongEvidence marks samples of a kind the predicate cannot read.
var ErrWrongEvidence = errors.New("evidence kind does not match predicate")

var (
	// DefaultFinalStatuses are the game statuses treated as terminal.
	DefaultFinalStatuses = []string{"Final"}
	// DefaultCanceledStatuses are the statuses that void a game.
	DefaultCanceledStatuses = []string{"Canceled"}
)

// Validate checks the operands of spec.
func Validate(spec types.PredicateSpec) error {
	switch spec.Kind {
	case types.PredicateThresholdAbove, types.PredicateThresholdBelow,
		types.PredicateDipTo, types.PredicateRiseTo:
		if math.IsNaN(spec.Value) || math.IsInf(spec.Value, 0) {
			return fmt.Errorf("%w: %s needs a finite value", ErrInvalidPredicate, spec.Kind)
		}
		if _, ok := (types.Candle{}).Field(spec.Field); !ok {
			return fmt.Errorf("%w: unknown candle field %q", ErrInvalidPredicate, spec.Field)
		}
	case types.PredicateCompareTwoPoints:
		if _, ok := (types.Candle{}).Field(spec.Field); !ok {
			return fmt.Errorf("%w: unknown candle field %q", ErrInvalidPredicate, spec.Field)
		}
	case types.PredicateWinnerByScore:
		if spec.Home == "" || spec.Away == "" {
			return fmt.Errorf("%w: winner-by-score needs home and away", ErrInvalidPredicate)
		}
		if strings.EqualFold(spec.Home, spec.Away) {
			return fmt.Errorf("%w: home and away are the same team %q", ErrInvalidPredicate, spec.Home)
		}
	case types.PredicateTextContains:
		if strings.TrimSpace(spec.Phrase) == "" {
			return fmt.Errorf("%w: text-contains needs a phrase", ErrInvalidPredicate)
		}
	case "":
		return fmt.Errorf("%w: kind is required", ErrInvalidPredicate)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPredicate, spec.Kind)
	}
	return nil
}

// Evaluate applies spec to samples drawn from window. Iteration stops as
// soon as the result is decided. An error from the sequence is returned
// with ResultInsufficientEvidence.
func Evaluate(spec types.PredicateSpec, window types.Window, samples iter.Seq2[types.EvidenceSample, error]) (types.PredicateResult, error) {
	if err := Validate(spec); err != nil {
		return types.ResultInsufficientEvidence, err
	}
	switch spec.Kind {
	case types.PredicateThresholdAbove, types.PredicateThresholdBelow:
		return threshold(spec, window, samples)
	case types.PredicateDipTo, types.PredicateRiseTo:
		return scan(spec, window, samples)
	case types.PredicateCompareTwoPoints:
		return compare(spec, window, samples)
	case types.PredicateWinnerByScore:
		return winner(spec, samples)
	default:
		return textContains(spec, samples)
	}
}

// threshold reads the single in-window candle: the earliest sample of the
// first segment.
func threshold(spec types.PredicateSpec, window types.Window, samples iter.Seq2[types.EvidenceSample, error]) (types.PredicateResult, error) {
	if len(window.Segments) == 0 {
		return types.ResultInsufficientEvidence, nil
	}
	c, found, err := earliestIn(window.Segments[0], samples)
	if err != nil || !found {
		return types.ResultInsufficientEvidence, err
	}
	v, _ := c.Field(spec.Field)

	met := v >= spec.Value
	if spec.Kind == types.PredicateThresholdBelow {
		met = v <= spec.Value
	}
	return boolResult(met), nil
}

// scan reports MET on the first candle whose low (dip) or high (rise)
// reaches the bound anywhere in the window.
func scan(spec types.PredicateSpec, window types.Window, samples iter.Seq2[types.EvidenceSample, error]) (types.PredicateResult, error) {
	seen := 0
	for s, err := range samples {
		if err != nil {
			return types.ResultInsufficientEvidence, err
		}
		if s.Kind != types.SampleCandle {
			return types.ResultInsufficientEvidence, fmt.Errorf("%w: %s wants candles, got %s", ErrWrongEvidence, spec.Kind, s.Kind)
		}
		if !inWindow(window, s.TimestampMS) {
			continue
		}
		seen++
		if spec.Kind == types.PredicateDipTo && s.Candle.Low <= spec.Value {
			return types.ResultMet, nil
		}
		if spec.Kind == types.PredicateRiseTo && s.Candle.High >= spec.Value {
			return types.ResultMet, nil
		}
	}
	switch {
	case window.Open:
		// The bound may still be reached before the window closes.
		return types.ResultNotYetDue, nil
	case seen == 0:
		return types.ResultInsufficientEvidence, nil
	default:
		return types.ResultNotMet, nil
	}
}

// compare reports MET when the second point closes strictly above the first.
func compare(spec types.PredicateSpec, window types.Window, samples iter.Seq2[types.EvidenceSample, error]) (types.PredicateResult, error) {
	if len(window.Segments) != 2 {
		return types.ResultInsufficientEvidence, fmt.Errorf("%w: compare-two-points needs two time points", ErrInvalidPredicate)
	}
	a, b := window.Segments[0], window.Segments[1]

	var first, second *types.EvidenceSample
	for s, err := range samples {
		if err != nil {
			return types.ResultInsufficientEvidence, err
		}
		if s.Kind != types.SampleCandle {
			return types.ResultInsufficientEvidence, fmt.Errorf("%w: %s wants candles, got %s", ErrWrongEvidence, spec.Kind, s.Kind)
		}
		switch {
		case a.Contains(s.TimestampMS) && (first == nil || s.TimestampMS < first.TimestampMS):
			first = &s
		case b.Contains(s.TimestampMS) && (second == nil || s.TimestampMS < second.TimestampMS):
			second = &s
		}
	}
	if first == nil || second == nil {
		return types.ResultInsufficientEvidence, nil
	}

	va, _ := first.Candle.Field(spec.Field)
	vb, _ := second.Candle.Field(spec.Field)
	switch {
	case vb > va:
		return types.ResultMet, nil
	case vb < va:
		return types.ResultNotMet, nil
	default:
		return types.ResultSplit, nil
	}
}

// winner decides a game between spec.Home and spec.Away. MET means the
// team named Home scored strictly more, whichever side the provider lists
// it on.
func winner(spec types.PredicateSpec, samples iter.Seq2[types.EvidenceSample, error]) (types.PredicateResult, error) {
	finals := spec.FinalStatuses
	if len(finals) == 0 {
		finals = DefaultFinalStatuses
	}
	canceled := spec.CanceledStatuses
	if len(canceled) == 0 {
		canceled = DefaultCanceledStatuses
	}

	for s, err := range samples {
		if err != nil {
			return types.ResultInsufficientEvidence, err
		}
		if s.Kind != types.SampleGame {
			return types.ResultInsufficientEvidence, fmt.Errorf("%w: %s wants games, got %s", ErrWrongEvidence, spec.Kind, s.Kind)
		}
		g := s.Game
		var ours, theirs *float64
		switch {
		case strings.EqualFold(g.HomeTeam, spec.Home) && strings.EqualFold(g.AwayTeam, spec.Away):
			ours, theirs = g.HomeScore, g.AwayScore
		case strings.EqualFold(g.HomeTeam, spec.Away) && strings.EqualFold(g.AwayTeam, spec.Home):
			ours, theirs = g.AwayScore, g.HomeScore
		default:
			continue
		}

		switch {
		case slices.Contains(finals, g.Status):
			if ours == nil || theirs == nil {
				return types.ResultInsufficientEvidence, nil
			}
			switch {
			case *ours > *theirs:
				return types.ResultMet, nil
			case *ours < *theirs:
				return types.ResultNotMet, nil
			default:
				// A tie in a final game is ambiguous; no winner is guessed.
				return types.ResultInsufficientEvidence, nil
			}
		case slices.Contains(canceled, g.Status):
			return types.ResultSplit, nil
		default:
			return types.ResultNotYetDue, nil
		}
	}
	return types.ResultInsufficientEvidence, nil
}

// textContains matches the phrase case-insensitively with whitespace collapsed.
func textContains(spec types.PredicateSpec, samples iter.Seq2[types.EvidenceSample, error]) (types.PredicateResult, error) {
	needle := normalizeText(spec.Phrase)
	seen := 0
	for s, err := range samples {
		if err != nil {
			return types.ResultInsufficientEvidence, err
		}
		if s.Kind != types.SampleText {
			return types.ResultInsufficientEvidence, fmt.Errorf("%w: %s wants text, got %s", ErrWrongEvidence, spec.Kind, s.Kind)
		}
		seen++
		if strings.Contains(normalizeText(s.Text), needle) {
			return types.ResultMet, nil
		}
	}
	if seen == 0 {
		return types.ResultInsufficientEvidence, nil
	}
	return types.ResultNotMet, nil
}

func earliestIn(span types.Span, samples iter.Seq2[types.EvidenceSample, error]) (types.Candle, bool, error) {
	var best types.EvidenceSample
	found := false
	for s, err := range samples {
		if err != nil {
			return types.Candle{}, false, err
		}
		if s.Kind != types.SampleCandle {
			return types.Candle{}, false, fmt.Errorf("%w: threshold wants candles, got %s", ErrWrongEvidence, s.Kind)
		}
		if span.Contains(s.TimestampMS) && (!found || s.TimestampMS < best.TimestampMS) {
			best, found = s, true
		}
	}
	return best.Candle, found, nil
}

func inWindow(w types.Window, ts int64) bool {
	for _, s := range w.Segments {
		if s.Contains(ts) {
			return true
		}
	}
	return false
}

func boolResult(met bool) types.PredicateResult {
	if met {
		return types.ResultMet
	}
	return types.ResultNotMet
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
