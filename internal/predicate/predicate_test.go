// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package predicate

import (
	"errors"
	"iter"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

const minute = int64(60_000)

func seq(samples ...types.EvidenceSample) iter.Seq2[types.EvidenceSample, error] {
	return func(yield func(types.EvidenceSample, error) bool) {
		for _, s := range samples {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func failing(after ...types.EvidenceSample) iter.Seq2[types.EvidenceSample, error] {
	return func(yield func(types.EvidenceSample, error) bool) {
		for _, s := range after {
			if !yield(s, nil) {
				return
			}
		}
		yield(types.EvidenceSample{}, errors.New("malformed page"))
	}
}

func candle(ts int64, o, h, l, c float64) types.EvidenceSample {
	return types.EvidenceSample{TimestampMS: ts, Kind: types.SampleCandle, Candle: types.Candle{Open: o, High: h, Low: l, Close: c}}
}

func closeAt(ts int64, c float64) types.EvidenceSample { return candle(ts, c, c, c, c) }

func singleWindow(start int64) types.Window {
	span := types.Span{StartMS: start, EndMS: start + minute}
	return types.Window{StartMS: span.StartMS, EndMS: span.EndMS, Segments: []types.Span{span}}
}

func rangeWindow(start, end int64) types.Window {
	return types.Window{StartMS: start, EndMS: end, Segments: []types.Span{{StartMS: start, EndMS: end}}}
}

func eval(t *testing.T, spec types.PredicateSpec, w types.Window, s iter.Seq2[types.EvidenceSample, error]) types.PredicateResult {
	t.Helper()
	got, err := Evaluate(spec, w, s)
	require.NoError(t, err)
	return got
}

// --- threshold ---

func TestThresholdAboveBoundaryInclusive(t *testing.T) {
	w := singleWindow(0)
	spec := types.PredicateSpec{Kind: types.PredicateThresholdAbove, Value: 2000.01}

	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(closeAt(0, 2000.01))))
	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(closeAt(0, 2000.02))))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(closeAt(0, math.Nextafter(2000.01, 0)))))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(closeAt(0, 2000.00))))
}

func TestThresholdBelowBoundaryInclusive(t *testing.T) {
	w := singleWindow(0)
	spec := types.PredicateSpec{Kind: types.PredicateThresholdBelow, Value: 100}

	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(closeAt(0, 100))))
	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(closeAt(0, 99.5))))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(closeAt(0, math.Nextafter(100, 200)))))
}

func TestThresholdUsesEarliestInWindowSample(t *testing.T) {
	w := singleWindow(10 * minute)
	spec := types.PredicateSpec{Kind: types.PredicateThresholdAbove, Value: 50}

	samples := seq(
		closeAt(9*minute, 100),  // before the window
		closeAt(10*minute+5, 10), // later in-window sample
		closeAt(10*minute, 60),  // the in-window candle
		closeAt(11*minute, 100), // after the window
	)
	assert.Equal(t, types.ResultMet, eval(t, spec, w, samples))
}

func TestThresholdField(t *testing.T) {
	w := singleWindow(0)
	spec := types.PredicateSpec{Kind: types.PredicateThresholdAbove, Value: 10, Field: "high"}
	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(candle(0, 1, 10, 1, 1))))
}

func TestThresholdNoInWindowSample(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateThresholdAbove, Value: 1}
	assert.Equal(t, types.ResultInsufficientEvidence, eval(t, spec, singleWindow(0), seq(closeAt(5*minute, 2))))
	assert.Equal(t, types.ResultInsufficientEvidence, eval(t, spec, singleWindow(0), seq()))
}

// --- dip / rise ---

func TestDipToScan(t *testing.T) {
	w := rangeWindow(0, 10*minute)
	spec := types.PredicateSpec{Kind: types.PredicateDipTo, Value: 90}

	base := []types.EvidenceSample{}
	for i := int64(0); i < 10; i++ {
		base = append(base, candle(i*minute, 100, 105, 95, 100))
	}
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(base...)))

	// One qualifying sample flips the result wherever it sits.
	for pos := range base {
		samples := append([]types.EvidenceSample{}, base...)
		samples[pos] = candle(int64(pos)*minute, 100, 105, 90, 100)
		assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(samples...)), "position %d", pos)
	}
}

func TestDipToIgnoresOutOfRange(t *testing.T) {
	w := rangeWindow(minute, 3*minute)
	spec := types.PredicateSpec{Kind: types.PredicateDipTo, Value: 90}
	samples := seq(candle(0, 100, 100, 80, 100), candle(minute, 100, 100, 95, 100), candle(3*minute, 100, 100, 80, 100))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, samples))
}

func TestRiseTo(t *testing.T) {
	w := rangeWindow(0, 3*minute)
	spec := types.PredicateSpec{Kind: types.PredicateRiseTo, Value: 110}

	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(candle(0, 100, 105, 95, 100), candle(minute, 100, 110, 95, 100))))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(candle(0, 100, 109.99, 95, 100))))
}

func TestScanShortCircuits(t *testing.T) {
	w := rangeWindow(0, 3*minute)
	spec := types.PredicateSpec{Kind: types.PredicateDipTo, Value: 90}

	// The failing tail is never reached once the bound is hit.
	got, err := Evaluate(spec, w, failing(candle(0, 100, 100, 85, 100)))
	require.NoError(t, err)
	assert.Equal(t, types.ResultMet, got)
}

func TestScanOpenWindow(t *testing.T) {
	w := rangeWindow(0, 3*minute)
	w.Open = true
	spec := types.PredicateSpec{Kind: types.PredicateDipTo, Value: 90}

	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(candle(0, 100, 100, 89, 100))))
	assert.Equal(t, types.ResultNotYetDue, eval(t, spec, w, seq(candle(0, 100, 100, 95, 100))))
	assert.Equal(t, types.ResultNotYetDue, eval(t, spec, w, seq()))
}

func TestScanNoSamples(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateRiseTo, Value: 1}
	assert.Equal(t, types.ResultInsufficientEvidence, eval(t, spec, rangeWindow(0, minute), seq()))
}

// --- compare two points ---

func twoPoints() types.Window {
	a := types.Span{StartMS: 0, EndMS: minute}
	b := types.Span{StartMS: 60 * minute, EndMS: 61 * minute}
	return types.Window{StartMS: 0, EndMS: b.EndMS, Segments: []types.Span{a, b}}
}

func TestCompareTwoPoints(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateCompareTwoPoints}
	w := twoPoints()

	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(closeAt(0, 100), closeAt(60*minute, 100.01))))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(closeAt(0, 100), closeAt(60*minute, 99.99))))
	assert.Equal(t, types.ResultSplit, eval(t, spec, w, seq(closeAt(0, 100), closeAt(60*minute, 100))))
	// Order of samples does not matter.
	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(closeAt(60*minute, 2), closeAt(0, 1))))
}

func TestCompareMissingPoint(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateCompareTwoPoints}
	assert.Equal(t, types.ResultInsufficientEvidence, eval(t, spec, twoPoints(), seq(closeAt(0, 100))))

	_, err := Evaluate(spec, singleWindow(0), seq(closeAt(0, 100)))
	assert.ErrorIs(t, err, ErrInvalidPredicate)
}

// --- winner by score ---

func game(home, away string, hs, as *float64, status string) types.EvidenceSample {
	return types.EvidenceSample{Kind: types.SampleGame, Game: types.GameResult{HomeTeam: home, AwayTeam: away, HomeScore: hs, AwayScore: as, Status: status}}
}

func score(f float64) *float64 { return &f }

func TestWinnerByScore(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateWinnerByScore, Home: "NYY", Away: "BOS"}
	w := singleWindow(0)

	tests := []struct {
		name   string
		sample types.EvidenceSample
		want   types.PredicateResult
	}{
		{"home wins", game("NYY", "BOS", score(5), score(3), "Final"), types.ResultMet},
		{"away wins", game("NYY", "BOS", score(1), score(3), "Final"), types.ResultNotMet},
		{"swapped orientation", game("BOS", "NYY", score(1), score(3), "Final"), types.ResultMet},
		{"case-insensitive teams", game("nyy", "bos", score(5), score(3), "Final"), types.ResultMet},
		{"final tie", game("NYY", "BOS", score(2), score(2), "Final"), types.ResultInsufficientEvidence},
		{"final without scores", game("NYY", "BOS", nil, nil, "Final"), types.ResultInsufficientEvidence},
		{"canceled ignores scores", game("NYY", "BOS", score(9), score(0), "Canceled"), types.ResultSplit},
		{"postponed", game("NYY", "BOS", nil, nil, "Postponed"), types.ResultNotYetDue},
		{"in progress", game("NYY", "BOS", score(1), score(0), "InProgress"), types.ResultNotYetDue},
		{"status is verbatim", game("NYY", "BOS", score(5), score(3), "final"), types.ResultNotYetDue},
		{"no matching game", game("LAD", "SF", score(5), score(3), "Final"), types.ResultInsufficientEvidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, spec, w, seq(tt.sample)))
		})
	}
}

func TestWinnerCustomStatuses(t *testing.T) {
	spec := types.PredicateSpec{
		Kind:             types.PredicateWinnerByScore,
		Home:             "BOS",
		Away:             "TOR",
		FinalStatuses:    []string{"Final", "F/OT", "F/SO"},
		CanceledStatuses: []string{"Canceled", "Forfeit"},
	}
	w := singleWindow(0)
	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(game("BOS", "TOR", score(3), score(2), "F/OT"))))
	assert.Equal(t, types.ResultSplit, eval(t, spec, w, seq(game("BOS", "TOR", nil, nil, "Forfeit"))))
}

func TestWinnerPicksMatchingGame(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateWinnerByScore, Home: "NYY", Away: "BOS"}
	samples := seq(
		game("LAD", "SF", score(9), score(0), "Final"),
		game("NYY", "BOS", score(0), score(4), "Final"),
	)
	assert.Equal(t, types.ResultNotMet, eval(t, spec, singleWindow(0), samples))
}

// --- text contains ---

func TestTextContains(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateTextContains, Phrase: "Rate  Cut"}
	text := func(s string) types.EvidenceSample { return types.EvidenceSample{Kind: types.SampleText, Text: s} }
	w := singleWindow(0)

	assert.Equal(t, types.ResultMet, eval(t, spec, w, seq(text("no news"), text("Powell hints at a RATE\ncut in June"))))
	assert.Equal(t, types.ResultNotMet, eval(t, spec, w, seq(text("rates held"))))
	assert.Equal(t, types.ResultInsufficientEvidence, eval(t, spec, w, seq()))
}

// --- errors ---

func TestEvaluateSequenceError(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateThresholdAbove, Value: 1}
	got, err := Evaluate(spec, singleWindow(0), failing(closeAt(0, 5)))
	require.Error(t, err)
	assert.Equal(t, types.ResultInsufficientEvidence, got)
}

func TestEvaluateWrongEvidence(t *testing.T) {
	spec := types.PredicateSpec{Kind: types.PredicateThresholdAbove, Value: 1}
	_, err := Evaluate(spec, singleWindow(0), seq(game("A", "B", nil, nil, "Final")))
	assert.ErrorIs(t, err, ErrWrongEvidence)

	spec = types.PredicateSpec{Kind: types.PredicateWinnerByScore, Home: "A", Away: "B"}
	_, err = Evaluate(spec, singleWindow(0), seq(closeAt(0, 1)))
	assert.ErrorIs(t, err, ErrWrongEvidence)
}

func TestValidate(t *testing.T) {
	bad := []types.PredicateSpec{
		{},
		{Kind: "sideways"},
		{Kind: types.PredicateThresholdAbove, Value: math.NaN()},
		{Kind: types.PredicateDipTo, Value: math.Inf(-1)},
		{Kind: types.PredicateThresholdAbove, Value: 1, Field: "volume"},
		{Kind: types.PredicateCompareTwoPoints, Field: "median"},
		{Kind: types.PredicateWinnerByScore, Home: "A"},
		{Kind: types.PredicateWinnerByScore, Home: "A", Away: "a"},
		{Kind: types.PredicateTextContains, Phrase: "  "},
	}
	for _, spec := range bad {
		assert.ErrorIs(t, Validate(spec), ErrInvalidPredicate, "%+v", spec)
	}

	good := []types.PredicateSpec{
		{Kind: types.PredicateThresholdBelow, Value: 0},
		{Kind: types.PredicateRiseTo, Value: 3, Field: "high"},
		{Kind: types.PredicateCompareTwoPoints},
		{Kind: types.PredicateWinnerByScore, Home: "A", Away: "B"},
		{Kind: types.PredicateTextContains, Phrase: "x"},
	}
	for _, spec := range good {
		assert.NoError(t, Validate(spec), "%+v", spec)
	}
}
