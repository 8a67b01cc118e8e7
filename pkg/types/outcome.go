// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Outcome is one of the four canonical tokens a resolution produces.
type Outcome string

const (
	OutcomeA                Outcome = "p1"
	OutcomeB                Outcome = "p2"
	OutcomeUnknownOrSplit   Outcome = "p3"
	OutcomeNotYetResolvable Outcome = "p4"
)

// outcomeAliases maps the descriptive token names onto their short form.
var outcomeAliases = map[string]Outcome{
	"p1":                 OutcomeA,
	"p2":                 OutcomeB,
	"p3":                 OutcomeUnknownOrSplit,
	"p4":                 OutcomeNotYetResolvable,
	"outcome_a":          OutcomeA,
	"outcome_b":          OutcomeB,
	"unknown_or_split":   OutcomeUnknownOrSplit,
	"not_yet_resolvable": OutcomeNotYetResolvable,
}

// ParseOutcome accepts either the short token ("p1") or the descriptive
// name ("OUTCOME_A"), case-insensitively.
func ParseOutcome(s string) (Outcome, error) {
	o, ok := outcomeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown outcome token %q", s)
	}
	return o, nil
}

// Valid reports whether o is one of the four canonical tokens.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeA, OutcomeB, OutcomeUnknownOrSplit, OutcomeNotYetResolvable:
		return true
	}
	return false
}

// Name returns the descriptive name of the token.
func (o Outcome) Name() string {
	switch o {
	case OutcomeA:
		return "OUTCOME_A"
	case OutcomeB:
		return "OUTCOME_B"
	case OutcomeUnknownOrSplit:
		return "UNKNOWN_OR_SPLIT"
	case OutcomeNotYetResolvable:
		return "NOT_YET_RESOLVABLE"
	default:
		return "INVALID"
	}
}

// UnmarshalText lets request files use either spelling of a token.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// PredicateResult is the verdict of the predicate evaluator.
type PredicateResult int

const (
	ResultInsufficientEvidence PredicateResult = iota
	ResultMet
	ResultNotMet
	ResultNotYetDue
	// ResultSplit is ambiguous evidence with a defined meaning: equal
	// compare points or a canceled event.
	ResultSplit
)

func (r PredicateResult) String() string {
	switch r {
	case ResultMet:
		return "MET"
	case ResultNotMet:
		return "NOT_MET"
	case ResultNotYetDue:
		return "NOT_YET_DUE"
	case ResultSplit:
		return "SPLIT"
	default:
		return "INSUFFICIENT_EVIDENCE"
	}
}
