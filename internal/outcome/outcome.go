// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outcome maps predicate results onto canonical outcome tokens.
package outcome

import "github.com/pdiddy/resolution-engine/pkg/types"

// DefaultMap is used for any token a request leaves unset.
var DefaultMap = types.OutcomeMap{True: types.OutcomeA, False: types.OutcomeB}

// Map returns the token for r. MET and NOT_MET follow m; the other results
// are fixed: INSUFFICIENT_EVIDENCE and SPLIT map to p3, NOT_YET_DUE to p4.
func Map(r types.PredicateResult, m types.OutcomeMap) types.Outcome {
	m = withDefaults(m)
	switch r {
	case types.ResultMet:
		return m.True
	case types.ResultNotMet:
		return m.False
	case types.ResultNotYetDue:
		return types.OutcomeNotYetResolvable
	default:
		return types.OutcomeUnknownOrSplit
	}
}

func withDefaults(m types.OutcomeMap) types.OutcomeMap {
	if m.True == "" {
		m.True = DefaultMap.True
	}
	if m.False == "" {
		m.False = DefaultMap.False
	}
	return m
}
