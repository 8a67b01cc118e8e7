// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

// State is a step of one resolution run.
type State int

const (
	StateInit State = iota
	StateWindowResolved
	StateFetched
	StateNormalized
	StateEvaluated
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateWindowResolved:
		return "WINDOW_RESOLVED"
	case StateFetched:
		return "FETCHED"
	case StateNormalized:
		return "NORMALIZED"
	case StateEvaluated:
		return "EVALUATED"
	case StateDone:
		return "DONE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
