// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FetchStatus tags a FetchResult.
type FetchStatus int

const (
	FetchSuccess FetchStatus = iota + 1
	FetchEmptyPayload
	FetchTransientFailure
	FetchTerminalFailure
)

func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchEmptyPayload:
		return "empty_payload"
	case FetchTransientFailure:
		return "transient_failure"
	case FetchTerminalFailure:
		return "terminal_failure"
	default:
		return "unknown"
	}
}

// FetchResult is the tagged outcome of a fetch. Pages is set only for
// FetchSuccess; Reason only for the failure variants.
type FetchResult struct {
	Status   FetchStatus
	Pages    [][]byte
	Reason   string
	Endpoint string
}

// Success builds a successful result from one or more payload pages.
func Success(endpoint string, pages ...[]byte) FetchResult {
	return FetchResult{Status: FetchSuccess, Pages: pages, Endpoint: endpoint}
}

// EmptyPayload builds a valid "no data" result.
func EmptyPayload(endpoint string) FetchResult {
	return FetchResult{Status: FetchEmptyPayload, Endpoint: endpoint}
}

// TransientFailure builds a recoverable failure for one endpoint.
func TransientFailure(endpoint, reason string) FetchResult {
	return FetchResult{Status: FetchTransientFailure, Reason: reason, Endpoint: endpoint}
}

// TerminalFailure builds an unrecoverable failure.
func TerminalFailure(endpoint, reason string) FetchResult {
	return FetchResult{Status: FetchTerminalFailure, Reason: reason, Endpoint: endpoint}
}
