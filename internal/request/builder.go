// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package request

import (
	"maps"
	"slices"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// Builder assembles a ResolutionRequest in code. Build returns a validated
// copy; later calls on the Builder do not affect requests already built.
type Builder struct {
	req types.ResolutionRequest
}

// NewBuilder starts a request with the given id.
func NewBuilder(id string) *Builder {
	return &Builder{req: types.ResolutionRequest{ID: id}}
}

// Provider sets the normalizer kind.
func (b *Builder) Provider(kind types.ProviderKind) *Builder {
	b.req.Source.Provider = kind
	return b
}

// Endpoint appends an endpoint to the fallback list.
func (b *Builder) Endpoint(ep types.Endpoint) *Builder {
	b.req.Source.Endpoints = append(b.req.Source.Endpoints, ep)
	return b
}

// Paginate enables pagination with the given page size.
func (b *Builder) Paginate(limit int) *Builder {
	b.req.Source.Paginate = true
	b.req.Source.PageLimit = limit
	return b
}

// DataPath sets the gjson path to the evidence in each payload.
func (b *Builder) DataPath(path string) *Builder {
	b.req.Source.DataPath = path
	return b
}

// At sets a single-time window.
func (b *Builder) At(local, zone string) *Builder {
	b.req.Time = types.TimeSpec{Timezone: zone, At: local, WidthMS: b.req.Time.WidthMS}
	return b
}

// Range sets a scan window.
func (b *Builder) Range(from, to, zone string) *Builder {
	b.req.Time = types.TimeSpec{Timezone: zone, From: from, To: to}
	return b
}

// Points sets the two comparison times.
func (b *Builder) Points(first, second, zone string) *Builder {
	b.req.Time = types.TimeSpec{Timezone: zone, Points: []string{first, second}, WidthMS: b.req.Time.WidthMS}
	return b
}

// Width overrides the fixed window width.
func (b *Builder) Width(ms int64) *Builder {
	b.req.Time.WidthMS = ms
	return b
}

// Predicate sets the comparison.
func (b *Builder) Predicate(p types.PredicateSpec) *Builder {
	b.req.Predicate = p
	return b
}

// Outcomes sets the tokens for MET and NOT_MET.
func (b *Builder) Outcomes(onTrue, onFalse types.Outcome) *Builder {
	b.req.Outcomes = types.OutcomeMap{True: onTrue, False: onFalse}
	return b
}

// Build validates and returns a deep copy of the request.
func (b *Builder) Build() (types.ResolutionRequest, error) {
	req := clone(b.req)
	if err := Validate(req); err != nil {
		return types.ResolutionRequest{}, err
	}
	return req, nil
}

func clone(r types.ResolutionRequest) types.ResolutionRequest {
	out := r
	out.Source.Endpoints = make([]types.Endpoint, len(r.Source.Endpoints))
	for i, ep := range r.Source.Endpoints {
		ep.Params = maps.Clone(ep.Params)
		ep.Headers = maps.Clone(ep.Headers)
		out.Source.Endpoints[i] = ep
	}
	out.Time.Points = slices.Clone(r.Time.Points)
	out.Predicate.FinalStatuses = slices.Clone(r.Predicate.FinalStatuses)
	out.Predicate.CanceledStatuses = slices.Clone(r.Predicate.CanceledStatuses)
	return out
}
