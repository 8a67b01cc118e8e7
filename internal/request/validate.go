// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package request

import (
	"fmt"

	"github.com/pdiddy/resolution-engine/internal/fetch"
	"github.com/pdiddy/resolution-engine/internal/normalize"
	"github.com/pdiddy/resolution-engine/internal/predicate"
	"github.com/pdiddy/resolution-engine/internal/timewindow"
	"github.com/pdiddy/resolution-engine/pkg/types"
)

// Validate reports the first problem that would stop req from being
// evaluated. Returned errors wrap ErrInvalidRequest and, where one applies,
// the more specific timewindow or predicate sentinel.
func Validate(req types.ResolutionRequest) error {
	provider, ok := normalize.Lookup(req.Source.Provider)
	if !ok {
		return fmt.Errorf("%w: unknown provider %q (known: %v)", ErrInvalidRequest, req.Source.Provider, normalize.Kinds())
	}
	if len(req.Source.Endpoints) == 0 {
		return fmt.Errorf("%w: source needs at least one endpoint", ErrInvalidRequest)
	}
	for i, ep := range req.Source.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("%w: endpoint %d has no url", ErrInvalidRequest, i)
		}
		if err := checkEndpoint(ep); err != nil {
			return fmt.Errorf("%w: endpoint %s: %w", ErrInvalidRequest, ep.Label(), err)
		}
	}
	if req.Source.PageLimit < 0 {
		return fmt.Errorf("%w: page_limit must not be negative", ErrInvalidRequest)
	}
	if req.Source.Paginate {
		if _, ok := normalize.PagerFor(req.Source.Provider); !ok {
			return fmt.Errorf("%w: provider %s does not support pagination", ErrInvalidRequest, req.Source.Provider)
		}
	}

	if _, err := timewindow.ResolveSpec(req.Time); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := predicate.Validate(req.Predicate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := checkShape(req.Predicate.Kind, req.Time); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if want, got := req.Predicate.Kind.SampleKind(), provider.SampleKind(); want != got {
		return fmt.Errorf("%w: %w: %s reads %s samples but provider %s yields %s",
			ErrInvalidRequest, predicate.ErrInvalidPredicate, req.Predicate.Kind, want, req.Source.Provider, got)
	}

	for name, o := range map[string]types.Outcome{"true": req.Outcomes.True, "false": req.Outcomes.False} {
		if o != "" && !o.Valid() {
			return fmt.Errorf("%w: outcomes.%s: unknown token %q", ErrInvalidRequest, name, o)
		}
	}
	return nil
}

func checkEndpoint(ep types.Endpoint) error {
	if err := fetch.CheckTemplate(ep.URL); err != nil {
		return err
	}
	for k, v := range ep.Params {
		if err := fetch.CheckTemplate(v); err != nil {
			return fmt.Errorf("param %s: %w", k, err)
		}
	}
	for k, v := range ep.Headers {
		if err := fetch.CheckTemplate(v); err != nil {
			return fmt.Errorf("header %s: %w", k, err)
		}
	}
	return nil
}

// checkShape matches the time spec form to what the predicate reads.
func checkShape(kind types.PredicateKind, ts types.TimeSpec) error {
	switch {
	case kind == types.PredicateThresholdAbove || kind == types.PredicateThresholdBelow:
		if ts.At == "" {
			return fmt.Errorf("%w: %s needs time.at", timewindow.ErrInvalidTimeSpec, kind)
		}
	case kind.IsScan():
		if ts.From == "" {
			return fmt.Errorf("%w: %s needs time.from and time.to", timewindow.ErrInvalidTimeSpec, kind)
		}
	case kind == types.PredicateCompareTwoPoints:
		if len(ts.Points) == 0 {
			return fmt.Errorf("%w: %s needs time.points", timewindow.ErrInvalidTimeSpec, kind)
		}
	}
	return nil
}
