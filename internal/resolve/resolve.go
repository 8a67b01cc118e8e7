// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve drives one resolution request through window resolution,
// fetching, normalization, and evaluation, and maps the result to exactly
// one outcome token. Retry and fallback live in the fetcher; this package
// takes each step once.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/resolution-engine/internal/fetch"
	"github.com/pdiddy/resolution-engine/internal/logging"
	"github.com/pdiddy/resolution-engine/internal/normalize"
	"github.com/pdiddy/resolution-engine/internal/outcome"
	"github.com/pdiddy/resolution-engine/internal/predicate"
	"github.com/pdiddy/resolution-engine/internal/request"
	"github.com/pdiddy/resolution-engine/internal/timewindow"
	"github.com/pdiddy/resolution-engine/pkg/types"
)

var errPanic = errors.New("resolution panicked")

// IsConfigError reports whether err is a configuration error: the request
// cannot be evaluated as written and no outcome token applies.
func IsConfigError(err error) bool {
	return errors.Is(err, request.ErrInvalidRequest) ||
		errors.Is(err, timewindow.ErrInvalidTimeSpec) ||
		errors.Is(err, predicate.ErrInvalidPredicate)
}

// Report is the record of one run.
type Report struct {
	RunID     string
	RequestID string
	Window    types.Window

	// FetchStatus is zero when the run ended before fetching.
	FetchStatus types.FetchStatus
	Endpoint    string

	Result  types.PredicateResult
	Outcome types.Outcome
	Trace   []State

	// Err is the cause of the ERROR state, if the run reached it.
	Err error
}

// Engine resolves requests. It is safe to reuse across requests but
// resolves one request at a time.
type Engine struct {
	fetcher *fetch.Fetcher
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	now     func() time.Time
	logger  zerolog.Logger
	client  *http.Client
	secrets fetch.Secrets
}

// WithClock replaces time.Now for the due check.
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) { o.now = now }
}

// WithLogger sets the parent logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithHTTPClient replaces the fetcher's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *engineOptions) { o.client = c }
}

// WithSecrets sets the credential source for {secret:NAME} placeholders.
func WithSecrets(s fetch.Secrets) Option {
	return func(o *engineOptions) { o.secrets = s }
}

// New builds an Engine around a fetcher configured from cfg.
func New(cfg types.FetchConfig, opts ...Option) *Engine {
	o := engineOptions{now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	fopts := []fetch.Option{fetch.WithLogger(o.logger), fetch.WithPagers(pagers)}
	if o.client != nil {
		fopts = append(fopts, fetch.WithClient(o.client))
	}
	if o.secrets != nil {
		fopts = append(fopts, fetch.WithSecrets(o.secrets))
	}
	return &Engine{
		fetcher: fetch.New(cfg, fopts...),
		now:     o.now,
		logger:  logging.Component(o.logger, "resolver"),
	}
}

// pagers adapts the normalizer registry to the fetcher.
func pagers(kind types.ProviderKind) (fetch.Pager, bool) {
	p, ok := normalize.PagerFor(kind)
	if !ok {
		return nil, false
	}
	return p, true
}

// Resolve returns the outcome of req. The error is non-nil only for
// configuration errors; every runtime failure resolves to p3.
func (e *Engine) Resolve(ctx context.Context, req types.ResolutionRequest) (types.Outcome, error) {
	rep, err := e.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return rep.Outcome, nil
}

// Run resolves req and returns the full record of the run.
func (e *Engine) Run(ctx context.Context, req types.ResolutionRequest) (*Report, error) {
	r := &run{
		rep: &Report{
			RunID:     uuid.NewString(),
			RequestID: req.ID,
			Trace:     []State{StateInit},
			Result:    types.ResultInsufficientEvidence,
		},
	}
	r.logger = e.logger.With().Str("run_id", r.rep.RunID).Str("request", req.ID).Logger()
	ctx = r.logger.WithContext(ctx)
	r.logger.Debug().Str("state", StateInit.String()).Msg("resolution started")

	if err := request.Validate(req); err != nil {
		r.fail(err)
		return r.rep, err
	}

	window, err := timewindow.ResolveSpec(req.Time)
	if err != nil {
		r.fail(err)
		return r.rep, err
	}
	r.rep.Window = window
	r.to(StateWindowResolved)
	r.logger.Debug().
		Time("start", window.Start()).
		Int("segments", len(window.Segments)).
		Msg("window resolved")

	result, err := e.guardedEvaluate(ctx, r, req, window)
	if err != nil {
		r.fail(err)
		if IsConfigError(err) {
			return r.rep, err
		}
		r.rep.Outcome = types.OutcomeUnknownOrSplit
		return r.rep, nil
	}

	r.rep.Result = result
	r.rep.Outcome = outcome.Map(result, req.Outcomes)
	r.to(StateDone)
	r.logger.Info().
		Str("result", result.String()).
		Str("outcome", string(r.rep.Outcome)).
		Str("meaning", r.rep.Outcome.Name()).
		Str("endpoint", r.rep.Endpoint).
		Msg("resolved")
	return r.rep, nil
}

// guardedEvaluate turns a panic in any later step into a runtime error.
func (e *Engine) guardedEvaluate(ctx context.Context, r *run, req types.ResolutionRequest, window types.Window) (result types.PredicateResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errPanic, p)
		}
	}()
	return e.evaluate(ctx, r, req, window)
}

// evaluate runs the fetch, normalize, and evaluate steps.
func (e *Engine) evaluate(ctx context.Context, r *run, req types.ResolutionRequest, window types.Window) (types.PredicateResult, error) {
	kind := req.Predicate.Kind
	nowMS := e.now().UnixMilli()

	// A time-series question cannot be decided before its window closes,
	// except that a scan which already reached its bound is decided.
	if kind.IsTimeSeries() && window.EndMS > nowMS {
		if !kind.IsScan() || window.StartMS >= nowMS {
			r.logger.Info().Time("window_end", time.UnixMilli(window.EndMS)).Msg("window has not closed")
			r.to(StateEvaluated)
			return types.ResultNotYetDue, nil
		}
		window = timewindow.ClampTo(window, nowMS)
		r.rep.Window = window
		r.logger.Debug().Msg("scanning an open window up to now")
	}

	fr := e.fetcher.Fetch(ctx, req.Source, window)
	r.rep.FetchStatus = fr.Status
	r.rep.Endpoint = fr.Endpoint
	switch fr.Status {
	case types.FetchSuccess:
		r.to(StateFetched)
	case types.FetchEmptyPayload:
		r.to(StateFetched)
		r.logger.Info().Msg("fetch returned no data")
		r.to(StateEvaluated)
		if window.Open && kind.IsScan() {
			return types.ResultNotYetDue, nil
		}
		return types.ResultInsufficientEvidence, nil
	default:
		return 0, fmt.Errorf("fetch %s: %s", fr.Status, fr.Reason)
	}

	samples, err := normalize.Normalize(fr.Pages, req.Source.Provider, normalize.Options{
		DataPath: req.Source.DataPath,
		Location: window.Location,
	})
	if err != nil {
		return 0, err
	}
	r.to(StateNormalized)

	result, err := predicate.Evaluate(req.Predicate, window, samples.All())
	if err != nil {
		return 0, err
	}
	r.to(StateEvaluated)
	return result, nil
}

type run struct {
	rep    *Report
	logger zerolog.Logger
}

func (r *run) to(s State) {
	from := r.rep.Trace[len(r.rep.Trace)-1]
	r.rep.Trace = append(r.rep.Trace, s)
	r.logger.Debug().Str("from", from.String()).Str("to", s.String()).Msg("transition")
}

func (r *run) fail(err error) {
	r.rep.Err = err
	r.to(StateError)
	if IsConfigError(err) {
		r.logger.Error().Err(err).Msg("configuration error")
		return
	}
	r.logger.Warn().Err(err).Msg("resolution failed, reporting unknown")
}
