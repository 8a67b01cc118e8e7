// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves time-bounded evidence from a ranked list of
// endpoints. Fallback is data: the source lists endpoints in order and the
// fetcher applies one uniform status policy to each of them.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/resolution-engine/internal/httputil"
	"github.com/pdiddy/resolution-engine/internal/logging"
	"github.com/pdiddy/resolution-engine/pkg/types"
)

const (
	defaultPageLimit = 1000
	maxBodyBytes     = 32 << 20
)

// Pager reports where the next page of a paginated scan starts.
type Pager interface {
	// LastEnd returns the end time of the last record on page and the
	// number of records the page holds. Zone-less times are read in loc.
	LastEnd(page []byte, loc *time.Location) (endMS int64, n int, err error)
}

// PagerLookup returns the pager for a provider kind.
type PagerLookup func(types.ProviderKind) (Pager, bool)

// Fetcher issues evidence requests. It keeps no state between calls other
// than the HTTP client's connection pool and the request pacer.
type Fetcher struct {
	client  *http.Client
	cfg     types.FetchConfig
	limiter *rate.Limiter
	secrets Secrets
	pagers  PagerLookup
	logger  zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithSecrets sets the resolver for {secret:NAME} placeholders.
func WithSecrets(s Secrets) Option {
	return func(f *Fetcher) { f.secrets = s }
}

// WithPagers sets the pager lookup used for paginated sources.
func WithPagers(p PagerLookup) Option {
	return func(f *Fetcher) { f.pagers = p }
}

// WithLogger sets the parent logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New returns a Fetcher with cfg defaults applied.
func New(cfg types.FetchConfig, opts ...Option) *Fetcher {
	cfg = cfg.Defaults()
	f := &Fetcher{
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: cfg.Timeout}
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	f.logger = logging.Component(f.logger, "fetcher")
	return f
}

// Fetch retrieves every segment of window from source. Segments are
// fetched in order; any terminal segment makes the whole fetch terminal so
// that a predicate is never applied to partial evidence.
func (f *Fetcher) Fetch(ctx context.Context, source types.SourceSpec, window types.Window) types.FetchResult {
	if len(source.Endpoints) == 0 {
		return types.TerminalFailure("", "no endpoints configured")
	}
	ctx = f.logger.WithContext(ctx)

	var pages [][]byte
	endpoint := ""
	for _, span := range window.Segments {
		r := f.fetchSegment(ctx, source, window, span)
		switch r.Status {
		case types.FetchSuccess:
			pages = append(pages, r.Pages...)
			endpoint = r.Endpoint
		case types.FetchEmptyPayload:
			f.logger.Debug().Int64("start_ms", span.StartMS).Msg("segment returned no data")
		default:
			return r
		}
	}
	if len(pages) == 0 {
		return types.EmptyPayload(endpoint)
	}
	return types.Success(endpoint, pages...)
}

// fetchSegment fetches one span, following pagination when enabled.
func (f *Fetcher) fetchSegment(ctx context.Context, source types.SourceSpec, window types.Window, span types.Span) types.FetchResult {
	if !source.Paginate {
		return f.fetchSpan(ctx, source, window, span)
	}

	var pager Pager
	if f.pagers != nil {
		pager, _ = f.pagers(source.Provider)
	}
	if pager == nil {
		return types.TerminalFailure("", fmt.Sprintf("provider %q does not support pagination", source.Provider))
	}

	var pages [][]byte
	endpoint := ""
	cursor := span.StartMS
	for n := 0; ; n++ {
		if n >= f.cfg.MaxPages {
			return types.TerminalFailure(endpoint, fmt.Sprintf("page limit %d reached before end of window", f.cfg.MaxPages))
		}

		r := f.fetchSpan(ctx, source, window, types.Span{StartMS: cursor, EndMS: span.EndMS})
		switch r.Status {
		case types.FetchSuccess:
		case types.FetchEmptyPayload:
			return finishPages(endpoint, pages)
		default:
			return r
		}

		page := r.Pages[0]
		pages = append(pages, page)
		endpoint = r.Endpoint

		end, count, err := pager.LastEnd(page, window.Location)
		if err != nil || count == 0 {
			// The normalizer reports malformed pages; stop paging here.
			return finishPages(endpoint, pages)
		}
		next := end + 1
		if next <= cursor || next >= span.EndMS {
			return finishPages(endpoint, pages)
		}
		f.logger.Debug().Int("page", n+1).Int64("next_start_ms", next).Msg("advancing page cursor")
		cursor = next
	}
}

func finishPages(endpoint string, pages [][]byte) types.FetchResult {
	if len(pages) == 0 {
		return types.EmptyPayload(endpoint)
	}
	return types.Success(endpoint, pages...)
}

// fetchSpan walks the endpoint list until one returns a usable answer.
func (f *Fetcher) fetchSpan(ctx context.Context, source types.SourceSpec, window types.Window, span types.Span) types.FetchResult {
	v := vars{
		span:    span,
		loc:     window.Location,
		limit:   source.PageLimit,
		secrets: f.secrets,
	}
	if v.limit <= 0 {
		v.limit = defaultPageLimit
	}

	last := ""
	for _, ep := range source.Endpoints {
		r := f.fetchEndpoint(ctx, ep, v)
		if r.Status != types.FetchTransientFailure {
			return r
		}
		f.logger.Warn().Str("endpoint", ep.Label()).Str("reason", r.Reason).Msg("endpoint failed, trying next")
		last = r.Reason
	}
	return types.TerminalFailure("", "all endpoints failed: "+last)
}

// fetchEndpoint issues one GET (with 429 retries) and classifies the answer.
func (f *Fetcher) fetchEndpoint(ctx context.Context, ep types.Endpoint, v vars) types.FetchResult {
	label := ep.Label()

	req, err := buildRequest(ctx, ep, v)
	if err != nil {
		if errors.Is(err, ErrMissingSecret) {
			return types.TransientFailure(label, err.Error())
		}
		return types.TerminalFailure(label, err.Error())
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	if err := f.limiter.Wait(ctx); err != nil {
		return types.TerminalFailure(label, fmt.Sprintf("waiting for request slot: %v", err))
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, f.client, req, httputil.Policy{
		MaxRetries: f.cfg.MaxRetries,
		BaseDelay:  f.cfg.RetryBaseDelay,
	})
	if err != nil {
		if ctx.Err() != nil {
			return types.TerminalFailure(label, fmt.Sprintf("request cancelled: %v", ctx.Err()))
		}
		return types.TransientFailure(label, fmt.Sprintf("request: %v", err))
	}
	defer resp.Body.Close()

	f.logger.Debug().
		Str("endpoint", label).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return types.TerminalFailure(label, fmt.Sprintf("HTTP %d: credentials or plan rejected", code))
	case code == http.StatusNotFound:
		return types.EmptyPayload(label)
	case code == http.StatusTooManyRequests:
		return types.TransientFailure(label, fmt.Sprintf("HTTP 429 after %d retries", f.cfg.MaxRetries))
	case code < 200 || code >= 300:
		return types.TransientFailure(label, fmt.Sprintf("HTTP %d", code))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.TransientFailure(label, fmt.Sprintf("reading body: %v", err))
	}
	if isEmptyBody(body) {
		return types.EmptyPayload(label)
	}
	return types.Success(label, body)
}

// buildRequest expands the endpoint templates into a GET request.
func buildRequest(ctx context.Context, ep types.Endpoint, v vars) (*http.Request, error) {
	raw, err := v.expand(ep.URL)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint URL: %w", err)
	}

	q := u.Query()
	for k, tmpl := range ep.Params {
		val, err := v.expand(tmpl)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		q.Set(k, val)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, tmpl := range ep.Headers {
		val, err := v.expand(tmpl)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", k, err)
		}
		req.Header.Set(k, val)
	}
	return req, nil
}

// isEmptyBody treats blank bodies and empty JSON containers as "no data".
func isEmptyBody(body []byte) bool {
	switch string(bytes.TrimSpace(body)) {
	case "", "[]", "{}", "null":
		return true
	}
	return false
}
