// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the evidence fetcher.
package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryBaseDelay is the backoff base used when a Policy leaves BaseDelay
// zero. Tests override this to avoid real sleeps.
var RetryBaseDelay = 1500 * time.Millisecond

const defaultMaxRetries = 3

var errRateLimited = errors.New("rate limited")

// Policy bounds the 429 retries of one request. Zero fields take the
// package defaults: three retries starting at RetryBaseDelay.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = RetryBaseDelay
	}
	return p
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff. The delay starts at p.BaseDelay and
// doubles each attempt, so the default policy waits 1.5 s, 3 s, 6 s.
//
// On each 429 the response body is drained and closed before sleeping. If
// the context is cancelled during a backoff wait the function returns
// ctx.Err(). After exhausting retries the last 429 response is returned so
// the caller can classify it. Transport errors are returned immediately.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	p = p.withDefaults()

	var resp *http.Response
	attempt := 0
	operation := func() error {
		r, err := client.Do(req.Clone(ctx))
		if err != nil {
			return backoff.Permanent(err)
		}
		if r.StatusCode == http.StatusTooManyRequests && attempt < p.MaxRetries {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			attempt++
			return errRateLimited
		}
		resp = r
		return nil
	}

	notify := func(_ error, wait time.Duration) {
		zerolog.Ctx(ctx).Debug().
			Str("url", req.URL.Redacted()).
			Dur("wait", wait).
			Int("attempt", attempt).
			Int("max_retries", p.MaxRetries).
			Msg("rate limited, backing off")
	}

	if err := backoff.RetryNotify(operation, newPolicy(ctx, p), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// newPolicy returns a jitter-free doubling backoff bounded to p.MaxRetries
// and tied to ctx. p must already carry its defaults.
func newPolicy(ctx context.Context, p Policy) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.BaseDelay << p.MaxRetries
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx)
}
