// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{BaseDelay: time.Millisecond}

// sequenceServer answers with codes in order and repeats the last one.
func sequenceServer(t *testing.T, calls *int32, codes ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}
		w.WriteHeader(codes[n])
	}))
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"success on first try", []int{200}, 3, 200, 1},
		{"two 429s then success", []int{429, 429, 200}, 3, 200, 3},
		{"retries exhausted returns last 429", []int{429}, 2, 429, 3},
		{"zero max retries uses three", []int{429}, 0, 429, 4},
		{"server error is not retried", []int{500}, 3, 500, 1},
		{"not found is not retried", []int{404}, 3, 404, 1},
		{"forbidden is not retried", []int{403, 200}, 3, 403, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := sequenceServer(t, &calls, tt.codes...)

			p := fast
			p.MaxRetries = tt.maxRetries
			resp, err := DoWithRetry(context.Background(), ts.Client(), get(t, ts.URL), p)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestDoWithRetryUsesPolicyDelayOverDefault(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = time.Hour
	defer func() { RetryBaseDelay = old }()

	var calls int32
	ts := sequenceServer(t, &calls, 429, 429, 200)

	start := time.Now()
	resp, err := DoWithRetry(context.Background(), ts.Client(), get(t, ts.URL), Policy{MaxRetries: 3, BaseDelay: time.Millisecond})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestDoWithRetryCancelledDuringBackoff(t *testing.T) {
	var calls int32
	ts := sequenceServer(t, &calls, 429)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := DoWithRetry(ctx, ts.Client(), get(t, ts.URL), Policy{MaxRetries: 3, BaseDelay: time.Minute})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no second attempt after cancellation")
}

func TestDoWithRetryTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := DoWithRetry(context.Background(), http.DefaultClient, get(t, url), fast)
	assert.Error(t, err)
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"default base doubles", Policy{}, []time.Duration{1500 * time.Millisecond, 3 * time.Second, 6 * time.Second}},
		{"configured base", Policy{MaxRetries: 2, BaseDelay: 200 * time.Millisecond}, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}},
	}
	old := RetryBaseDelay
	RetryBaseDelay = 1500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newPolicy(context.Background(), tt.policy.withDefaults())
			for _, w := range tt.want {
				assert.Equal(t, w, b.NextBackOff())
			}
			assert.Equal(t, time.Duration(-1), b.NextBackOff(), "stops after the last retry")
		})
	}
}
