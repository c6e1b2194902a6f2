// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/theme-engine/pkg/types"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func statusServer(t *testing.T, calls *int32, codes ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		code := codes[len(codes)-1]
		if n <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func get(c *resty.Client) func(ctx context.Context) (*resty.Response, error) {
	return func(ctx context.Context) (*resty.Response, error) {
		return c.R().SetContext(ctx).Get("/")
	}
}

func TestDo_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusOK)

	resp, err := Do(context.Background(), 5, get(NewClient(types.HTTPConfig{}, ts.URL)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusTooManyRequests, http.StatusBadGateway, http.StatusOK)

	resp, err := Do(context.Background(), 5, get(NewClient(types.HTTPConfig{}, ts.URL)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusTooManyRequests)

	_, err := Do(context.Background(), 3, get(NewClient(types.HTTPConfig{}, ts.URL)))
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusTooManyRequests, serr.StatusCode)
	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDo_DefaultMaxRetries(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusServiceUnavailable)

	_, err := Do(context.Background(), 0, get(NewClient(types.HTTPConfig{}, ts.URL)))
	assert.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusUnauthorized)

	_, err := Do(context.Background(), 5, get(NewClient(types.HTTPConfig{}, ts.URL)))
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_ContextCancelled(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, http.StatusTooManyRequests)

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Do(ctx, 5, get(NewClient(types.HTTPConfig{}, ts.URL)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(http.StatusTooManyRequests))
	assert.True(t, Retryable(http.StatusInternalServerError))
	assert.False(t, Retryable(http.StatusBadRequest))
	assert.False(t, Retryable(http.StatusOK))
}
