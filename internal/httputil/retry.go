// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages: a resty
// client factory and the retry policy used for AI and stock-photo APIs.
package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether a response status is worth retrying: 429 and
// every 5xx.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// NewClient returns a resty client configured from cfg. Retries are not
// enabled on the client itself; callers wrap requests in Do.
func NewClient(cfg types.HTTPConfig, baseURL string) *resty.Client {
	cfg = cfg.WithDefaults()
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)
}

// Do calls send and retries transport errors and
// retryable statuses with exponential backoff starting at RetryBaseDelay.
// When maxRetries is 0 the default (3) is used. Non-retryable statuses
// return a *StatusError immediately; after exhausting retries the last
// error is returned.
func Do(ctx context.Context, maxRetries int, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(RetryBaseDelay))

	var resp *resty.Response
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := send(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		if r.IsError() {
			serr := &StatusError{StatusCode: r.StatusCode(), Body: truncate(r.String(), 512)}
			if Retryable(r.StatusCode()) {
				return retry.RetryableError(serr)
			}
			return serr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
