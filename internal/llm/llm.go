// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to the generative AI backends that rewrite theme text,
// propose color palettes and classify sections.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/theme-engine/pkg/types"
)

var (
	// ErrNoAPIKey is returned when a backend is built without credentials.
	ErrNoAPIKey = errors.New("llm: API key is not configured")

	// ErrEmptyResponse is returned when the backend answers without text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Request is one chat completion.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Client completes a prompt and returns the model's text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// New returns the backend selected by cfg.Provider.
func New(cfg types.AIConfig) (Client, error) {
	cfg = cfg.WithDefaults()
	switch cfg.Provider {
	case types.ProviderOpenAI:
		return NewOpenAI(cfg)
	case types.ProviderAnthropic:
		return NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

var (
	openFenceRe  = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	closeFenceRe = regexp.MustCompile("\\s*```$")
)

// StripFences removes a surrounding markdown code fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = openFenceRe.ReplaceAllString(s, "")
	s = closeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// FirstJSONObject returns the text from the first '{' to the last '}', or
// "" when there is none.
func FirstJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
