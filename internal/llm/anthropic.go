// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// anthropicBaseURL is the Claude API endpoint. Package-level var for test substitution.
var anthropicBaseURL = "https://api.anthropic.com/v1"

const defaultAnthropicMaxTokens = 4096

// Anthropic calls the Claude Messages API.
type Anthropic struct {
	model      string
	maxRetries int
	client     *resty.Client
	limiter    *rate.Limiter
}

type messagesRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropic builds a Claude backend.
func NewAnthropic(cfg types.AIConfig) (*Anthropic, error) {
	cfg = cfg.WithDefaults()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	base := cfg.BaseURL
	if base == "" {
		base = anthropicBaseURL
	}
	client := httputil.NewClient(cfg.HTTPConfig, base).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", "2023-06-01")
	return &Anthropic{
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		client:     client,
		limiter:    newLimiter(cfg.RequestsPerMinute),
	}, nil
}

// Complete implements Client. Text blocks of the reply are concatenated.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	body := messagesRequest{
		Model:       a.model,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: req.User}},
	}

	var out messagesResponse
	_, err := httputil.Do(ctx, a.maxRetries, func(ctx context.Context) (*resty.Response, error) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return a.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			Post("/messages")
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
