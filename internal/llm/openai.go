// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// openAIBaseURL is the OpenAI API endpoint. Package-level var for test substitution.
var openAIBaseURL = "https://api.openai.com/v1"

// OpenAI calls the chat completions API.
type OpenAI struct {
	model      string
	maxRetries int
	client     *resty.Client
	limiter    *rate.Limiter
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAI builds an OpenAI backend.
func NewOpenAI(cfg types.AIConfig) (*OpenAI, error) {
	cfg = cfg.WithDefaults()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	base := cfg.BaseURL
	if base == "" {
		base = openAIBaseURL
	}
	client := httputil.NewClient(cfg.HTTPConfig, base).
		SetAuthToken(cfg.APIKey)
	return &OpenAI{
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		client:     client,
		limiter:    newLimiter(cfg.RequestsPerMinute),
	}, nil
}

// Complete implements Client.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:       o.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})

	var out chatResponse
	_, err := httputil.Do(ctx, o.maxRetries, func(ctx context.Context) (*resty.Response, error) {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return o.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			Post("/chat/completions")
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
