// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(types.AIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)

	c, err = New(types.AIConfig{Provider: types.ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, c)

	_, err = New(types.AIConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(types.AIConfig{Provider: "llama", APIKey: "k"})
	assert.Error(t, err)
}

func TestOpenAI_Complete(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ORIGINAL: a\nNEW: b"}}]}`))
	}))
	defer ts.Close()

	old := openAIBaseURL
	openAIBaseURL = ts.URL
	defer func() { openAIBaseURL = old }()

	c, err := NewOpenAI(types.AIConfig{APIKey: "secret"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), Request{System: "sys", User: "hello", Temperature: 0.7, MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "ORIGINAL: a\nNEW: b", out)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	c, err := NewOpenAI(types.AIConfig{APIKey: "k", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{User: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_RetriesRateLimit(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	c, err := NewOpenAI(types.AIConfig{APIKey: "k", BaseURL: ts.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), Request{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAI_RetriesWaitForLimiter(t *testing.T) {
	var (
		calls int32
		times [2]time.Time
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			times[n-1] = time.Now()
		}
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	// 600 per minute: one request every 100ms.
	c, err := NewOpenAI(types.AIConfig{APIKey: "k", BaseURL: ts.URL, RequestsPerMinute: 600})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{User: "x"})
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 80*time.Millisecond)
}

func TestAnthropic_Complete(t *testing.T) {
	var got messagesRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hello "},{"type":"tool_use"},{"type":"text","text":"world"}]}`))
	}))
	defer ts.Close()

	old := anthropicBaseURL
	anthropicBaseURL = ts.URL
	defer func() { anthropicBaseURL = old }()

	c, err := NewAnthropic(types.AIConfig{Provider: types.ProviderAnthropic, APIKey: "secret"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), Request{System: "be brief", User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, defaultAnthropicMaxTokens, got.MaxTokens)
}

func TestAnthropic_ClientError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer ts.Close()

	c, err := NewAnthropic(types.AIConfig{APIKey: "k", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{User: "x"})
	var serr *httputil.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{}\n```", "{}"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, FirstJSONObject(`Sure! {"a":{"b":1}} Hope that helps.`))
	assert.Equal(t, "", FirstJSONObject("no json here"))
	assert.Equal(t, "", FirstJSONObject("} backwards {"))
}
