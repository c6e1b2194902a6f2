// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// echoClient upper-cases every ORIGINAL line of a text batch and answers
// palette prompts with a fixed color list.
type echoClient struct {
	calls int32
	fail  bool
}

func (c *echoClient) Complete(_ context.Context, req llm.Request) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fail {
		return "", errors.New("backend down")
	}
	if strings.Contains(req.User, "NEW COLORS") {
		return "=== COLOR PALETTE ===\nNEW COLORS: [#111111, #222222]\n=== NOTES ===\nDarker tones.\n", nil
	}
	var sb strings.Builder
	for _, line := range strings.Split(req.User, "\n") {
		if text, ok := strings.CutPrefix(line, "ORIGINAL: "); ok && text != "[original text]" {
			fmt.Fprintf(&sb, "ORIGINAL: %s\nNEW: %s\n\n", text, strings.ToUpper(text))
		}
	}
	return sb.String(), nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (m *memCache) GetCached(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) PutCached(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) InvalidateCached(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func sampleData(n int) types.TransformationData {
	d := types.TransformationData{Colors: []string{"#FFFFFF", "#2989CE", "#FFFFFF", "rgba(0,0,0,.5)"}}
	for i := 0; i < n; i++ {
		d.Texts = append(d.Texts, fmt.Sprintf("text number %d", i))
	}
	return d
}

func TestTransform_BatchesKeepOrder(t *testing.T) {
	client := &echoClient{}
	tr := New(client, nil, types.TransformationConfig{BatchSize: 3, Concurrency: 2})

	res, err := tr.Transform(context.Background(), sampleData(8), "bold")
	require.NoError(t, err)

	require.Len(t, res.TextTransformations, 8)
	for i, p := range res.TextTransformations {
		want := fmt.Sprintf("text number %d", i)
		assert.Equal(t, want, p.Original)
		assert.Equal(t, strings.ToUpper(want), p.Transformed)
	}
	assert.Equal(t, "bold", res.Style)

	assert.Equal(t, []string{"#FFFFFF", "#2989CE", "rgba(0,0,0,.5)"}, res.ColorPalette.OriginalColors)
	assert.Equal(t, []string{"#111111", "#222222", "#111111"}, res.ColorPalette.NewColors)
	assert.Equal(t, "Darker tones.", res.ColorPalette.Notes)
	// 3 text batches + 1 palette call.
	assert.Equal(t, int32(4), atomic.LoadInt32(&client.calls))
}

func TestTransform_FailuresDegrade(t *testing.T) {
	tr := New(&echoClient{fail: true}, nil, types.TransformationConfig{})

	res, err := tr.Transform(context.Background(), sampleData(2), "calm")
	require.NoError(t, err)

	for _, p := range res.TextTransformations {
		assert.Equal(t, p.Original, p.Transformed)
	}
	assert.Equal(t, res.ColorPalette.OriginalColors, res.ColorPalette.NewColors)
	assert.True(t, strings.HasPrefix(res.ColorPalette.Notes, "Error: "))
}

func TestTransform_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := New(llm.ClientFunc(func(ctx context.Context, _ llm.Request) (string, error) {
		return "", ctx.Err()
	}), nil, types.TransformationConfig{})

	_, err := tr.Transform(ctx, sampleData(2), "calm")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransform_UsesCache(t *testing.T) {
	cache := newMemCache()
	client := &echoClient{}
	tr := New(client, cache, types.TransformationConfig{BatchSize: 5})

	first, err := tr.Transform(context.Background(), sampleData(5), "retro")
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&client.calls))

	second, err := tr.Transform(context.Background(), sampleData(5), "retro")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&client.calls), "second run is served from cache")

	require.NoError(t, tr.InvalidateCache(context.Background(), "retro"))
	_, err = tr.Transform(context.Background(), sampleData(5), "retro")
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&client.calls))
}

func TestNew_DisableCache(t *testing.T) {
	tr := New(&echoClient{}, newMemCache(), types.TransformationConfig{DisableCache: true})
	assert.Nil(t, tr.Cache)
	assert.Equal(t, 5, tr.BatchSize)
	assert.Equal(t, 10, tr.MaxColors)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("text", "gpt-4o", "bold", []string{"a", "b"})
	assert.Equal(t, a, CacheKey("text", "gpt-4o", "bold", []string{"a", "b"}))
	assert.NotEqual(t, a, CacheKey("text", "gpt-4o", "bold", []string{"ab"}))
	assert.NotEqual(t, a, CacheKey("palette", "gpt-4o", "bold", []string{"a", "b"}))
	assert.NotEqual(t, a, CacheKey("text", "gpt-4o-mini", "bold", []string{"a", "b"}))
	assert.True(t, strings.HasPrefix(a, StylePrefix("bold")))
	assert.False(t, strings.HasPrefix(a, StylePrefix("calm")))
}

func TestParseBatch(t *testing.T) {
	texts := []string{"one", "two", "three"}
	reply := `Here are the results:
ORIGINAL: one
NEW: ONE
=== SECTION ===
ORIGINAL: two
no new marker here
ORIGINAL: three
NEW:   THREE  `

	pairs := ParseBatch(reply, texts)
	assert.Equal(t, []types.TextPair{
		{Original: "one", Transformed: "ONE"},
		{Original: "two", Transformed: "THREE"},
		{Original: "three", Transformed: "three"},
	}, pairs)

	assert.Equal(t, identityPairs(texts), ParseBatch("nothing useful", texts))
}

func TestParsePalette(t *testing.T) {
	originals := []string{"#a", "#b", "#c"}

	p := ParsePalette("NEW COLORS: #123, #abcdef\n=== NOTES ===\n  warm  \n", originals)
	assert.Equal(t, []string{"#123", "#abcdef", "#123"}, p.NewColors)
	assert.Equal(t, "warm", p.Notes)

	p = ParsePalette("NEW COLORS: #111111 #222222 #333333 #444444", originals[:2])
	assert.Equal(t, []string{"#111111", "#222222"}, p.NewColors)
	assert.Equal(t, defaultNotes, p.Notes)

	p = ParsePalette("I could not decide.", originals)
	assert.Equal(t, []string{"#000000", "#000000", "#000000"}, p.NewColors)
}

func TestTransformText(t *testing.T) {
	var calls int32
	tr := &Transformer{Client: llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		if strings.Contains(req.User, "fail") {
			return "", errors.New("nope")
		}
		return ` "Fresh and bold copy" `, nil
	})}
	ctx := context.Background()

	assert.Equal(t, "Hi", tr.TransformText(ctx, "Hi", "bold"))
	assert.Equal(t, "123456", tr.TransformText(ctx, "123456", "bold"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	assert.Equal(t, "Fresh and bold copy", tr.TransformText(ctx, "Plain old copy", "bold"))
	assert.Equal(t, "please fail here", tr.TransformText(ctx, "please fail here", "bold"))
}

func TestSampleTexts(t *testing.T) {
	sections := []string{
		`{"settings":{"title":"Welcome to our shop","text":"Short text"},"elements":[{"settings":{"heading":"We bake fresh bread","label":"ignored label here"}}]}`,
		`[{"button_text":"Order your cake now"},{"title":"Welcome to our shop"}]`,
		`not json`,
	}
	rng := rand.New(rand.NewPCG(7, 7))

	got := SampleTexts(sections, 10, rng)
	assert.Equal(t, []string{"We bake fresh bread", "Order your cake now", "Welcome to our shop"}, got)

	limited := SampleTexts(sections, 2, rng)
	assert.Len(t, limited, 2)
	assert.Subset(t, got, limited)
}

func TestFallbackData(t *testing.T) {
	d := FallbackData("theme-1", nil, rand.New(rand.NewPCG(1, 1)))
	assert.Equal(t, "theme-1", d.ThemeID)
	assert.Empty(t, d.Texts)
	assert.Equal(t, DefaultColors, d.Colors)
}
