// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/wxr"
	"github.com/pdiddy/theme-engine/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func TestUnsplash_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("query") == "nothing" {
			_, _ = w.Write([]byte(`{"total":0,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"p1","urls":{"regular":"https://images.example/p1.jpg"}},{"id":"p2"}]}`))
	}))
	defer ts.Close()

	u, err := NewUnsplash(types.ImageConfig{AccessKey: "key-1", BaseURL: ts.URL})
	require.NoError(t, err)

	url, err := u.SearchOriented(context.Background(), "bakery, bread", "landscape")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/p1.jpg", url)

	_, err = u.SearchOriented(context.Background(), "nothing", "landscape")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestUnsplash_RetriesServerErrors(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"urls":{"regular":"https://images.example/ok.jpg"}}]}`))
	}))
	defer ts.Close()

	u, err := NewUnsplash(types.ImageConfig{AccessKey: "k", BaseURL: ts.URL})
	require.NoError(t, err)
	url, err := u.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/ok.jpg", url)
	assert.Equal(t, 2, calls)
}

func TestNewUnsplash_NoKey(t *testing.T) {
	_, err := NewUnsplash(types.ImageConfig{})
	assert.ErrorIs(t, err, ErrNoAccessKey)
}

func TestKeywords(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "rustic bakery, hero, photo", Keywords(ctx, nil, "rustic bakery", "hero", "photo"))

	failing := llm.ClientFunc(func(context.Context, llm.Request) (string, error) { return "", errors.New("down") })
	assert.Equal(t, "rustic bakery, hero, photo, high quality", Keywords(ctx, failing, "rustic bakery", "hero", "photo"))

	ok := llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		assert.Contains(t, req.User, "'rustic bakery'")
		return ` "bread, oven, warm" `, nil
	})
	assert.Equal(t, "bread, oven, warm", Keywords(ctx, ok, "rustic bakery", "hero", "photo"))
}

func TestOrientation(t *testing.T) {
	assert.Equal(t, "landscape", Orientation("Hero banner"))
	assert.Equal(t, "landscape", Orientation("about background"))
	assert.Equal(t, "portrait", Orientation("team profile"))
	assert.Equal(t, "landscape", Orientation("gallery"))
}

// fakeFinder records lookups and fails for keywords containing "fail".
type fakeFinder struct {
	calls []string
}

func (f *fakeFinder) SearchOriented(_ context.Context, keywords, orientation string) (string, error) {
	f.calls = append(f.calls, keywords+"|"+orientation)
	if strings.Contains(keywords, "fail") {
		return "", ErrNoResults
	}
	return "https://images.example/" + orientation + ".jpg", nil
}

const pageData = `[{"id":"s1","elType":"section","settings":{"background_image":{"id":7,"url":"https://old/bg.jpg"}},"elements":[
{"id":"w1","elType":"widget","widgetType":"form","settings":{"title":"Write to us"}},
{"id":"w2","elType":"widget","widgetType":"image","settings":{"image":{"id":9,"url":"https://old/a.jpg"}}},
{"id":"w3","elType":"widget","widgetType":"image","settings":{"image":{"url":""}}}]},
{"id":"s2","elType":"section","settings":{},"elements":[
{"id":"w4","elType":"widget","widgetType":"image","settings":{"image":{"url":"https://old/b.jpg"}}}]}]`

func TestReplaceImages(t *testing.T) {
	tree, err := elementor.Parse(pageData)
	require.NoError(t, err)

	finder := &fakeFinder{}
	r := &Replacer{Photos: finder}
	stats := r.ReplaceImages(context.Background(), tree, "rustic")
	assert.Equal(t, Stats{Images: 2, Backgrounds: 1}, stats)

	out, err := tree.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/landscape.jpg", gjson.Get(out, "0.settings.background_image.url").String())
	assert.False(t, gjson.Get(out, "0.settings.background_image.id").Exists())
	assert.Equal(t, "https://images.example/landscape.jpg", gjson.Get(out, "0.elements.1.settings.image.url").String())
	assert.Equal(t, "", gjson.Get(out, "0.elements.2.settings.image.url").String())

	// The first section is a contact section; the second has no category
	// and falls back to the widget type.
	assert.Equal(t, []string{
		"rustic, contact background, background_image|landscape",
		"rustic, contact, image_widget|landscape",
		"rustic, image, image_widget|landscape",
	}, finder.calls)
}

func TestReplaceImages_FailureKeepsURL(t *testing.T) {
	tree, err := elementor.Parse(`[{"id":"s","elType":"section","settings":{},"elements":[{"id":"w","elType":"widget","widgetType":"image","settings":{"image":{"url":"https://old/a.jpg"}}}]}]`)
	require.NoError(t, err)

	stats := (&Replacer{Photos: &fakeFinder{}}).ReplaceImages(context.Background(), tree, "fail")
	assert.Equal(t, Stats{Failed: 1}, stats)
	out, _ := tree.Marshal()
	assert.Equal(t, "https://old/a.jpg", gjson.Get(out, "0.elements.0.settings.image.url").String())
}

func TestReplaceInDocument(t *testing.T) {
	b := wxr.NewBuilder(wxr.SiteInfo{Title: "Bakery"}, nil)
	b.AddPage(wxr.PageSpec{ID: 1, Title: "Home", Slug: "home", ElementorData: pageData})
	b.AddPage(wxr.PageSpec{ID: 2, Title: "Empty", Slug: "empty"})
	doc := b.Document()

	stats, err := (&Replacer{Photos: &fakeFinder{}}).ReplaceInDocument(context.Background(), doc, "rustic")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Images+stats.Backgrounds)
	assert.Contains(t, doc.Pages()[0].ElementorData(), "https://images.example/landscape.jpg")
}
