// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/theme-engine/pkg/types"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "themes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() *types.ExtractionResult {
	return &types.ExtractionResult{
		Theme: types.Theme{ID: "theme-1", Title: "Bakery", Description: "Fresh", Status: "active", Content: "<rss/>", CreatedAt: t0},
		Pages: []types.Page{
			{ID: "page-1", ThemeID: "theme-1", PostID: "10", Title: "Home", Category: "home", ElementorData: "[]", CreatedAt: t0},
			{ID: "page-2", ThemeID: "theme-1", PostID: "11", Title: "About", Category: "about", CreatedAt: t0.Add(time.Second)},
		},
		Sections: []types.Section{
			{ID: "sec-1", ThemeID: "theme-1", PageID: "page-1", Category: "main", Content: `{"settings":{"title":"Fresh bread every morning"}}`, CreatedAt: t0},
			{ID: "sec-2", ThemeID: "theme-1", PageID: "page-1", Category: "contact", Content: `{"settings":{"title":"Visit the bakery"}}`, CreatedAt: t0.Add(time.Second)},
		},
		Transformation: types.TransformationData{ID: "td-1", ThemeID: "theme-1", Texts: []string{"Fresh bread"}, Colors: []string{"#FFFFFF"}, CreatedAt: t0},
	}
}

func TestSQLite_PersistAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, Persist(ctx, s, sampleResult()))

	theme, err := s.GetTheme(ctx, "theme-1")
	require.NoError(t, err)
	assert.Equal(t, "Bakery", theme.Title)
	assert.True(t, theme.CreatedAt.Equal(t0))

	themes, err := s.ListThemes(ctx)
	require.NoError(t, err)
	assert.Len(t, themes, 1)

	pages, err := s.ListPages(ctx, PageFilter{Category: "about"})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "page-2", pages[0].ID)
	assert.Equal(t, "", pages[0].ElementorData)

	all, err := s.ListSections(ctx, SectionFilter{ThemeID: "theme-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "sec-1", all[0].ID)

	hits, err := s.ListSections(ctx, SectionFilter{Query: "visit"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sec-2", hits[0].ID)

	td, err := s.GetTransformationData(ctx, "theme-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fresh bread"}, td.Texts)
	assert.Equal(t, []string{"#FFFFFF"}, td.Colors)

	// Transformation data already stored for a theme is not inserted again.
	require.NoError(t, s.SaveTransformationData(ctx, &types.TransformationData{ID: "td-4", ThemeID: "theme-4"}))
	require.NoError(t, Persist(ctx, s, &types.ExtractionResult{
		Theme:          types.Theme{ID: "theme-4", Title: "Again", Status: "active"},
		Transformation: types.TransformationData{ID: "td-1", ThemeID: "theme-4"},
	}))
	td, err = s.GetTransformationData(ctx, "theme-4")
	require.NoError(t, err)
	assert.Equal(t, "td-4", td.ID)
	assert.Empty(t, td.Texts)
}

func TestSQLite_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.GetTheme(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetTransformationData(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.UpdateSectionCategory(ctx, "missing", "hero"), ErrNotFound)

	_, err = s.ThemeContent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ThemeContent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateTheme(ctx, &types.Theme{ID: "a", Title: "A", Status: "active"}))
	_, err := s.ThemeContent(ctx, "a")
	assert.ErrorIs(t, err, ErrNoContent)

	require.NoError(t, s.AddThemeFile(ctx, "a", "<rss>file</rss>"))
	got, err := s.ThemeContent(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "<rss>file</rss>", got)

	require.NoError(t, s.UpdateThemeContent(ctx, "a", "<rss>content</rss>"))
	got, err = s.ThemeContent(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "<rss>content</rss>", got)

	// content is set, so the next update lands in xml_content and the
	// content column still wins.
	require.NoError(t, s.UpdateThemeContent(ctx, "a", "<rss>second</rss>"))
	got, err = s.ThemeContent(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "<rss>content</rss>", got)
}

func TestSQLite_UpdateSectionCategory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, Persist(ctx, s, sampleResult()))

	require.NoError(t, s.UpdateSectionCategory(ctx, "sec-2", "map"))
	got, err := s.ListSections(ctx, SectionFilter{Category: "map"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sec-2", got[0].ID)

	// The FTS index follows updates.
	hits, err := s.ListSections(ctx, SectionFilter{Query: "bakery", Category: "map"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSQLite_KeywordSearchWithoutFTS5(t *testing.T) {
	orig := fts5Available
	fts5Available = func(*sql.DB) bool { return false }
	t.Cleanup(func() { fts5Available = orig })

	ctx := context.Background()
	s := openTestStore(t)
	assert.False(t, s.fts)
	require.NoError(t, Persist(ctx, s, sampleResult()))
	require.NoError(t, s.InsertSections(ctx, []types.Section{
		{ID: "sec-3", ThemeID: "theme-1", PageID: "page-2", Category: "about", Content: `{"settings":{"title":"100% organic_flour"}}`, CreatedAt: t0},
	}))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name = 'sections_fts'`).Scan(&n))
	assert.Zero(t, n)

	hits, err := s.ListSections(ctx, SectionFilter{Query: "VISIT"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sec-2", hits[0].ID)

	hits, err = s.ListSections(ctx, SectionFilter{Query: "100%"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sec-3", hits[0].ID)

	hits, err = s.ListSections(ctx, SectionFilter{Query: "bread_every"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = s.ListSections(ctx, SectionFilter{Query: "organic_flour"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSQLite_Cache(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.GetCached(ctx, "abc:text:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutCached(ctx, "abc:text:1", "one"))
	require.NoError(t, s.PutCached(ctx, "abc:text:1", "uno"))
	require.NoError(t, s.PutCached(ctx, "xyz:text:1", "other"))

	v, ok, err := s.GetCached(ctx, "abc:text:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "uno", v)

	require.NoError(t, s.InvalidateCached(ctx, "abc:"))
	_, ok, _ = s.GetCached(ctx, "abc:text:1")
	assert.False(t, ok)
	_, ok, _ = s.GetCached(ctx, "xyz:text:1")
	assert.True(t, ok)
}

func TestSQLite_SaveTransformation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	tr := &types.Transformation{ID: "tr-1", ThemeID: "theme-1", Style: "bold", Status: "processing"}
	require.NoError(t, s.SaveTransformation(ctx, tr))
	tr.Status, tr.ResultThemeID = "completed", "theme-9"
	require.NoError(t, s.SaveTransformation(ctx, tr))

	var status, result string
	require.NoError(t, s.db.QueryRow(`SELECT status, result_theme_id FROM transformations WHERE id = 'tr-1'`).Scan(&status, &result))
	assert.Equal(t, "completed", status)
	assert.Equal(t, "theme-9", result)
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	dir := t.TempDir()
	extracted := filepath.Join(dir, "extracted")
	input := filepath.Join(dir, "input")
	require.NoError(t, os.MkdirAll(extracted, 0o755))
	require.NoError(t, os.MkdirAll(input, 0o755))

	data, err := yaml.Marshal(sampleResult())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(extracted, "bakery.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(extracted, "broken.yaml"), []byte("theme: [unclosed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(input, "bakery.xml"), []byte("<rss>bakery</rss>"), 0o644))

	var out bytes.Buffer
	summary, err := Ingest(ctx, s, extracted, input, &out)
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Indexed: 1, Failed: 1}, summary)

	content, err := s.ThemeContent(ctx, "theme-1")
	require.NoError(t, err)
	assert.Equal(t, "<rss>bakery</rss>", content)

	summary, err = Ingest(ctx, s, extracted, input, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Total())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, types.StoreConfig{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, types.StoreConfig{Driver: "mongo"})
	assert.True(t, errors.Is(err, ErrUnknownDriver))

	_, err = Open(ctx, types.StoreConfig{Driver: types.DriverPostgres})
	assert.Error(t, err, "postgres requires a DSN")
}
