// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/theme-engine/internal/extract"
	"github.com/pdiddy/theme-engine/internal/generate"
	"github.com/pdiddy/theme-engine/internal/jobs"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/palette"
	"github.com/pdiddy/theme-engine/internal/store"
	"github.com/pdiddy/theme-engine/internal/transform"
	"github.com/pdiddy/theme-engine/internal/wxr"
	"github.com/pdiddy/theme-engine/pkg/types"
)

const bakeryExport = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Bakery</title>
	<description>Fresh daily</description>
	<item>
		<title>Home</title>
		<content:encoded><![CDATA[<p>Fresh bread daily</p>]]></content:encoded>
		<wp:post_id>10</wp:post_id>
		<wp:post_type>page</wp:post_type>
		<wp:postmeta>
			<wp:meta_key><![CDATA[_elementor_data]]></wp:meta_key>
			<wp:meta_value><![CDATA[[{"id":"s1","elType":"section","settings":{"background_color":"#FFFFFF"},"elements":[{"id":"w1","elType":"widget","widgetType":"heading","settings":{"title":"Fresh bread daily","title_color":"#2989CE"}}]},{"id":"s2","elType":"section","settings":{},"elements":[{"id":"w2","elType":"widget","widgetType":"form","settings":{"button_text":"Send us a note"}}]}]]]></wp:meta_value>
		</wp:postmeta>
	</item>
</channel>
</rss>`

// upperClient upper-cases every text of a batch and answers palette prompts
// with a fixed color.
var upperClient = llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.User, "NEW COLORS") {
		return "=== COLOR PALETTE ===\nNEW COLORS: [#111111, #222222]\n=== NOTES ===\nDark.\n", nil
	}
	var sb strings.Builder
	for _, line := range strings.Split(req.User, "\n") {
		if text, ok := strings.CutPrefix(line, "ORIGINAL: "); ok && text != "[original text]" {
			fmt.Fprintf(&sb, "ORIGINAL: %s\nNEW: %s\n\n", text, strings.ToUpper(text))
		}
	}
	return sb.String(), nil
})

type fixture struct {
	o     *Orchestrator
	store *store.SQLite
	dir   string
	input string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	s, err := store.OpenSQLite(filepath.Join(dir, "index", "themes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	input := filepath.Join(dir, "input", "bakery.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0o755))
	require.NoError(t, os.WriteFile(input, []byte(bakeryExport), 0o644))

	gen := generate.New(s, types.GenerationConfig{Seed: 3})
	return &fixture{
		o: &Orchestrator{
			Store:       s,
			Transformer: transform.New(upperClient, nil, types.TransformationConfig{}),
			Generator:   gen,
			WorkDir:     filepath.Join(dir, "processing"),
			OutputDir:   filepath.Join(dir, "output"),
			Now:         func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) },
		},
		store: s,
		dir:   dir,
		input: input,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProcessTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.o.ProcessTheme(ctx, "job-1", f.input, "loud", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "output", "job-1.xml"), out)

	got := readFile(t, out)
	assert.Contains(t, got, "FRESH BREAD DAILY")
	assert.Contains(t, got, "SEND US A NOTE")
	assert.NoDirExists(t, filepath.Join(f.dir, "processing", "job-1"))

	themes, err := f.store.ListThemes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 1)
	assert.Equal(t, "Bakery", themes[0].Title)

	sections, err := f.store.ListSections(ctx, store.SectionFilter{ThemeID: themes[0].ID})
	require.NoError(t, err)
	assert.Len(t, sections, 2)

	td, err := f.store.GetTransformationData(ctx, themes[0].ID)
	require.NoError(t, err)
	assert.Contains(t, td.Texts, "Fresh bread daily")
}

func TestProcessTheme_SkipThemeCreation(t *testing.T) {
	f := newFixture(t)
	f.o.FilterPages = true
	ctx := context.Background()

	out, err := f.o.ProcessTheme(ctx, "job-2", f.input, "loud", true)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, out), "FRESH BREAD DAILY")

	themes, err := f.store.ListThemes(ctx)
	require.NoError(t, err)
	assert.Empty(t, themes)
	assert.NoDirExists(t, filepath.Join(f.dir, "processing", "job-2"))
}

func TestProcessTheme_InvalidInput(t *testing.T) {
	f := newFixture(t)
	bad := filepath.Join(f.dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<rss><item/></rss>"), 0o644))

	_, err := f.o.ProcessTheme(context.Background(), "job-3", bad, "", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NoDirExists(t, filepath.Join(f.dir, "processing", "job-3"))
	assert.NoFileExists(t, filepath.Join(f.dir, "output", "job-3.xml"))

	_, err = f.o.ProcessTheme(context.Background(), "job-4", filepath.Join(f.dir, "missing.xml"), "", false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func storeOriginal(t *testing.T, f *fixture) *types.ExtractionResult {
	t.Helper()
	doc, err := wxr.Parse([]byte(bakeryExport))
	require.NoError(t, err)
	res, err := extract.ExtractTheme(doc, extract.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Persist(context.Background(), f.store, res))
	return res
}

func TestTransformByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := storeOriginal(t, f)

	res, err := f.o.TransformByID(ctx, strings.ToUpper(original.Theme.ID), "")
	require.NoError(t, err)
	assert.Equal(t, original.Theme.ID, res.OriginalThemeID)
	assert.NotEqual(t, original.Theme.ID, res.NewThemeID)

	theme, err := f.store.GetTheme(ctx, res.NewThemeID)
	require.NoError(t, err)
	assert.Equal(t, "Transformed Bakery", theme.Title)
	assert.Equal(t, fmt.Sprintf("Transformed from theme %s with style 'default'", original.Theme.ID), theme.Description)
	assert.Equal(t, "active", theme.Status)

	content, err := f.store.ThemeContent(ctx, res.NewThemeID)
	require.NoError(t, err)
	assert.Contains(t, content, "FRESH BREAD DAILY")

	td, err := f.store.GetTransformationData(ctx, res.NewThemeID)
	require.NoError(t, err)
	assert.Equal(t, res.TransformationDataID, td.ID)
	assert.FileExists(t, res.OutputPath)
}

func TestTransformByID_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.o.TransformByID(ctx, "not-a-uuid", "")
	assert.ErrorIs(t, err, ErrInvalidThemeID)

	_, err = f.o.TransformByID(ctx, uuid.NewString(), "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	empty := &types.Theme{ID: uuid.NewString(), Title: "Empty", Status: "active"}
	require.NoError(t, f.store.CreateTheme(ctx, empty))
	_, err = f.o.TransformByID(ctx, empty.ID, "")
	assert.ErrorIs(t, err, store.ErrNoContent)
}

const heroSection = `{"id":"h1","elType":"section","settings":{"background_color":"#123456"},"elements":[{"id":"w1","elType":"widget","widgetType":"heading","settings":{"title":"Big news","title_color":"#ffffff"}}]}`

func seedSections(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.store.InsertSections(context.Background(), []types.Section{
		{ID: "sec-hero", ThemeID: "t", PageID: "p", Category: "hero", Content: heroSection},
	}))
}

func TestGenerateOnePage(t *testing.T) {
	f := newFixture(t)
	seedSections(t, f)

	out, err := f.o.GenerateOnePage(context.Background(), "gen-1", "hero", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "output", "gen-1.xml"), out)
	assert.Contains(t, readFile(t, out), "BIG NEWS")
	assert.NoDirExists(t, filepath.Join(f.dir, "processing", "gen-1"))
}

func TestGenerateOnePage_PaletteWithoutTransform(t *testing.T) {
	f := newFixture(t)
	seedSections(t, f)
	f.o.Transformer = nil
	f.o.Palette = &palette.Generator{}

	out, err := f.o.GenerateOnePage(context.Background(), "gen-2", "hero", "ocean blue")
	require.NoError(t, err)
	doc, err := wxr.ReadFile(out)
	require.NoError(t, err)
	data := doc.Pages()[0].ElementorData()
	assert.Equal(t, "Big news (ocean blue)", gjson.Get(data, "0.elements.0.settings.title").String())
	assert.NotEqual(t, "#ffffff", strings.ToLower(gjson.Get(data, "0.elements.0.settings.title_color").String()))
}

func TestGenerateOnePage_RewriteKeepsPalette(t *testing.T) {
	f := newFixture(t)
	seedSections(t, f)
	f.o.Palette = &palette.Generator{}
	whiteout := llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		if strings.Contains(req.User, "NEW COLORS") {
			return "NEW COLORS: [#ffffff]\n", nil
		}
		return "", nil
	})
	f.o.Transformer = transform.New(whiteout, nil, types.TransformationConfig{})

	ctx := context.Background()
	out, err := f.o.GenerateOnePage(ctx, "gen-4", "hero", "ocean blue")
	require.NoError(t, err)
	doc, err := wxr.ReadFile(out)
	require.NoError(t, err)
	data := doc.Pages()[0].ElementorData()

	got := strings.ToLower(gjson.Get(data, "0.elements.0.settings.title_color").String())
	assert.NotEqual(t, "#ffffff", got)
	if want, ok := f.o.Palette.Generate(ctx, "ocean blue").Colors().Lookup("title_color"); ok {
		assert.Equal(t, strings.ToLower(want), got)
	}
}

func TestRemoveFile(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.ContextWithLogger(context.Background(), logger.New(&logger.Config{Level: logger.DebugLevel, Output: &buf}))
	dir := t.TempDir()

	removeFile(ctx, filepath.Join(dir, "missing.xml"))
	assert.Empty(t, buf.String())

	busy := filepath.Join(dir, "busy")
	require.NoError(t, os.MkdirAll(filepath.Join(busy, "child"), 0o755))
	removeFile(ctx, busy)
	assert.Contains(t, buf.String(), "removing invalid output failed")
	assert.DirExists(t, busy)
}

func TestGenerateMultiPage_EmptyStore(t *testing.T) {
	f := newFixture(t)
	f.o.Transformer = nil

	out, err := f.o.GenerateMultiPage(context.Background(), "gen-3", "home and about", "")
	require.NoError(t, err)
	doc, err := wxr.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Generated Multi-Page Site", doc.Channel().Title)
	assert.Empty(t, doc.Pages())
}

func TestRunAll(t *testing.T) {
	f := newFixture(t)
	f.o.Jobs = jobs.NewManager(context.Background(), types.JobsConfig{Workers: 2})
	defer f.o.Jobs.Close()

	bad := filepath.Join(f.dir, "input", "broken.xml")
	require.NoError(t, os.WriteFile(bad, []byte("not xml"), 0o644))

	inputs, err := Inputs(filepath.Join(f.dir, "input"))
	require.NoError(t, err)
	require.Equal(t, []string{f.input, bad}, inputs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done, err := f.o.RunAll(ctx, inputs, "loud", true)
	require.NoError(t, err)
	require.Len(t, done, 2)

	assert.Equal(t, types.JobCompleted, done[0].Status)
	assert.Equal(t, filepath.Join(f.dir, "output", done[0].ID+".xml"), done[0].OutputPath)
	assert.Equal(t, types.JobFailed, done[1].Status)
	assert.Contains(t, done[1].Error, "invalid input export")
}

func TestSubmit_NoManager(t *testing.T) {
	o := &Orchestrator{}
	_, err := o.SubmitProcess("x.xml", "", false)
	assert.ErrorIs(t, err, ErrNoJobs)
	_, err = o.SubmitTransform(uuid.NewString(), "")
	assert.ErrorIs(t, err, ErrNoJobs)
	_, err = o.SubmitOnePage("hero", "")
	assert.ErrorIs(t, err, ErrNoJobs)
	_, err = o.SubmitMultiPage("home", "")
	assert.ErrorIs(t, err, ErrNoJobs)
}
