// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate assembles new WordPress exports from stored sections
// and pages: a one-page site stacking sections on a single Home page, or
// a multi-page site with a navigation menu.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/palette"
	"github.com/pdiddy/theme-engine/internal/wxr"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// ErrNoSource is returned when a Generator has no store to read from.
var ErrNoSource = errors.New("generate: no section source configured")

// Generator builds exports from a Source. It is safe for concurrent use.
type Generator struct {
	Source  Source
	BaseURL string
	Now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator over src. A non-zero cfg.Seed makes selection
// reproducible.
func New(src Source, cfg types.GenerationConfig) *Generator {
	cfg = cfg.WithDefaults()
	seed1, seed2 := rand.Uint64(), rand.Uint64()
	if cfg.Seed != 0 {
		seed1, seed2 = uint64(cfg.Seed), uint64(cfg.Seed)
	}
	return &Generator{
		Source:  src,
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Now:     time.Now,
		rng:     rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (g *Generator) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *Generator) withRand(fn func(*rand.Rand) []string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.rng)
}

// SectionsFor parses query into section categories using the generator's
// random source.
func (g *Generator) SectionsFor(query string) []string {
	return g.withRand(func(r *rand.Rand) []string { return ParseSectionQuery(query, r) })
}

// PagesFor parses query into page categories using the generator's random
// source.
func (g *Generator) PagesFor(query string) []string {
	return g.withRand(func(r *rand.Rand) []string { return ParsePageQuery(query, r) })
}

// OnePage builds a single Home page whose Elementor data stacks one stored
// section per requested category. With a style, text fields get a style
// hint and the palette derived from the style is applied. White text is
// always replaced with a readable color.
func (g *Generator) OnePage(ctx context.Context, query, style string) (*wxr.Document, error) {
	if g.Source == nil {
		return nil, ErrNoSource
	}
	log := logger.FromContext(ctx)

	categories := g.SectionsFor(query)
	log.Info("one-page sections", "categories", categories)

	picks, err := g.pickSections(ctx, categories)
	if err != nil {
		return nil, err
	}

	var colors palette.PropertyColors
	if style != "" {
		colors = StyleColors(style)
	}

	data := elementor.Tree{}
	for _, p := range picks {
		tree, err := sectionElements(p.Section.Content)
		if err != nil {
			log.Warn("skipping unreadable section", "category", p.Category, "section", p.Section.ID, "err", err)
			continue
		}
		if style != "" {
			AddStyleHint([]any(tree), style)
			palette.Apply(tree, colors)
		}
		palette.FixWhiteText(tree, palette.SafeTextColor)
		data = append(data, tree...)
	}

	raw, err := data.Marshal()
	if err != nil {
		return nil, err
	}

	b := wxr.NewBuilder(wxr.SiteInfo{
		Title:       "Generated One-Page Site",
		Description: "A one-page website generated from selected sections",
		Generator:   "theme-engine one-page generator",
		BaseURL:     g.BaseURL,
	}, g.Now)
	b.AddPage(wxr.PageSpec{ID: 1, Title: "Home", Slug: "home", ElementorData: raw})
	log.Info("one-page site assembled", "sections", len(picks))
	return b.Document(), nil
}

// MultiPage builds one page per requested category that has a stored page,
// numbered from 1, followed by a navigation menu item for each of them.
// With a style, the style palette is applied to Elementor data.
func (g *Generator) MultiPage(ctx context.Context, query, style string) (*wxr.Document, error) {
	if g.Source == nil {
		return nil, ErrNoSource
	}
	log := logger.FromContext(ctx)

	categories := g.PagesFor(query)
	log.Info("multi-page pages", "categories", categories)

	picks, err := g.pickPages(ctx, categories)
	if err != nil {
		return nil, err
	}

	var colors palette.PropertyColors
	if style != "" {
		colors = StyleColors(style)
	}

	b := wxr.NewBuilder(wxr.SiteInfo{
		Title:       "Generated Multi-Page Site",
		Description: "A multi-page website generated from selected pages",
		Generator:   "theme-engine multi-page generator",
		BaseURL:     g.BaseURL,
	}, g.Now)

	id := 1
	for _, cat := range categories {
		page, ok := picks[cat]
		if !ok {
			continue
		}
		data := page.ElementorData
		if style != "" && strings.HasPrefix(strings.TrimSpace(data), "[{") {
			data = g.restyle(ctx, cat, data, colors)
		}
		b.AddPage(wxr.PageSpec{
			ID:            id,
			Title:         pageTitle(page, cat),
			Slug:          slug.Make(cat),
			Content:       page.Content,
			ElementorData: data,
			MenuOrder:     menuOrder(cat),
		})
		id++
	}

	for idx, cat := range categories {
		page, ok := picks[cat]
		if !ok {
			continue
		}
		b.AddMenuItem(wxr.MenuItemSpec{
			ID:        100 + idx,
			Title:     pageTitle(page, cat),
			URL:       fmt.Sprintf("%s/%s/", g.BaseURL, slug.Make(cat)),
			MenuOrder: idx,
		})
	}
	log.Info("multi-page site assembled", "pages", id-1)
	return b.Document(), nil
}

func (g *Generator) restyle(ctx context.Context, cat, data string, colors palette.PropertyColors) string {
	tree, err := elementor.Parse(data)
	if err != nil {
		logger.FromContext(ctx).Warn("palette not applied", "page", cat, "err", err)
		return data
	}
	palette.Apply(tree, colors)
	out, err := tree.Marshal()
	if err != nil {
		logger.FromContext(ctx).Warn("palette not applied", "page", cat, "err", err)
		return data
	}
	return out
}

func pageTitle(p types.Page, cat string) string {
	if p.Title != "" {
		return p.Title
	}
	return strings.ToUpper(cat[:1]) + cat[1:]
}

// menuOrder puts home first, then primary pages by position; other pages
// sort last.
func menuOrder(cat string) int {
	for i, p := range PrimaryPages {
		if p == cat {
			return i
		}
	}
	return 99
}

// WriteFile serializes doc to path and checks that the written file parses
// back as an export. An invalid file is removed.
func WriteFile(doc *wxr.Document, path string) error {
	if err := doc.WriteFile(path); err != nil {
		return err
	}
	if _, err := wxr.ReadFile(path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("generated export is invalid: %w (removing it: %v)", err, rmErr)
		}
		return fmt.Errorf("generated export is invalid: %w", err)
	}
	return nil
}
