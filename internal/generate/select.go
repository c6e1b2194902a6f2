// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/store"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// Source is the part of the store the generators read from.
type Source interface {
	ListSections(ctx context.Context, f store.SectionFilter) ([]types.Section, error)
	ListPages(ctx context.Context, f store.PageFilter) ([]types.Page, error)
}

var (
	genericSectionTerms = []string{"content", "section", "block", "element", "widget"}
	genericPageTerms    = []string{"content", "page", "block", "element", "widget"}
)

// SectionPick is one section chosen for a requested category.
type SectionPick struct {
	Category string
	Section  types.Section
}

// PagePick is one page chosen for a requested category.
type PagePick struct {
	Category string
	Page     types.Page
}

// pickSections chooses one stored section per category: an exact category
// match first, then a section whose content mentions a category keyword,
// then any section with generic builder content. Categories with no
// candidate at all are dropped. Picks keep the requested order.
func (g *Generator) pickSections(ctx context.Context, categories []string) ([]SectionPick, error) {
	log := logger.FromContext(ctx)
	var picks []SectionPick
	var all []types.Section
	loadedAll := false

	for _, cat := range categories {
		exact, err := g.Source.ListSections(ctx, store.SectionFilter{Category: cat})
		if err != nil {
			return nil, fmt.Errorf("listing %s sections: %w", cat, err)
		}
		if len(exact) > 0 {
			picks = append(picks, SectionPick{Category: cat, Section: exact[g.intN(len(exact))]})
			continue
		}

		var matches []types.Section
		seen := map[string]bool{}
		for _, kw := range keywordsFor(SectionCategories, cat) {
			hits, err := g.Source.ListSections(ctx, store.SectionFilter{Query: kw})
			if err != nil {
				return nil, fmt.Errorf("searching sections for %q: %w", kw, err)
			}
			for _, h := range hits {
				if !seen[h.ID] {
					seen[h.ID] = true
					matches = append(matches, h)
				}
			}
		}
		if len(matches) > 0 {
			log.Debug("keyword match for section", "category", cat, "candidates", len(matches))
			picks = append(picks, SectionPick{Category: cat, Section: matches[g.intN(len(matches))]})
			continue
		}

		if !loadedAll {
			all, err = g.Source.ListSections(ctx, store.SectionFilter{})
			if err != nil {
				return nil, fmt.Errorf("listing sections: %w", err)
			}
			loadedAll = true
		}
		var generic []types.Section
		for _, s := range all {
			if containsAnyTerm(strings.ToLower(s.Content+" "+s.Category), genericSectionTerms) {
				generic = append(generic, s)
			}
		}
		if len(generic) == 0 {
			log.Warn("no section available", "category", cat)
			continue
		}
		log.Debug("generic section used", "category", cat)
		picks = append(picks, SectionPick{Category: cat, Section: generic[g.intN(len(generic))]})
	}
	return picks, nil
}

// storedPageLabels maps page categories onto the coarser labels pages are
// stored under where the two differ.
var storedPageLabels = map[string]string{
	"services": elementor.CategoryService,
}

// pickPages chooses one stored page per category with the same fallback
// order as pickSections. Keyword matches look at the page content and title.
func (g *Generator) pickPages(ctx context.Context, categories []string) (map[string]types.Page, error) {
	log := logger.FromContext(ctx)
	picks := map[string]types.Page{}
	var all []types.Page
	loadedAll := false

	for _, cat := range categories {
		label := cat
		if l, ok := storedPageLabels[cat]; ok {
			label = l
		}
		exact, err := g.Source.ListPages(ctx, store.PageFilter{Category: label})
		if err != nil {
			return nil, fmt.Errorf("listing %s pages: %w", cat, err)
		}
		if len(exact) > 0 {
			picks[cat] = exact[g.intN(len(exact))]
			continue
		}

		if !loadedAll {
			all, err = g.Source.ListPages(ctx, store.PageFilter{})
			if err != nil {
				return nil, fmt.Errorf("listing pages: %w", err)
			}
			loadedAll = true
		}

		keywords := keywordsFor(PageCategories, cat)
		var matches, generic []types.Page
		for _, p := range all {
			content := strings.ToLower(p.Content + " " + p.ElementorData)
			if containsAnyTerm(content, keywords) || containsAnyTerm(strings.ToLower(p.Title), keywords) {
				matches = append(matches, p)
			}
			if containsAnyTerm(strings.ToLower(p.Title+" "+content), genericPageTerms) {
				generic = append(generic, p)
			}
		}
		switch {
		case len(matches) > 0:
			log.Debug("keyword match for page", "category", cat, "candidates", len(matches))
			picks[cat] = matches[g.intN(len(matches))]
		case len(generic) > 0:
			log.Debug("generic page used", "category", cat)
			picks[cat] = generic[g.intN(len(generic))]
		default:
			log.Warn("no page available", "category", cat)
		}
	}
	return picks, nil
}

func containsAnyTerm(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
