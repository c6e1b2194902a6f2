// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate re-categorises stored sections with a generative AI
// backend. The model reads the full element JSON and picks one category
// from a fixed list.
package evaluate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/store"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// Categories are the labels the model may choose from, in match order.
var Categories = []string{
	"hero", "about", "services", "features", "portfolio", "team",
	"testimonials", "pricing", "contact", "faq", "cta", "clients",
	"footer", "blog", "products", "gallery", "skills", "map",
}

// ErrNoSections is returned when a theme has no stored sections.
var ErrNoSections = errors.New("evaluate: no sections found for theme")

// Store is the part of the store the evaluator needs.
type Store interface {
	ListSections(ctx context.Context, f store.SectionFilter) ([]types.Section, error)
	UpdateSectionCategory(ctx context.Context, id, category string) error
}

// SectionResult records the outcome for one section.
type SectionResult struct {
	SectionID   string `json:"section_id" yaml:"section_id"`
	OldCategory string `json:"old_category" yaml:"old_category"`
	NewCategory string `json:"new_category" yaml:"new_category"`
	Updated     bool   `json:"updated" yaml:"updated"`
	SkippedMain bool   `json:"skipped_main,omitempty" yaml:"skipped_main,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarises an evaluation run over one theme.
type Report struct {
	ThemeID   string          `json:"theme_id" yaml:"theme_id"`
	Total     int             `json:"total_sections" yaml:"total_sections"`
	Evaluated int             `json:"sections_evaluated" yaml:"sections_evaluated"`
	Updated   int             `json:"sections_updated" yaml:"sections_updated"`
	Results   []SectionResult `json:"evaluation_results" yaml:"evaluation_results"`
}

// Evaluator classifies sections through Client and persists changes to Store.
type Evaluator struct {
	Store  Store
	Client llm.Client
}

var systemPrompt = "You analyze WordPress Elementor sections and categorize them accurately based on their complete data. Respond with only the category name."

var promptTmpl = template.Must(template.New("evaluate").Parse(`You are an expert at analyzing WordPress Elementor sections.

I'll provide you with the complete Elementor data for a section, and you need to categorize it.

The possible categories are: {{.Categories}}

Current category: {{.Current}}

None of these sections is a hero section. Even if the layout looks like a hero or banner, use the content to decide the true category (for example contact or about).

Complete Elementor data for the section:
{{.Content}}

Analyze the structure, widgets, content and purpose of this section and respond with ONLY the category name.
`))

// EvaluateTheme classifies every section of themeID. Sections without
// content are ignored and main sections are reported but never sent to
// the backend. A failed update is recorded on its section and does not
// stop the run.
func (e *Evaluator) EvaluateTheme(ctx context.Context, themeID string) (*Report, error) {
	log := logger.FromContext(ctx)

	sections, err := e.Store.ListSections(ctx, store.SectionFilter{ThemeID: themeID})
	if err != nil {
		return nil, fmt.Errorf("listing sections of %s: %w", themeID, err)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("theme %s: %w", themeID, ErrNoSections)
	}
	log.Info("evaluating sections", "theme", themeID, "count", len(sections))

	report := &Report{ThemeID: themeID, Total: len(sections)}
	for _, s := range sections {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if s.Content == "" {
			log.Debug("skipping empty section", "section", s.ID)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s.Category), "main") {
			report.Results = append(report.Results, SectionResult{
				SectionID: s.ID, OldCategory: s.Category, NewCategory: s.Category, SkippedMain: true,
			})
			continue
		}

		res := SectionResult{SectionID: s.ID, OldCategory: s.Category}
		res.NewCategory = e.Classify(ctx, s.Content, s.Category)
		if res.NewCategory != s.Category {
			if err := e.Store.UpdateSectionCategory(ctx, s.ID, res.NewCategory); err != nil {
				log.Warn("updating section category failed", "section", s.ID, "err", err)
				res.NewCategory = ""
				res.Error = err.Error()
				report.Results = append(report.Results, res)
				continue
			}
			res.Updated = true
			report.Updated++
			log.Info("section recategorised", "section", s.ID, "from", s.Category, "to", res.NewCategory)
		}
		report.Results = append(report.Results, res)
	}
	report.Evaluated = len(report.Results)
	return report, nil
}

// Classify asks the backend for the category of one section. Any backend
// failure or unusable answer keeps current.
func (e *Evaluator) Classify(ctx context.Context, content, current string) string {
	if e.Client == nil {
		return current
	}
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, struct {
		Categories string
		Current    string
		Content    string
	}{strings.Join(Categories, ", "), current, content})
	if err != nil {
		return current
	}

	reply, err := e.Client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        buf.String(),
		Temperature: 0.3,
		MaxTokens:   50,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("section classification failed", "err", err)
		return current
	}
	return MatchCategory(reply, current)
}

// MatchCategory maps a model reply to a category: an exact match after
// trimming and lower-casing, else the first category contained in the
// reply, else current.
func MatchCategory(reply, current string) string {
	r := strings.ToLower(strings.TrimSpace(reply))
	for _, c := range Categories {
		if r == c {
			return c
		}
	}
	for _, c := range Categories {
		if strings.Contains(r, c) {
			return c
		}
	}
	return current
}
