// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls theme metadata, pages, top-level sections and the
// raw texts and colors out of a WXR export.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/wxr"
	"github.com/pdiddy/theme-engine/pkg/types"
)

const (
	extractedDir = "extracted"

	defaultThemeTitle = "Untitled Theme"
	statusActive      = "active"
)

// Options controls identifiers and timestamps of an extraction. Zero values
// produce random UUIDs and the current time.
type Options struct {
	// ThemeID reuses an existing theme id instead of minting one.
	ThemeID string
	NewID   func() string
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.ThemeID == "" {
		o.ThemeID = o.NewID()
	}
	return o
}

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of exports processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any export failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractTheme builds the full extraction result for doc: the theme record
// (with the serialized export as content), every page item with its
// category and Elementor data, the top-level sections of each page, and the
// texts and colors of every _elementor_data meta in the export.
func ExtractTheme(doc *wxr.Document, opts Options) (*types.ExtractionResult, error) {
	opts = opts.withDefaults()
	now := opts.Now().UTC()

	raw, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serializing export: %w", err)
	}

	ch := doc.Channel()
	theme := types.Theme{
		ID:          opts.ThemeID,
		Title:       ch.Title,
		Description: ch.Description,
		Status:      statusActive,
		Content:     string(raw),
		CreatedAt:   now,
	}
	if !doc.HasChannelTitle() {
		theme.Title = defaultThemeTitle
	}

	res := &types.ExtractionResult{
		Theme: theme,
		Transformation: types.TransformationData{
			ID:        opts.NewID(),
			ThemeID:   theme.ID,
			Texts:     []string{},
			Colors:    []string{},
			CreatedAt: now,
		},
	}

	texts, colors := Collect(doc)
	res.Transformation.Texts = append(res.Transformation.Texts, texts...)
	res.Transformation.Colors = append(res.Transformation.Colors, colors...)

	for _, it := range doc.Pages() {
		if !it.HasTitle() {
			continue
		}
		page := types.Page{
			ID:            opts.NewID(),
			ThemeID:       theme.ID,
			PostID:        it.PostID(),
			Title:         it.Title(),
			Category:      elementor.StoredPageCategory(it.Title()),
			ElementorData: it.ElementorData(),
			Content:       it.Content(),
			CreatedAt:     now,
		}
		res.Pages = append(res.Pages, page)
		res.Sections = append(res.Sections, pageSections(page, opts.NewID, now)...)
	}
	return res, nil
}

// Collect returns the non-empty texts and the colors of every valid
// _elementor_data meta in doc, duplicates kept.
func Collect(doc *wxr.Document) (texts, colors []string) {
	for _, data := range doc.ElementorData() {
		if !gjson.Valid(data) {
			continue
		}
		for _, t := range elementor.ExtractTexts(data) {
			if strings.TrimSpace(t) != "" {
				texts = append(texts, t)
			}
		}
		colors = append(colors, elementor.ExtractColors(data)...)
	}
	return texts, colors
}

// ExtractContentOnly returns the pages and sections of doc without minting a
// theme. Only page items with a title, post id and non-empty content are
// kept, and page ids are the WordPress post ids.
func ExtractContentOnly(doc *wxr.Document) ([]types.Page, []types.Section) {
	var (
		pages    []types.Page
		sections []types.Section
	)
	for _, it := range doc.Pages() {
		if !it.HasTitle() || it.PostID() == "" || it.Content() == "" {
			continue
		}
		title := it.Title()
		if title == "" {
			title = "Untitled"
		}
		page := types.Page{
			ID:            it.PostID(),
			PostID:        it.PostID(),
			Title:         title,
			Category:      elementor.CategorizePage(title),
			ElementorData: it.ElementorData(),
			Content:       it.Content(),
		}
		pages = append(pages, page)
		sections = append(sections, pageSections(page, uuid.NewString, time.Time{})...)
	}
	return pages, sections
}

func pageSections(page types.Page, newID func() string, now time.Time) []types.Section {
	if page.ElementorData == "" || !gjson.Valid(page.ElementorData) {
		return nil
	}
	isHome := strings.EqualFold(page.Category, elementor.CategoryHome)
	var out []types.Section
	for _, node := range elementor.TopLevelSections(page.ElementorData, isHome) {
		out = append(out, types.Section{
			ID:        newID(),
			ThemeID:   page.ThemeID,
			PageID:    page.ID,
			Category:  node.Category,
			Content:   node.Content,
			CreatedAt: now,
		})
	}
	return out
}

// ExtractFile reads and extracts the export at path. When filter is set,
// duplicate pages are dropped first.
func ExtractFile(ctx context.Context, path string, filter bool, opts Options) (*types.ExtractionResult, error) {
	doc, err := wxr.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filter {
		report := wxr.FilterUniquePages(doc)
		logger.FromContext(ctx).Debug("filtered duplicate pages", "path", path, "kept", len(report.Kept), "excluded", len(report.Excluded))
	}
	return ExtractTheme(doc, opts)
}

// ExtractAll processes every *.xml export in cfg.InputDir and writes one
// YAML result per export to cfg.ProcessingDir/extracted/. Exports older
// than their result are skipped.
func ExtractAll(ctx context.Context, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	cfg = cfg.WithDefaults()
	outDir := filepath.Join(cfg.ProcessingDir, extractedDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading input directory %s: %w", cfg.InputDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".xml")
		srcPath := filepath.Join(cfg.InputDir, entry.Name())
		outPath := filepath.Join(outDir, name+".yaml")

		changed, err := hasChanged(srcPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "extracting %s\n", name)

		result, err := ExtractFile(ctx, srcPath, cfg.FilterDuplicates, Options{})
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := WriteResult(outPath, result); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", name, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "extracted %s (%d pages, %d sections, %d texts)\n",
			name, len(result.Pages), len(result.Sections), len(result.Transformation.Texts))
		summary.Extracted++
	}

	return summary, nil
}

// hasChanged reports whether the export is newer than its result file.
// Returns true if the result does not exist.
func hasChanged(srcPath, outPath string) (bool, error) {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, fmt.Errorf("stat export %s: %w", srcPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}

// WriteResult marshals the result to a YAML file. The theme's XML content
// is not written.
func WriteResult(path string, result *types.ExtractionResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResult loads a result written by WriteResult.
func ReadResult(path string) (*types.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading extraction result: %w", err)
	}
	var res types.ExtractionResult
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing extraction result %s: %w", path, err)
	}
	return &res, nil
}
