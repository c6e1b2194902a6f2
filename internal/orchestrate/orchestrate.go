// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate chains extraction, transformation and replacement
// into whole-theme jobs, transforms stored themes by id and produces
// generated sites. Every run works in its own directory under WorkDir and
// writes one export to OutputDir.
package orchestrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/extract"
	"github.com/pdiddy/theme-engine/internal/generate"
	"github.com/pdiddy/theme-engine/internal/images"
	"github.com/pdiddy/theme-engine/internal/jobs"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/palette"
	"github.com/pdiddy/theme-engine/internal/replace"
	"github.com/pdiddy/theme-engine/internal/store"
	"github.com/pdiddy/theme-engine/internal/transform"
	"github.com/pdiddy/theme-engine/internal/wxr"
	"github.com/pdiddy/theme-engine/pkg/types"
)

const (
	defaultWorkDir   = "processing"
	defaultOutputDir = "output"
	defaultStyle     = "default"
	statusActive     = "active"
	statusCompleted  = "completed"
)

// Job kinds reported by the job manager.
const (
	KindProcess   = "process"
	KindTransform = "transform"
	KindOnePage   = "onepage"
	KindMultiPage = "multipage"
)

var (
	// ErrInvalidThemeID is returned when a theme id is not a UUID.
	ErrInvalidThemeID = errors.New("orchestrate: theme id is not a valid UUID")

	// ErrInvalidInput is returned when an input export fails validation.
	ErrInvalidInput = errors.New("orchestrate: invalid input export")

	// ErrNoJobs is returned by the Submit methods when no job manager is set.
	ErrNoJobs = errors.New("orchestrate: no job manager configured")
)

// Orchestrator wires the pipeline stages together. Store and Transformer
// are required for theme processing and Generator for site generation.
// Palette and Images are optional finishing steps for generated sites.
type Orchestrator struct {
	Store       store.Store
	Transformer *transform.Transformer
	Palette     *palette.Generator
	Generator   *generate.Generator
	Images      *images.Replacer
	Jobs        *jobs.Manager

	WorkDir   string
	OutputDir string
	// FilterPages drops duplicate page variants before extraction.
	FilterPages bool

	Now   func() time.Time
	NewID func() string
}

func (o *Orchestrator) workDir(id string) string {
	base := o.WorkDir
	if base == "" {
		base = defaultWorkDir
	}
	return filepath.Join(base, id)
}

func (o *Orchestrator) outputPath(id string) string {
	base := o.OutputDir
	if base == "" {
		base = defaultOutputDir
	}
	return filepath.Join(base, id+".xml")
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

func (o *Orchestrator) extractOptions() extract.Options {
	return extract.Options{NewID: o.NewID, Now: o.Now}
}

// ProcessTheme transforms the export at inputPath in the given style and
// writes output/<jobID>.xml. Unless skipThemeCreation is set, the theme,
// its pages, sections and transformation data are stored first and a
// transformation record is stored last. The job's work directory is
// removed on return.
func (o *Orchestrator) ProcessTheme(ctx context.Context, jobID, inputPath, style string, skipThemeCreation bool) (string, error) {
	log := logger.FromContext(ctx).With("job", jobID)
	work := o.workDir(jobID)
	if err := os.MkdirAll(work, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	defer o.cleanup(ctx, work)

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", inputPath, err)
	}
	doc, err := wxr.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %s: %v", ErrInvalidInput, inputPath, err)
	}

	src := inputPath
	if o.FilterPages {
		report := wxr.FilterUniquePages(doc)
		log.Info("filtered duplicate pages", "kept", len(report.Kept), "excluded", len(report.Excluded))
		src = filepath.Join(work, "input.xml")
		if err := doc.WriteFile(src); err != nil {
			return "", fmt.Errorf("writing filtered export: %w", err)
		}
	}

	var (
		themeID string
		data    types.TransformationData
	)
	if skipThemeCreation {
		pages, sections := extract.ExtractContentOnly(doc)
		data = contentData(doc, jobID, sections)
		log.Info("content extracted", "pages", len(pages), "sections", len(sections), "texts", len(data.Texts))
	} else {
		res, err := extract.ExtractTheme(doc, o.extractOptions())
		if err != nil {
			return "", fmt.Errorf("extracting %s: %w", inputPath, err)
		}
		if err := store.Persist(ctx, o.Store, res); err != nil {
			return "", fmt.Errorf("storing theme: %w", err)
		}
		themeID = res.Theme.ID
		data = res.Transformation
		log.Info("theme stored", "theme", themeID, "pages", len(res.Pages), "sections", len(res.Sections))
	}

	out := o.outputPath(jobID)
	if _, err := o.transformFile(ctx, jobID, src, data, style, out); err != nil {
		return "", err
	}

	if themeID != "" {
		rec := &types.Transformation{
			ID:        o.newID(),
			ThemeID:   themeID,
			Style:     style,
			Status:    statusCompleted,
			CreatedAt: o.now(),
		}
		if err := o.Store.SaveTransformation(ctx, rec); err != nil {
			log.Warn("storing transformation record failed", "theme", themeID, "err", err)
		}
	}
	log.Info("theme processed", "output", out)
	return out, nil
}

// contentData collects transformation input without a stored theme. When
// the Elementor metas hold no text, texts are sampled from the sections.
func contentData(doc *wxr.Document, id string, sections []types.Section) types.TransformationData {
	texts, colors := extract.Collect(doc)
	if len(texts) > 0 {
		if colors == nil {
			colors = []string{}
		}
		return types.TransformationData{ThemeID: id, Texts: texts, Colors: colors}
	}
	raw := make([]string, 0, len(sections))
	for _, s := range sections {
		raw = append(raw, s.Content)
	}
	data := transform.FallbackData(id, raw, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if len(colors) > 0 {
		data.Colors = colors
	}
	return data
}

// transformFile runs the AI transformation, writes its result to the work
// directory and applies it to src, writing out.
func (o *Orchestrator) transformFile(ctx context.Context, jobID, src string, data types.TransformationData, style, out string) (replace.Stats, error) {
	result, err := o.Transformer.Transform(ctx, data, style)
	if err != nil {
		return replace.Stats{}, fmt.Errorf("transforming content: %w", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return replace.Stats{}, fmt.Errorf("encoding transformation: %w", err)
	}
	transformed := filepath.Join(o.workDir(jobID), "transformed_"+jobID+".json")
	if err := os.WriteFile(transformed, encoded, 0o644); err != nil {
		return replace.Stats{}, fmt.Errorf("writing %s: %w", transformed, err)
	}

	stats, err := replace.ReplaceFile(ctx, src, transformed, out)
	if err != nil {
		return stats, fmt.Errorf("applying transformation: %w", err)
	}
	return stats, nil
}

func (o *Orchestrator) cleanup(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.FromContext(ctx).Warn("removing work directory failed", "dir", dir, "err", err)
	}
}

// TransformResult identifies what TransformByID produced.
type TransformResult struct {
	OriginalThemeID      string `json:"original_theme_id" yaml:"original_theme_id"`
	NewThemeID           string `json:"new_theme_id" yaml:"new_theme_id"`
	TransformationDataID string `json:"transformation_data_id" yaml:"transformation_data_id"`
	OutputPath           string `json:"output_path" yaml:"output_path"`
}

// TransformByID transforms a stored theme and stores the outcome as a new
// active theme titled "Transformed <title>", with its pages, sections and
// transformation data. The export is also written to output/<new id>.xml.
func (o *Orchestrator) TransformByID(ctx context.Context, themeID, style string) (*TransformResult, error) {
	parsed, err := uuid.Parse(themeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidThemeID, themeID)
	}
	themeID = parsed.String()
	log := logger.FromContext(ctx).With("theme", themeID)

	original, err := o.Store.GetTheme(ctx, themeID)
	if err != nil {
		return nil, fmt.Errorf("loading theme %s: %w", themeID, err)
	}
	content, err := o.Store.ThemeContent(ctx, themeID)
	if err != nil {
		return nil, fmt.Errorf("loading theme %s content: %w", themeID, err)
	}

	newID := o.newID()
	work := o.workDir(newID)
	if err := os.MkdirAll(work, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer o.cleanup(ctx, work)

	src := filepath.Join(work, "input_"+themeID+".xml")
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("writing theme XML: %w", err)
	}
	doc, err := wxr.Parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("%w: stored theme %s: %v", ErrInvalidInput, themeID, err)
	}
	source, err := extract.ExtractTheme(doc, o.extractOptions())
	if err != nil {
		return nil, fmt.Errorf("extracting theme %s: %w", themeID, err)
	}
	log.Info("theme loaded", "title", original.Title, "texts", len(source.Transformation.Texts))

	out := o.outputPath(newID)
	if _, err := o.transformFile(ctx, newID, src, source.Transformation, style, out); err != nil {
		return nil, err
	}

	transformed, err := wxr.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading transformed export: %w", err)
	}
	opts := o.extractOptions()
	opts.ThemeID = newID
	res, err := extract.ExtractTheme(transformed, opts)
	if err != nil {
		return nil, fmt.Errorf("extracting transformed theme: %w", err)
	}
	label := style
	if label == "" {
		label = defaultStyle
	}
	res.Theme.Title = "Transformed " + original.Title
	res.Theme.Description = fmt.Sprintf("Transformed from theme %s with style '%s'", themeID, label)
	res.Theme.Status = statusActive
	if err := store.Persist(ctx, o.Store, res); err != nil {
		return nil, fmt.Errorf("storing transformed theme: %w", err)
	}

	rec := &types.Transformation{
		ID:            o.newID(),
		ThemeID:       themeID,
		ResultThemeID: newID,
		Style:         style,
		Status:        statusCompleted,
		CreatedAt:     o.now(),
	}
	if err := o.Store.SaveTransformation(ctx, rec); err != nil {
		log.Warn("storing transformation record failed", "err", err)
	}

	log.Info("theme transformed", "new_theme", newID, "output", out)
	return &TransformResult{
		OriginalThemeID:      themeID,
		NewThemeID:           newID,
		TransformationDataID: res.Transformation.ID,
		OutputPath:           out,
	}, nil
}

// GenerateOnePage assembles a one-page site for query and writes
// output/<jobID>.xml.
func (o *Orchestrator) GenerateOnePage(ctx context.Context, jobID, query, style string) (string, error) {
	return o.generateSite(ctx, jobID, query, style, o.Generator.OnePage)
}

// GenerateMultiPage assembles a multi-page site for query and writes
// output/<jobID>.xml.
func (o *Orchestrator) GenerateMultiPage(ctx context.Context, jobID, query, style string) (string, error) {
	return o.generateSite(ctx, jobID, query, style, o.Generator.MultiPage)
}

type buildFunc func(ctx context.Context, query, style string) (*wxr.Document, error)

// generateSite builds the site, then optionally applies an AI palette,
// swaps photos and rewrites the copy for "<query> with <style>".
func (o *Orchestrator) generateSite(ctx context.Context, jobID, query, style string, build buildFunc) (string, error) {
	log := logger.FromContext(ctx).With("job", jobID)
	work := o.workDir(jobID)
	if err := os.MkdirAll(work, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	defer o.cleanup(ctx, work)

	doc, err := build(ctx, query, style)
	if err != nil {
		return "", fmt.Errorf("generating site: %w", err)
	}
	var colors palette.PropertyColors
	if style != "" && o.Palette != nil {
		colors = o.Palette.Generate(ctx, style).Colors()
		if err := applyPalette(ctx, doc, colors); err != nil {
			return "", err
		}
	}
	if o.Images != nil {
		stats, err := o.Images.ReplaceInDocument(ctx, doc, styleOr(style, query))
		if err != nil {
			return "", fmt.Errorf("replacing images: %w", err)
		}
		log.Info("images replaced", "images", stats.Images, "backgrounds", stats.Backgrounds, "failed", stats.Failed)
	}

	out := o.outputPath(jobID)
	if o.Transformer == nil {
		if err := generate.WriteFile(doc, out); err != nil {
			return "", err
		}
		log.Info("site generated", "output", out)
		return out, nil
	}

	src := filepath.Join(work, "generated.xml")
	if err := generate.WriteFile(doc, src); err != nil {
		return "", err
	}
	texts, origColors := extract.Collect(doc)
	if origColors == nil {
		origColors = []string{}
	}
	data := types.TransformationData{ThemeID: jobID, Texts: texts, Colors: origColors}
	combined := query
	if style != "" {
		combined = query + " with " + style
	}
	if _, err := o.transformFile(ctx, jobID, src, data, combined, out); err != nil {
		return "", err
	}

	// Palette and white text fix run again over the rewritten output.
	rewritten, err := wxr.ReadFile(out)
	if err != nil {
		removeFile(ctx, out)
		return "", fmt.Errorf("generated export is invalid: %w", err)
	}
	if err := applyPalette(ctx, rewritten, colors); err != nil {
		removeFile(ctx, out)
		return "", err
	}
	if err := generate.WriteFile(rewritten, out); err != nil {
		return "", err
	}
	log.Info("site generated", "output", out)
	return out, nil
}

// removeFile deletes a partial output, logging anything but a missing file.
func removeFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.FromContext(ctx).Warn("removing invalid output failed", "path", path, "err", err)
	}
}

func styleOr(style, query string) string {
	if style != "" {
		return style
	}
	return query
}

// applyPalette recolors every page of doc with colors, when there are any,
// and fixes white text.
func applyPalette(ctx context.Context, doc *wxr.Document, colors palette.PropertyColors) error {
	for _, page := range doc.Pages() {
		raw := page.ElementorData()
		if raw == "" {
			continue
		}
		tree, err := elementor.Parse(raw)
		if err != nil {
			logger.FromContext(ctx).Warn("skipping page with unreadable elementor data", "page", page.Title(), "err", err)
			continue
		}
		if len(colors) > 0 {
			palette.Apply(tree, colors)
		}
		palette.FixWhiteText(tree, palette.SafeTextColor)
		out, err := tree.Marshal()
		if err != nil {
			return fmt.Errorf("encoding page %s: %w", page.Title(), err)
		}
		page.SetElementorData(out)
	}
	return nil
}
