// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform rewrites extracted theme texts and colors to match a
// style description using a generative AI backend.
package transform

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/pkg/types"
)

var batchPromptTmpl = template.Must(template.New("batch").Parse(`Transform each of the following website texts to match this style: {{.Style}}
Keep the meaning, adjust wording and tone. Use these brand colors as mood reference: {{.Colors}}

Format each transformation exactly as:
ORIGINAL: [original text]
NEW: [transformed text]

Texts:
{{range .Texts}}ORIGINAL: {{.}}
{{end}}`))

var palettePromptTmpl = template.Must(template.New("colors").Parse(`Generate a new color palette matching this style: {{.Style}}
Replace these colors with new ones that match the style:
{{.Colors}}

Return only the list of new colors in the same format, maintaining letter case.
Example format:
=== COLOR PALETTE ===
NEW COLORS: [list of new hex codes]
=== NOTES ===
[Explain your color choices]
`))

const (
	textSystemPrompt    = "You are a professional copywriter who rewrites WordPress theme copy to match a requested style."
	paletteSystemPrompt = "You are a color palette generator for WordPress themes. Generate new hex colors that match the requested style. Always provide completely different colors than the original. Return only the new colors in the exact same format as the input, preserving case."
	defaultNotes        = "Color transformation complete"
)

// Transformer rewrites theme content. Client is required; Cache is optional.
type Transformer struct {
	Client      llm.Client
	Cache       Cache
	Model       string
	BatchSize   int
	MaxColors   int
	Concurrency int

	group singleflight.Group
}

// New builds a Transformer from cfg. A nil cache or cfg.DisableCache turns
// result caching off.
func New(client llm.Client, cache Cache, cfg types.TransformationConfig) *Transformer {
	cfg = cfg.WithDefaults()
	if cfg.DisableCache {
		cache = nil
	}
	return &Transformer{
		Client:      client,
		Cache:       cache,
		Model:       cfg.Model,
		BatchSize:   cfg.BatchSize,
		MaxColors:   cfg.MaxColors,
		Concurrency: cfg.Concurrency,
	}
}

// Transform rewrites every text in batches and builds a replacement color
// palette. Batches run concurrently and results keep input order. AI
// failures degrade to identity pairs and an identity palette; only context
// cancellation is returned as an error.
func (t *Transformer) Transform(ctx context.Context, data types.TransformationData, style string) (*types.TransformResult, error) {
	log := logger.FromContext(ctx)
	size := t.BatchSize
	if size <= 0 {
		size = 5
	}

	var batches [][]string
	for i := 0; i < len(data.Texts); i += size {
		batches = append(batches, data.Texts[i:min(i+size, len(data.Texts))])
	}

	results := make([][]types.TextPair, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	if t.Concurrency > 0 {
		g.SetLimit(t.Concurrency)
	}
	for i, batch := range batches {
		g.Go(func() error {
			pairs, err := t.transformBatch(gctx, batch, data.Colors, style)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("text batch failed, keeping originals", "batch", i, "err", err)
				pairs = identityPairs(batch)
			}
			results[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &types.TransformResult{Style: style}
	for _, pairs := range results {
		out.TextTransformations = append(out.TextTransformations, pairs...)
	}
	log.Info("texts transformed", "texts", len(data.Texts), "batches", len(batches))

	out.ColorPalette = t.transformColors(ctx, data.Colors, style)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Transformer) transformBatch(ctx context.Context, texts, colors []string, style string) ([]types.TextPair, error) {
	var pairs []types.TextPair
	err := t.cached(ctx, "text", style, texts, &pairs, func() (any, error) {
		prompt, err := render(batchPromptTmpl, map[string]any{
			"Style":  style,
			"Colors": strings.Join(colors, ", "),
			"Texts":  texts,
		})
		if err != nil {
			return nil, err
		}
		reply, err := t.Client.Complete(ctx, llm.Request{
			System:      textSystemPrompt,
			User:        prompt,
			Temperature: 0.7,
			MaxTokens:   4096,
		})
		if err != nil {
			return nil, err
		}
		return ParseBatch(reply, texts), nil
	})
	return pairs, err
}

var (
	trailingOriginalRe = regexp.MustCompile(`ORIGINAL:.*`)
	bannerRe           = regexp.MustCompile(`===.*===`)
)

// ParseBatch reads ORIGINAL:/NEW: blocks from reply. Pairs are matched to
// texts by position; blocks without NEW: are skipped, missing pairs are
// padded with the untouched text and extra blocks are ignored.
func ParseBatch(reply string, texts []string) []types.TextPair {
	blocks := strings.Split(reply, "ORIGINAL:")
	if len(blocks) > 0 {
		blocks = blocks[1:]
	}

	pairs := make([]types.TextPair, 0, len(texts))
	for _, block := range blocks {
		if len(pairs) == len(texts) {
			break
		}
		_, after, ok := strings.Cut(block, "NEW:")
		if !ok {
			continue
		}
		transformed := strings.TrimSpace(after)
		transformed = strings.TrimSpace(trailingOriginalRe.ReplaceAllString(transformed, ""))
		transformed = strings.TrimSpace(bannerRe.ReplaceAllString(transformed, ""))

		orig := texts[len(pairs)]
		if transformed == "" {
			transformed = orig
		}
		pairs = append(pairs, types.TextPair{Original: orig, Transformed: transformed})
	}
	for i := len(pairs); i < len(texts); i++ {
		pairs = append(pairs, types.TextPair{Original: texts[i], Transformed: texts[i]})
	}
	return pairs
}

func identityPairs(texts []string) []types.TextPair {
	out := make([]types.TextPair, len(texts))
	for i, s := range texts {
		out[i] = types.TextPair{Original: s, Transformed: s}
	}
	return out
}

func (t *Transformer) transformColors(ctx context.Context, colors []string, style string) types.ColorPalette {
	maxColors := t.MaxColors
	if maxColors <= 0 {
		maxColors = 10
	}
	originals := uniqueColors(colors, maxColors)
	if len(originals) == 0 {
		return types.ColorPalette{OriginalColors: []string{}, NewColors: []string{}, Notes: defaultNotes}
	}

	var pal types.ColorPalette
	err := t.cached(ctx, "palette", style, originals, &pal, func() (any, error) {
		prompt, err := render(palettePromptTmpl, map[string]any{
			"Style":  style,
			"Colors": `["` + strings.Join(originals, `", "`) + `"]`,
		})
		if err != nil {
			return nil, err
		}
		reply, err := t.Client.Complete(ctx, llm.Request{
			System:      paletteSystemPrompt,
			User:        prompt,
			Temperature: 0.7,
			MaxTokens:   4096,
		})
		if err != nil {
			return nil, err
		}
		return ParsePalette(reply, originals), nil
	})
	if err != nil {
		logger.FromContext(ctx).Warn("color palette failed, keeping originals", "err", err)
		return types.ColorPalette{
			OriginalColors: originals,
			NewColors:      append([]string(nil), originals...),
			Notes:          "Error: " + err.Error(),
		}
	}
	return pal
}

func uniqueColors(colors []string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range colors {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

var replyHexRe = regexp.MustCompile(`#[0-9a-fA-F]{3,6}`)

// ParsePalette reads the NEW COLORS and NOTES sections of a palette reply.
// New colors are cycled or trimmed to the length of originals; with none
// found every original maps to #000000.
func ParsePalette(reply string, originals []string) types.ColorPalette {
	var found []string
	if section, ok := sectionAfter(reply, "NEW COLORS:"); ok {
		found = replyHexRe.FindAllString(section, -1)
	}

	newColors := make([]string, len(originals))
	for i := range originals {
		if len(found) == 0 {
			newColors[i] = "#000000"
			continue
		}
		newColors[i] = found[i%len(found)]
	}

	notes := defaultNotes
	if section, ok := sectionAfter(reply, "=== NOTES ==="); ok {
		if s := strings.TrimSpace(section); s != "" {
			notes = s
		}
	}
	return types.ColorPalette{
		OriginalColors: append([]string(nil), originals...),
		NewColors:      newColors,
		Notes:          notes,
	}
}

// sectionAfter returns the text following marker up to the next "==" banner.
func sectionAfter(s, marker string) (string, bool) {
	_, after, ok := strings.Cut(s, marker)
	if !ok {
		return "", false
	}
	if i := strings.Index(after, "=="); i >= 0 {
		after = after[:i]
	}
	return after, true
}

// TransformText rewrites a single text. Texts shorter than five characters
// or made only of digits are returned unchanged, as is the original on any
// error.
func (t *Transformer) TransformText(ctx context.Context, text, style string) string {
	if len(text) < 5 || isDigits(text) {
		return text
	}
	reply, err := t.Client.Complete(ctx, llm.Request{
		System: fmt.Sprintf("You are a professional copywriter specializing in transforming text according to style guidelines. "+
			"Transform the following text to match this style: %s. Keep the same general meaning but adjust the wording and tone to fit the style.", style),
		User:        fmt.Sprintf("Original text: %q\nTransformed text:", text),
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("text transformation failed", "err", err)
		return text
	}
	out := strings.TrimSpace(reply)
	if len(out) >= 2 && strings.HasPrefix(out, `"`) && strings.HasSuffix(out, `"`) {
		out = out[1 : len(out)-1]
	}
	if out == "" {
		return text
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
