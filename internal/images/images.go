// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images swaps the photos of an Elementor tree for stock photos
// that fit a style: the AI backend proposes search keywords for each image
// slot and Unsplash supplies the photo.
package images

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/wxr"
)

// Image slot kinds.
const (
	KindImageWidget = "image_widget"
	KindBackground  = "background_image"
)

// Finder locates a photo for comma-separated keywords.
type Finder interface {
	SearchOriented(ctx context.Context, keywords, orientation string) (string, error)
}

var keywordSystemPrompt = "You are an expert at generating concise image search keywords for stock photo websites like Unsplash."

var keywordPromptTmpl = template.Must(template.New("keywords").Parse(`Generate 3-5 concise and effective Unsplash search keywords for a {{.Kind}}.
The overall theme/style is '{{.Style}}'. Do not use colors from the style; keep only what the business or the image is about.
The specific placement or purpose of the image is '{{.Context}}'.
Focus on nouns, adjectives and concepts relevant to visual search. Avoid long phrases. Return keywords as a comma-separated list.
Example: Style 'luxury spa', Context 'hero background' -> 'luxury, spa, serene, relaxation, wellness, background'
`))

// Keywords asks client for search keywords describing an image slot. With
// no client the keywords are the inputs themselves; a failed call adds
// "high quality".
func Keywords(ctx context.Context, client llm.Client, style, slot, kind string) string {
	fallback := fmt.Sprintf("%s, %s, %s", style, slot, kind)
	if client == nil {
		return fallback
	}

	var buf bytes.Buffer
	if err := keywordPromptTmpl.Execute(&buf, map[string]string{"Kind": kind, "Style": style, "Context": slot}); err != nil {
		return fallback
	}
	reply, err := client.Complete(ctx, llm.Request{
		System:      keywordSystemPrompt,
		User:        buf.String(),
		Temperature: 0.5,
		MaxTokens:   50,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("keyword generation failed", "context", slot, "err", err)
		return fallback + ", high quality"
	}
	return strings.Trim(strings.TrimSpace(reply), `"'`)
}

// Orientation picks the photo orientation for an image context.
func Orientation(slot string) string {
	s := strings.ToLower(slot)
	switch {
	case strings.Contains(s, "hero"), strings.Contains(s, "background"):
		return "landscape"
	case strings.Contains(s, "portrait"), strings.Contains(s, "profile"):
		return "portrait"
	}
	return "landscape"
}

// Stats counts replaced image URLs.
type Stats struct {
	Images      int
	Backgrounds int
	Failed      int
}

// Replacer fills image slots with new photos.
type Replacer struct {
	Client llm.Client
	Photos Finder
}

// ReplaceImages rewrites settings.image.url of image widgets and
// settings.background_image.url of any element. The image context is the
// category of the enclosing top-level section, or the widget type when the
// section has no specific category. Slots whose lookup fails keep their URL.
func (r *Replacer) ReplaceImages(ctx context.Context, tree elementor.Tree, style string) Stats {
	var stats Stats
	for _, top := range tree {
		section, ok := top.(elementor.Element)
		if !ok {
			continue
		}
		category := sectionCategory(section)

		elementor.Walk(elementor.Tree{section}, func(el elementor.Element) {
			settings := elementor.Settings(el)
			slot := category
			if slot == "" || slot == elementor.CategoryGeneral {
				if wt := elementor.WidgetType(el); wt != "" {
					slot = wt
				}
			}

			if img, ok := settings["image"].(map[string]any); ok && hasURL(img) && elementor.WidgetType(el) != "" {
				if r.swap(ctx, img, style, slot, KindImageWidget) {
					stats.Images++
				} else {
					stats.Failed++
				}
			}
			if bg, ok := settings["background_image"].(map[string]any); ok && hasURL(bg) {
				if r.swap(ctx, bg, style, slot+" background", KindBackground) {
					stats.Backgrounds++
				} else {
					stats.Failed++
				}
			}
		})
	}
	return stats
}

// sectionCategory is the first category found walking section's subtree.
func sectionCategory(section elementor.Element) string {
	var category string
	elementor.Walk(elementor.Tree{section}, func(el elementor.Element) {
		if category == "" {
			category = elementor.CategorizeElement(el)
		}
	})
	return category
}

func hasURL(media map[string]any) bool {
	url, _ := media["url"].(string)
	return url != ""
}

func (r *Replacer) swap(ctx context.Context, media map[string]any, style, slot, kind string) bool {
	keywords := Keywords(ctx, r.Client, style, slot, kind)
	url, err := r.Photos.SearchOriented(ctx, keywords, Orientation(slot))
	if err != nil {
		logger.FromContext(ctx).Warn("no replacement image", "context", slot, "err", err)
		return false
	}
	media["url"] = url
	delete(media, "id")
	return true
}

// ReplaceInDocument runs ReplaceImages over every page with Elementor data.
func (r *Replacer) ReplaceInDocument(ctx context.Context, doc *wxr.Document, style string) (Stats, error) {
	var total Stats
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
		s := r.ReplaceImages(ctx, tree, style)
		total.Images += s.Images
		total.Backgrounds += s.Backgrounds
		total.Failed += s.Failed
		if s.Images+s.Backgrounds == 0 {
			continue
		}
		out, err := tree.Marshal()
		if err != nil {
			return total, fmt.Errorf("encoding page %s: %w", page.Title(), err)
		}
		page.SetElementorData(out)
	}
	return total, nil
}
