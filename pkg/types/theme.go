// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Theme is one imported WordPress export and its stored XML.
type Theme struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Status      string    `json:"status" yaml:"status"`
	Content     string    `json:"content,omitempty" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Page is a WordPress page belonging to a theme.
type Page struct {
	ID            string    `json:"id" yaml:"id"`
	ThemeID       string    `json:"theme_id" yaml:"theme_id"`
	PostID        string    `json:"post_id,omitempty" yaml:"post_id,omitempty"`
	Title         string    `json:"title" yaml:"title"`
	Category      string    `json:"category" yaml:"category"`
	ElementorData string    `json:"elementor_data,omitempty" yaml:"elementor_data,omitempty"`
	Content       string    `json:"content" yaml:"content"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// Section is a top-level Elementor section or container. Content holds the
// element serialized as JSON.
type Section struct {
	ID        string    `json:"id" yaml:"id"`
	ThemeID   string    `json:"theme_id" yaml:"theme_id"`
	PageID    string    `json:"page_id" yaml:"page_id"`
	Category  string    `json:"category" yaml:"category"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// TransformationData is the raw material for a transformation run: every
// non-empty text and color found in the theme's Elementor data, duplicates kept.
type TransformationData struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	ThemeID   string    `json:"theme_id,omitempty" yaml:"theme_id,omitempty"`
	Texts     []string  `json:"texts" yaml:"texts"`
	Colors    []string  `json:"colors" yaml:"colors"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ExtractionResult is the output of the extraction stage for one export.
type ExtractionResult struct {
	Theme          Theme              `json:"theme" yaml:"theme"`
	Pages          []Page             `json:"pages" yaml:"pages"`
	Sections       []Section          `json:"sections" yaml:"sections"`
	Transformation TransformationData `json:"transformation" yaml:"transformation"`
}

// TextPair maps one original text to its rewritten form.
type TextPair struct {
	Original    string `json:"original" yaml:"original"`
	Transformed string `json:"transformed" yaml:"transformed"`
}

// ColorPalette pairs original colors with replacements position by position.
type ColorPalette struct {
	OriginalColors []string `json:"original_colors" yaml:"original_colors"`
	NewColors      []string `json:"new_colors" yaml:"new_colors"`
	Notes          string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ColorMap returns the original→new mapping. Mismatched lengths yield an
// empty map.
func (p ColorPalette) ColorMap() map[string]string {
	m := make(map[string]string, len(p.OriginalColors))
	if len(p.OriginalColors) != len(p.NewColors) {
		return m
	}
	for i, orig := range p.OriginalColors {
		m[orig] = p.NewColors[i]
	}
	return m
}

// TransformResult is the output of the transformation stage, also the input
// format accepted by the replacement stage.
type TransformResult struct {
	TextTransformations []TextPair   `json:"text_transformations" yaml:"text_transformations"`
	ColorPalette        ColorPalette `json:"color_palette" yaml:"color_palette"`
	Style               string       `json:"style,omitempty" yaml:"style,omitempty"`
}

// TextMap returns the original→transformed mapping. Later pairs win.
func (r TransformResult) TextMap() map[string]string {
	m := make(map[string]string, len(r.TextTransformations))
	for _, p := range r.TextTransformations {
		m[p.Original] = p.Transformed
	}
	return m
}

// Transformation records one completed transformation of a theme.
type Transformation struct {
	ID            string    `json:"id" yaml:"id"`
	ThemeID       string    `json:"theme_id" yaml:"theme_id"`
	ResultThemeID string    `json:"result_theme_id,omitempty" yaml:"result_theme_id,omitempty"`
	Style         string    `json:"style" yaml:"style"`
	Status        string    `json:"status" yaml:"status"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}
