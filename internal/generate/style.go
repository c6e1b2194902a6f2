// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"strings"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/palette"
)

// styledKeys are the string fields that receive the style hint.
var styledKeys = map[string]bool{
	"title": true, "heading": true, "subtitle": true, "description": true, "text": true,
	"content": true, "label": true, "button_text": true, "cta_text": true, "excerpt": true,
}

// StyleText appends " (style)" to text unless the style already appears
// in it, case-insensitively.
func StyleText(text, style string) string {
	if style == "" || text == "" {
		return text
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(style)) {
		return text
	}
	return strings.TrimSpace(text) + " (" + style + ")"
}

// AddStyleHint rewrites every styled text field found anywhere in v.
func AddStyleHint(v any, style string) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if s, ok := val.(string); ok {
				if styledKeys[k] {
					t[k] = StyleText(s, style)
				}
				continue
			}
			AddStyleHint(val, style)
		}
	case []any:
		for _, val := range t {
			AddStyleHint(val, style)
		}
	}
}

// StyleColors derives Elementor property colors from a style description
// without calling a backend: the primary color named in the description,
// expanded algorithmically.
func StyleColors(style string) palette.PropertyColors {
	return palette.MapToElementor(palette.Algorithmic(palette.FromDescription(style)), nil)
}

// sectionElements decodes stored section content. Content is either the
// element itself or an object wrapping it under "section_data".
func sectionElements(content string) (elementor.Tree, error) {
	tree, err := elementor.Parse(content)
	if err != nil {
		return nil, err
	}
	if len(tree) != 1 {
		return tree, nil
	}
	el, ok := tree[0].(elementor.Element)
	if !ok {
		return tree, nil
	}
	switch wrapped := el["section_data"].(type) {
	case map[string]any:
		return elementor.Tree{wrapped}, nil
	case []any:
		return elementor.Tree(wrapped), nil
	}
	return tree, nil
}
