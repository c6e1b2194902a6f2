// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package palette

import (
	"regexp"
	"strings"

	"github.com/pdiddy/theme-engine/internal/elementor"
)

// SafeTextColor replaces white text in generated pages.
const SafeTextColor = "#222222"

var shortHexRe = regexp.MustCompile(`^#[0-9A-Fa-f]{3,6}$`)

// IsWhite reports whether v is a white color literal.
func IsWhite(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "#fff", "#ffffff", "white":
		return true
	}
	return false
}

// Apply writes property colors into every element's settings. Mapped
// properties are set directly, except background keys currently holding
// white. Other hex-valued keys are classified by name: backgrounds (not
// hover or overlay), titles and headings, body text, icons and borders.
func Apply(tree elementor.Tree, colors PropertyColors) {
	elementor.Walk(tree, func(el elementor.Element) {
		settings := elementor.Settings(el)
		for key, raw := range settings {
			value, isString := raw.(string)
			lower := strings.ToLower(key)

			if mapped, ok := colors.Lookup(key); ok {
				if isString && strings.Contains(lower, "background") && IsWhite(value) {
					continue
				}
				settings[key] = mapped
				continue
			}
			if !isString || !shortHexRe.MatchString(value) {
				continue
			}
			if prop := classify(lower, value); prop != "" {
				if c, ok := colors.Lookup(prop); ok {
					settings[key] = c
				}
			}
		}
	})
}

func classify(key, value string) string {
	switch {
	case strings.Contains(key, "background"):
		if containsAny(key, "hover", "overlay") {
			return ""
		}
		if IsWhite(value) {
			return ""
		}
		return "background_color"
	case containsAny(key, "title", "heading"):
		return "title_color"
	case containsAny(key, "text", "content", "description"):
		return "description_color"
	case strings.Contains(key, "icon"):
		return "icon_color"
	case strings.Contains(key, "border"):
		return "border_color"
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FixWhiteText replaces white values of any color setting with safe.
func FixWhiteText(tree elementor.Tree, safe string) {
	if safe == "" {
		safe = SafeTextColor
	}
	elementor.Walk(tree, func(el elementor.Element) {
		settings := elementor.Settings(el)
		for key, raw := range settings {
			value, ok := raw.(string)
			if !ok || !strings.Contains(strings.ToLower(key), "color") {
				continue
			}
			if IsWhite(value) {
				settings[key] = safe
			}
		}
	})
}
