// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package palette

import "strings"

// Binding assigns an Elementor color property to a palette role or, in an
// AI-proposed mapping, directly to a hex color.
type Binding struct {
	Property string
	Value    string
}

// DefaultElementorMapping binds the Elementor color properties the
// generators know about to palette roles.
var DefaultElementorMapping = []Binding{
	// Backgrounds
	{"background_color", RolePrimary},
	{"background_overlay_color", RolePrimaryDark},
	{"background_hover_color", RolePrimaryLight},
	{"background_active_color", RoleSecondary},
	{"background_selected_color", RoleSecondaryDark},

	// Columns
	{"column_background_color", RolePrimary},
	{"_background_color", RolePrimary},
	{"_background_hover_color", RolePrimaryLight},
	{"_background_overlay_color", RolePrimaryDark},
	{"column_text_color", RoleTextPrimary},

	// Text
	{"title_color", RoleTextPrimary},
	{"description_color", RoleTextSecondary},
	{"color_text", RoleTextPrimary},
	{"color", RoleTextPrimary},
	{"heading_color", RoleTextPrimary},
	{"text_color", RoleTextPrimary},
	{"hover_color", RoleAccent},
	{"active_color", RoleAccent},
	{"selected_color", RoleAccent},

	// Buttons
	{"button_background_color", RolePrimary},
	{"button_hover_background_color", RolePrimaryDark},
	{"button_text_color", RoleWhite},
	{"button_hover_text_color", RoleWhite},

	// Borders
	{"border_color", RoleNeutralLight},
	{"border_hover_color", RolePrimary},

	// Icons
	{"primary_color", RolePrimary},
	{"secondary_color", RoleSecondary},
	{"icon_color", RoleAccent},
	{"icon_hover_color", RoleAccentDark},

	// Links
	{"link_color", RoleAccent},
	{"link_hover_color", RoleAccentDark},

	// Forms
	{"field_background_color", RoleNeutralLight},
	{"field_border_color", RolePrimary},
	{"field_text_color", RoleNeutralDark},
	{"field_focus_border_color", RoleAccent},
}

// PropertyColors is an ordered property → hex assignment.
type PropertyColors []Binding

// Lookup returns the color assigned to prop.
func (pc PropertyColors) Lookup(prop string) (string, bool) {
	for _, b := range pc {
		if b.Property == prop {
			return b.Value, true
		}
	}
	return "", false
}

// MapToElementor resolves a mapping against p. Custom bindings come first
// and may name a role or carry a hex color; properties they leave out are
// filled from DefaultElementorMapping. Bindings that resolve to nothing
// valid are dropped.
func MapToElementor(p Palette, custom []Binding) PropertyColors {
	var out PropertyColors
	seen := map[string]bool{}

	add := func(b Binding) {
		if seen[b.Property] {
			return
		}
		hex, ok := resolve(p, b.Value)
		if !ok {
			return
		}
		seen[b.Property] = true
		out = append(out, Binding{Property: b.Property, Value: hex})
	}

	for _, b := range custom {
		add(b)
	}
	for _, b := range DefaultElementorMapping {
		add(b)
	}
	return out
}

func resolve(p Palette, value string) (string, bool) {
	if c, ok := p.Get(value); ok {
		return c.Hex(), true
	}
	if fixed, err := RepairHex(value); err == nil && strings.HasPrefix(value, "#") {
		return fixed, true
	}
	return "", false
}

// ColorPair maps one original theme color to its replacement.
type ColorPair struct {
	Original string
	New      string
}

// ColorMap assigns a replacement to every distinct original color. When
// the palette has at least as many swatches as there are originals,
// counting repeats, each original takes the palette color at its position
// and a repeated original keeps its last position. Otherwise originals that
// mention an Elementor property name take that property's color first, and
// the rest cycle through the palette in order, repeats included.
// Replacements are repaired to #RRGGBB and fall back to #FF0000 when
// unrepairable. Pairs are ordered by first assignment.
func ColorMap(original []string, p Palette, props PropertyColors) []ColorPair {
	if len(p) == 0 {
		return nil
	}
	hexes := p.Hexes()

	assigned := make(map[string]string, len(original))
	var order []string
	set := func(o, c string) {
		if _, ok := assigned[o]; !ok {
			order = append(order, o)
		}
		assigned[o] = c
	}

	if len(original) <= len(hexes) {
		for i, o := range original {
			set(o, hexes[i])
		}
	} else {
		for _, o := range original {
			lower := strings.ToLower(o)
			for _, b := range props {
				if strings.Contains(lower, b.Property) {
					set(o, b.Value)
					break
				}
			}
		}
		var rest []string
		for _, o := range original {
			if _, ok := assigned[o]; !ok {
				rest = append(rest, o)
			}
		}
		for i, o := range rest {
			set(o, hexes[i%len(hexes)])
		}
	}

	pairs := make([]ColorPair, 0, len(order))
	for _, o := range order {
		fixed, err := RepairHex(assigned[o])
		if err != nil {
			fixed = "#FF0000"
		}
		pairs = append(pairs, ColorPair{Original: o, New: fixed})
	}
	return pairs
}
