// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package palette derives website color palettes from style descriptions
// and maps them onto Elementor color settings.
package palette

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned when a value cannot be read or repaired as a
// six-digit hex color.
var ErrInvalidHex = errors.New("palette: invalid hex color")

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex formats c as lower-case #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string { return c.Hex() }

// ParseHex reads a 3 or 6 digit hex color; the leading '#' is optional.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

var (
	strictHexRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	nonHexRe    = regexp.MustCompile(`[^0-9A-Fa-f]`)
)

// IsStrictHex reports whether s is exactly #RRGGBB.
func IsStrictHex(s string) bool { return strictHexRe.MatchString(s) }

// RepairHex returns s unchanged when it is #RRGGBB. Otherwise every non-hex
// character is dropped and the first six remaining digits are kept.
func RepairHex(s string) (string, error) {
	if IsStrictHex(s) {
		return s, nil
	}
	digits := nonHexRe.ReplaceAllString(s, "")
	if len(digits) < 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return "#" + digits[:6], nil
}

// DefaultPrimary is used when a description names no color.
var DefaultPrimary = RGB{R: 41, G: 137, B: 206}

type namedColor struct {
	name string
	hex  string
}

// namedColors is ordered so that two-word names are tried before the
// single words they contain.
var namedColors = []namedColor{
	{"dark blue", "#00008B"},
	{"light blue", "#ADD8E6"},
	{"dark green", "#006400"},
	{"light green", "#90EE90"},
	{"dark red", "#8B0000"},
	{"light red", "#FFCCCB"},
	{"dark purple", "#301934"},
	{"light purple", "#D8BFD8"},
	{"dark orange", "#FF8C00"},
	{"dark yellow", "#DAA520"},
	{"baby blue", "#89CFF0"},
	{"baby pink", "#FFC0CB"},
	{"baby green", "#90EE90"},
	{"red", "#FF0000"},
	{"blue", "#0000FF"},
	{"green", "#00FF00"},
	{"yellow", "#FFFF00"},
	{"orange", "#FFA500"},
	{"purple", "#800080"},
	{"pink", "#FFC0CB"},
	{"brown", "#A52A2A"},
	{"black", "#000000"},
	{"white", "#FFFFFF"},
	{"gray", "#808080"},
	{"grey", "#808080"},
	{"gold", "#FFD700"},
	{"silver", "#C0C0C0"},
	{"navy", "#000080"},
	{"teal", "#008080"},
	{"cyan", "#00FFFF"},
	{"magenta", "#FF00FF"},
	{"lime", "#00FF00"},
	{"maroon", "#800000"},
	{"olive", "#808000"},
	{"aqua", "#00FFFF"},
	{"turquoise", "#40E0D0"},
	{"lavender", "#E6E6FA"},
	{"indigo", "#4B0082"},
	{"violet", "#8F00FF"},
	{"beige", "#F5F5DC"},
	{"coral", "#FF7F50"},
	{"crimson", "#DC143C"},
	{"fuchsia", "#FF00FF"},
}

var descHexRe = regexp.MustCompile(`#(?:[0-9a-fA-F]{3}){1,2}\b`)

// FromDescription picks the primary color of a style description: the
// first hex code in the text, else the first named color it mentions,
// else DefaultPrimary.
func FromDescription(desc string) RGB {
	if m := descHexRe.FindString(desc); m != "" {
		if c, err := ParseHex(m); err == nil {
			return c
		}
	}
	lower := strings.ToLower(desc)
	for _, nc := range namedColors {
		if strings.Contains(lower, nc.name) {
			c, _ := ParseHex(nc.hex)
			return c
		}
	}
	return DefaultPrimary
}
