// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package palette

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette roles produced by Algorithmic, in order.
const (
	RolePrimary       = "primary"
	RolePrimaryDark   = "primary_dark"
	RolePrimaryLight  = "primary_light"
	RoleSecondary     = "secondary"
	RoleSecondaryDark = "secondary_dark"
	RoleAccent        = "accent"
	RoleAccentDark    = "accent_dark"
	RoleNeutralLight  = "neutral_light"
	RoleNeutralDark   = "neutral_dark"
	RoleTextPrimary   = "text_primary"
	RoleTextSecondary = "text_secondary"
	RoleSuccess       = "success"
	RoleWarning       = "warning"
	RoleError         = "error"
	RoleWhite         = "white"
)

// Swatch is one named palette entry.
type Swatch struct {
	Role  string
	Color RGB
}

// Palette is an ordered list of swatches. Order matters: positional color
// mapping walks it front to back.
type Palette []Swatch

// Get returns the color for role.
func (p Palette) Get(role string) (RGB, bool) {
	for _, s := range p {
		if s.Role == role {
			return s.Color, true
		}
	}
	return RGB{}, false
}

// Hexes returns the palette colors in order.
func (p Palette) Hexes() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Color.Hex()
	}
	return out
}

// Algorithmic derives a full palette from primary by rotating hue and
// scaling saturation and value in HSV space. Hue offsets are fractions of
// a full turn.
func Algorithmic(primary RGB) Palette {
	h, s, v := toHSV(primary)
	rot := func(off float64) float64 { return math.Mod(h+off, 1) }

	return Palette{
		{RolePrimary, primary},
		{RolePrimaryDark, fromHSV(h, s*1.1, v*0.85)},
		{RolePrimaryLight, fromHSV(h, s*0.7, math.Min(1, v*1.15))},
		{RoleSecondary, fromHSV(rot(0.33), s, v)},
		{RoleSecondaryDark, fromHSV(rot(0.33), s*1.1, v*0.85)},
		{RoleAccent, fromHSV(rot(0.16), s*0.8, v)},
		{RoleAccentDark, fromHSV(rot(0.16), s*0.9, v*0.75)},
		{RoleNeutralLight, fromHSV(h, s*0.1, v*0.95)},
		{RoleNeutralDark, fromHSV(h, s*0.2, v*0.2)},
		{RoleTextPrimary, fromHSV(h, s*0.05, 0.1)},
		{RoleTextSecondary, fromHSV(h, s*0.05, 0.4)},
		{RoleSuccess, fromHSV(0.33, s*0.7, v*0.8)},
		{RoleWarning, fromHSV(0.13, s*0.8, v*0.9)},
		{RoleError, fromHSV(0, s*0.8, v*0.8)},
		{RoleWhite, RGB{255, 255, 255}},
	}
}

// toHSV returns hue as a fraction of a turn.
func toHSV(c RGB) (h, s, v float64) {
	col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	deg, s, v := col.Hsv()
	return deg / 360, s, v
}

// fromHSV truncates channels to 8 bits after clamping s and v to [0,1].
func fromHSV(h, s, v float64) RGB {
	col := colorful.Hsv(h*360, clamp01(s), clamp01(v))
	return RGB{R: channel(col.R), G: channel(col.G), B: channel(col.B)}
}

func channel(x float64) uint8 {
	return uint8(clamp01(x) * 255)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
