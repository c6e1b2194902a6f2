// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package palette

import (
	"math/rand/v2"
	"slices"
	"strings"
)

// Curated five-color palettes.
var (
	Minimal   = []string{"#FFFFFF", "#F8F9FA", "#E9ECEF", "#DEE2E6", "#212529"}
	Material  = []string{"#3F51B5", "#2196F3", "#4CAF50", "#FFC107", "#FF5722"}
	Pastels   = []string{"#F8BBD0", "#B2EBF2", "#C8E6C9", "#FFECB3", "#D1C4E9"}
	Corporate = []string{"#1565C0", "#1976D2", "#1E88E5", "#2196F3", "#BBDEFB"}
	DarkMode  = []string{"#121212", "#1E1E1E", "#262626", "#404040", "#FFFFFF"}
	Neon      = []string{"#FF1744", "#00E676", "#00B0FF", "#FFEA00", "#D500F9"}
	Bold      = []string{"#FFFFFF", "#212121", "#FFC107", "#1976D2", "#D32F2F"}
)

var curated = [][]string{Minimal, Material, Pastels, Corporate, DarkMode, Neon, Bold}

var moods = []struct {
	keywords []string
	palette  []string
}{
	{[]string{"modern", "clean", "minimal", "simple"}, Minimal},
	{[]string{"corporate", "professional", "business", "formal"}, Corporate},
	{[]string{"vibrant", "colorful", "bright", "bold", "neon"}, Neon},
	{[]string{"dark", "black", "night", "contrast"}, DarkMode},
	{[]string{"soft", "pastel", "gentle", "light"}, Pastels},
}

const suggestSize = 5

// Suggest proposes five colors for a description. Named colors it mentions
// come first; the rest is filled from a random curated palette. With no
// named colors the palette is chosen by mood keywords, or at random.
func Suggest(desc string, rng *rand.Rand) []string {
	lower := strings.ToLower(desc)

	var out []string
	for _, nc := range namedColors {
		if len(out) == suggestSize {
			break
		}
		if strings.Contains(lower, nc.name) && !slices.Contains(out, nc.hex) {
			out = append(out, nc.hex)
		}
	}

	if len(out) > 0 {
		for _, c := range curated[rng.IntN(len(curated))] {
			if len(out) == suggestSize {
				break
			}
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
		return out
	}

	for _, m := range moods {
		for _, k := range m.keywords {
			if strings.Contains(lower, k) {
				return append([]string(nil), m.palette...)
			}
		}
	}
	return append([]string(nil), curated[rng.IntN(len(curated))]...)
}
