// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"math/rand/v2"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// DefaultColors stand in when a theme has no extracted colors.
var DefaultColors = []string{"#2989CE", "#16202F", "#E22E40", "#FFFFFF", "#757A81"}

// DefaultSampleSize caps SampleTexts.
const DefaultSampleSize = 30

// sampleKeys are checked in order; at most one is taken per object.
var sampleKeys = []string{"text", "title", "heading", "label", "button_text"}

// SampleTexts collects candidate texts from section JSON for themes that
// have no stored transformation data. Only unique texts of at least three
// words are kept, randomly sampled down to n.
func SampleTexts(sections []string, n int, rng *rand.Rand) []string {
	if n <= 0 {
		n = DefaultSampleSize
	}
	var all []string
	for _, raw := range sections {
		if !gjson.Valid(raw) {
			continue
		}
		collectSample(gjson.Parse(raw), &all)
	}

	seen := map[string]bool{}
	var unique []string
	for _, s := range all {
		if seen[s] || len(strings.Fields(s)) < 3 {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
	}

	if len(unique) > n {
		rng.Shuffle(len(unique), func(i, j int) { unique[i], unique[j] = unique[j], unique[i] })
		unique = unique[:n]
	}
	return unique
}

func collectSample(r gjson.Result, out *[]string) {
	switch {
	case r.IsObject():
		for _, k := range sampleKeys {
			v := r.Get(k)
			if v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
				*out = append(*out, strings.TrimSpace(v.Str))
				break
			}
		}
		r.ForEach(func(_, v gjson.Result) bool {
			collectSample(v, out)
			return true
		})
	case r.IsArray():
		r.ForEach(func(_, v gjson.Result) bool {
			collectSample(v, out)
			return true
		})
	}
}

// FallbackData builds transformation input from sampled section texts and
// DefaultColors.
func FallbackData(themeID string, sections []string, rng *rand.Rand) types.TransformationData {
	return types.TransformationData{
		ThemeID: themeID,
		Texts:   SampleTexts(sections, DefaultSampleSize, rng),
		Colors:  append([]string(nil), DefaultColors...),
	}
}
