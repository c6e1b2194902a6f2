// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package replace

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// LoadResult reads a transformation result from path. Three layouts are
// accepted:
//
//   - {"text_transformations": [{original, transformed}], "color_palette":
//     {original_colors, new_colors}}; a palette with mismatched lengths is
//     ignored.
//   - {"texts": [orig, new, ...], "colors": [orig, new, ...]}.
//   - a bare [orig, new, ...] text array.
func LoadResult(path string) (*types.TransformResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transformations: %w", err)
	}
	res, err := ParseResult(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ParseResult decodes any of the layouts LoadResult accepts.
func ParseResult(data []byte) (*types.TransformResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid transformations JSON")
	}
	doc := gjson.ParseBytes(data)
	res := &types.TransformResult{
		Style: doc.Get("style").String(),
	}

	switch {
	case doc.Get("text_transformations").IsArray():
		doc.Get("text_transformations").ForEach(func(_, v gjson.Result) bool {
			orig, transformed := v.Get("original"), v.Get("transformed")
			if orig.Exists() && transformed.Exists() {
				res.TextTransformations = append(res.TextTransformations, types.TextPair{
					Original:    orig.String(),
					Transformed: transformed.String(),
				})
			}
			return true
		})
		pal := doc.Get("color_palette")
		origs, news := stringList(pal.Get("original_colors")), stringList(pal.Get("new_colors"))
		if len(origs) == len(news) {
			res.ColorPalette = types.ColorPalette{
				OriginalColors: origs,
				NewColors:      news,
				Notes:          pal.Get("notes").String(),
			}
		}

	case doc.Get("texts").IsArray():
		res.TextTransformations = alternatingPairs(stringList(doc.Get("texts")))
		for _, p := range alternatingPairs(stringList(doc.Get("colors"))) {
			res.ColorPalette.OriginalColors = append(res.ColorPalette.OriginalColors, p.Original)
			res.ColorPalette.NewColors = append(res.ColorPalette.NewColors, p.Transformed)
		}

	case doc.IsArray():
		res.TextTransformations = alternatingPairs(stringList(doc))
	}
	return res, nil
}

func stringList(r gjson.Result) []string {
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}

func alternatingPairs(list []string) []types.TextPair {
	var out []types.TextPair
	for i := 0; i+1 < len(list); i += 2 {
		out = append(out, types.TextPair{Original: list[i], Transformed: list[i+1]})
	}
	return out
}
