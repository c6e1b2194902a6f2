// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package replace writes transformed texts and colors back into a WXR
// export.
package replace

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/pdiddy/theme-engine/internal/elementor"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/palette"
	"github.com/pdiddy/theme-engine/internal/wxr"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// backgroundKeys are the settings remembered when they hold white.
var backgroundKeys = []string{
	"background_color",
	"background_overlay_color",
	"_background_color",
	"_background_background",
	"background_overlay_background",
}

// WhiteBackgrounds maps element id → setting key → original white value.
type WhiteBackgrounds map[string]map[string]string

// ScanWhiteBackgrounds records every white background setting in tree,
// merging into into when it is non-nil.
func ScanWhiteBackgrounds(tree elementor.Tree, into WhiteBackgrounds) WhiteBackgrounds {
	if into == nil {
		into = WhiteBackgrounds{}
	}
	elementor.Walk(tree, func(el elementor.Element) {
		id := elementor.ID(el)
		settings := elementor.Settings(el)
		if id == "" || settings == nil {
			return
		}
		for _, key := range backgroundKeys {
			v, ok := settings[key].(string)
			if !ok || !palette.IsWhite(v) {
				continue
			}
			if into[id] == nil {
				into[id] = map[string]string{}
			}
			into[id][key] = v
		}
	})
	return into
}

// Rule is one color substitution.
type Rule struct {
	From string
	To   string
}

// Rules orders a palette's substitutions longest original first so that
// "#ffffff" is matched before "#fff". Empty originals are dropped.
func Rules(p types.ColorPalette) []Rule {
	var rules []Rule
	if len(p.OriginalColors) != len(p.NewColors) {
		return nil
	}
	for i, from := range p.OriginalColors {
		if from == "" {
			continue
		}
		rules = append(rules, Rule{From: from, To: p.NewColors[i]})
	}
	sort.SliceStable(rules, func(i, j int) bool { return len(rules[i].From) > len(rules[j].From) })
	return rules
}

// ReplaceColors substitutes every rule in value in a single left-to-right
// pass. Only occurrences with the original's exact spelling are replaced. A
// substituted color is never matched again.
func ReplaceColors(value string, rules []Rule) string {
	if len(rules) == 0 || value == "" {
		return value
	}
	var sb strings.Builder
	changed := false
	for i := 0; i < len(value); {
		matched := false
		for _, r := range rules {
			end := i + len(r.From)
			if end <= len(value) && value[i:end] == r.From {
				sb.WriteString(r.To)
				i += len(r.From)
				matched = true
				changed = true
				break
			}
		}
		if !matched {
			sb.WriteByte(value[i])
			i++
		}
	}
	if !changed {
		return value
	}
	return sb.String()
}

// ApplyColors restores recorded white backgrounds, then rewrites colors in
// every string setting of elements that carry an id and settings.
// Background-named settings holding white are left alone.
func ApplyColors(tree elementor.Tree, rules []Rule, white WhiteBackgrounds) {
	elementor.Walk(tree, func(el elementor.Element) {
		id := elementor.ID(el)
		settings := elementor.Settings(el)
		if id == "" || settings == nil {
			return
		}
		for key, v := range white[id] {
			settings[key] = v
		}
		for key, raw := range settings {
			value, ok := raw.(string)
			if !ok {
				continue
			}
			lk := strings.ToLower(key)
			if (strings.Contains(lk, "background") || strings.Contains(lk, "bg_")) && palette.IsWhite(value) {
				continue
			}
			settings[key] = ReplaceColors(value, rules)
		}
	})
}

// Stats summarizes one replacement run.
type Stats struct {
	TextReplacements int
	MetasProcessed   int
	ColorRules       int
	WhiteBackgrounds int
}

// Apply writes result into doc. Texts are replaced in every XML text node
// and attribute; inside Elementor metas they are replaced in decoded JSON
// strings so quoting stays intact. Colors are then substituted inside every
// Elementor meta while white backgrounds are preserved.
func Apply(ctx context.Context, doc *wxr.Document, result *types.TransformResult) (Stats, error) {
	log := logger.FromContext(ctx)
	var stats Stats

	texts := textRules(result.TextTransformations)
	rules := Rules(result.ColorPalette)
	stats.ColorRules = len(rules)

	type parsedMeta struct {
		meta *wxr.MetaValue
		tree elementor.Tree
	}
	var metas []parsedMeta
	skip := map[*etree.Element]bool{}
	white := WhiteBackgrounds{}
	for _, mv := range doc.ElementorMetas() {
		tree, err := elementor.Parse(mv.Value())
		if err != nil {
			log.Debug("skipping unparseable Elementor meta", "key", mv.Key, "err", err)
			continue
		}
		metas = append(metas, parsedMeta{meta: mv, tree: tree})
		skip[mv.Element()] = true
		ScanWhiteBackgrounds(tree, white)
	}
	for _, keys := range white {
		stats.WhiteBackgrounds += len(keys)
	}

	doc.EachElement(func(el *etree.Element) {
		if skip[el] {
			return
		}
		for _, tok := range el.Child {
			if cd, ok := tok.(*etree.CharData); ok {
				var n int
				cd.Data, n = replaceTexts(cd.Data, texts)
				stats.TextReplacements += n
			}
		}
		for i := range el.Attr {
			var n int
			el.Attr[i].Value, n = replaceTexts(el.Attr[i].Value, texts)
			stats.TextReplacements += n
		}
	})

	for _, pm := range metas {
		stats.TextReplacements += replaceTreeTexts(pm.tree, texts)
		ApplyColors(pm.tree, rules, white)
		out, err := pm.tree.Marshal()
		if err != nil {
			return stats, fmt.Errorf("encoding Elementor data: %w", err)
		}
		pm.meta.SetValue(out)
		stats.MetasProcessed++
	}

	log.Info("replacement applied",
		"texts", stats.TextReplacements,
		"metas", stats.MetasProcessed,
		"color_rules", stats.ColorRules,
		"white_backgrounds", stats.WhiteBackgrounds)
	return stats, nil
}

// textRules drops pairs with an empty side; they would erase or inject text.
func textRules(pairs []types.TextPair) []types.TextPair {
	var out []types.TextPair
	for _, p := range pairs {
		if p.Original == "" || p.Transformed == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// replaceTexts applies every pair in order and counts the pairs that
// matched.
func replaceTexts(s string, pairs []types.TextPair) (string, int) {
	n := 0
	for _, p := range pairs {
		if strings.Contains(s, p.Original) {
			s = strings.ReplaceAll(s, p.Original, p.Transformed)
			n++
		}
	}
	return s, n
}

var structuralKeys = map[string]bool{"id": true, "elType": true, "widgetType": true}

// replaceTreeTexts rewrites every string value in the tree except keys and
// the structural id and type fields.
func replaceTreeTexts(tree elementor.Tree, pairs []types.TextPair) int {
	if len(pairs) == 0 {
		return 0
	}
	total := 0
	var visit func(v any) any
	visit = func(v any) any {
		switch n := v.(type) {
		case string:
			out, c := replaceTexts(n, pairs)
			total += c
			return out
		case map[string]any:
			for k, child := range n {
				if structuralKeys[k] {
					continue
				}
				n[k] = visit(child)
			}
		case []any:
			for i, child := range n {
				n[i] = visit(child)
			}
		}
		return v
	}
	for i, el := range tree {
		tree[i] = visit(el)
	}
	return total
}
