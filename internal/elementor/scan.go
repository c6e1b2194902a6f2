// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elementor

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// textFields are the widget settings that carry user-visible copy.
var textFields = []string{
	"title", "heading", "text", "subtitle", "description",
	"content", "button_text", "tab_title", "editor", "address",
}

var hexColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{3,8})$`)

// IsColorValue reports whether v is a hex color or an rgba() expression.
func IsColorValue(v string) bool {
	return hexColorRe.MatchString(v) || strings.HasPrefix(v, "rgba")
}

// ExtractTexts returns every non-empty text setting of every widget in raw,
// in document order. Duplicates are kept.
func ExtractTexts(raw string) []string {
	var out []string
	collectTexts(gjson.Parse(raw), &out)
	return out
}

func collectTexts(r gjson.Result, out *[]string) {
	switch {
	case r.IsArray():
		for _, sub := range r.Array() {
			collectTexts(sub, out)
		}
	case r.IsObject():
		if r.Get("elType").String() == TypeWidget {
			settings := r.Get("settings")
			switch {
			case settings.IsObject():
				for _, field := range textFields {
					v := settings.Get(field)
					switch {
					case v.Type == gjson.String && v.Str != "":
						*out = append(*out, v.Str)
					case v.IsObject() || v.IsArray():
						collectTexts(v, out)
					}
				}
			case settings.IsArray():
				for _, sub := range settings.Array() {
					collectTexts(sub, out)
				}
			}
		}
		for _, child := range r.Get("elements").Array() {
			collectTexts(child, out)
		}
	}
}

// ExtractColors returns every color-valued setting in raw, in document order.
// A setting qualifies when its key contains "color" and its value is a hex
// color or rgba() expression. Nested setting groups are searched too.
func ExtractColors(raw string) []string {
	var out []string
	collectColors(gjson.Parse(raw), &out)
	return out
}

func collectColors(r gjson.Result, out *[]string) {
	switch {
	case r.IsArray():
		for _, sub := range r.Array() {
			collectColors(sub, out)
		}
	case r.IsObject():
		settings := r.Get("settings")
		switch {
		case settings.IsObject():
			settings.ForEach(func(key, value gjson.Result) bool {
				switch {
				case value.Type == gjson.String:
					if strings.Contains(key.Str, "color") && IsColorValue(value.Str) {
						*out = append(*out, value.Str)
					}
				case value.IsObject() || value.IsArray():
					collectColors(value, out)
				}
				return true
			})
		case settings.IsArray():
			for _, sub := range settings.Array() {
				collectColors(sub, out)
			}
		}
		for _, child := range r.Get("elements").Array() {
			collectColors(child, out)
		}
	}
}

// SectionNode is a top-level layout element found in a page.
type SectionNode struct {
	ElementID string
	Category  string
	// Content is the element's JSON exactly as it appeared in the source.
	Content string
}

// TopLevelSections returns the section and container elements of raw that
// are not nested inside another section or container. Each is labelled by
// the first categorisable widget among its direct children and the widgets
// of its direct layout or column children. On a home page an unlabelled
// first section is "main"; every other unlabelled section is "general".
func TopLevelSections(raw string, isHome bool) []SectionNode {
	var (
		sections []SectionNode
		first    = true
	)

	var visit func(r gjson.Result, insideLayout bool)
	visit = func(r gjson.Result, insideLayout bool) {
		if !r.IsObject() {
			return
		}
		elType := r.Get("elType").String()
		isLayout := elType == TypeSection || elType == TypeContainer

		if isLayout && !insideLayout {
			category := ""
			consider := func(w gjson.Result) {
				if category == "" && w.Get("elType").String() == TypeWidget {
					category = CategorizeWidget(w)
				}
			}
			for _, child := range r.Get("elements").Array() {
				switch child.Get("elType").String() {
				case TypeWidget:
					consider(child)
				case TypeSection, TypeContainer, TypeColumn:
					for _, w := range child.Get("elements").Array() {
						consider(w)
					}
				}
			}

			if first {
				first = false
				if isHome && category == "" {
					category = CategoryMain
				}
			}
			if category == "" {
				category = CategoryGeneral
			}

			sections = append(sections, SectionNode{
				ElementID: r.Get("id").String(),
				Category:  category,
				Content:   r.Raw,
			})
		}

		for _, child := range r.Get("elements").Array() {
			visit(child, insideLayout || isLayout)
		}
	}

	root := gjson.Parse(raw)
	if root.IsArray() {
		for _, el := range root.Array() {
			visit(el, false)
		}
	} else {
		visit(root, false)
	}
	return sections
}

// LooksLikeData reports whether a post meta value holds an Elementor list.
func LooksLikeData(v string) bool {
	return strings.Contains(v, "[{")
}
