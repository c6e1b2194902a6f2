// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elementor

import (
	"html"
	"regexp"
	"strings"
)

var (
	paragraphTagRe = regexp.MustCompile(`</?p>`)
	anyTagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe        = regexp.MustCompile(`\s+`)
)

// CleanHTML strips markup from s, decodes entities and collapses whitespace.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	s = paragraphTagRe.ReplaceAllString(s, "")
	s = anyTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
