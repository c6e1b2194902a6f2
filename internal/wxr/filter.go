// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wxr

import (
	"regexp"
	"strings"
)

var (
	counterSuffixRe = regexp.MustCompile(`\s*[-–_]\s*\d+$`)
	numberSuffixRe  = regexp.MustCompile(`\s+\d+$`)
	copySuffixRe    = regexp.MustCompile(`(?i)\s*[-–_]\s*(copy|duplicate|version|v\d+)$`)
)

// BaseTitle normalizes a page title for duplicate detection: trailing
// counters and copy/duplicate/version suffixes are dropped, whitespace is
// collapsed and the result is lower-cased.
func BaseTitle(title string) string {
	base := counterSuffixRe.ReplaceAllString(title, "")
	base = numberSuffixRe.ReplaceAllString(base, "")
	base = copySuffixRe.ReplaceAllString(base, "")
	return strings.ToLower(strings.Join(strings.Fields(base), " "))
}

// FilterReport lists the page titles kept and dropped by FilterUniquePages.
type FilterReport struct {
	Kept     []string
	Excluded []string
}

// FilterUniquePages keeps one page per base title, preferring the page with
// the longest content. Untitled pages, other item types and channel metadata
// are left alone.
func FilterUniquePages(d *Document) FilterReport {
	type candidate struct {
		item   *Item
		title  string
		length int
	}

	var (
		order  []string
		chosen = map[string]candidate{}
		report FilterReport
		drop   []*Item
	)

	for _, it := range d.Pages() {
		title := strings.TrimSpace(it.Title())
		if title == "" {
			continue
		}
		base := BaseTitle(title)
		c := candidate{item: it, title: title, length: len(it.Content())}

		existing, ok := chosen[base]
		switch {
		case !ok:
			chosen[base] = c
			order = append(order, base)
		case c.length > existing.length:
			report.Excluded = append(report.Excluded, existing.title)
			drop = append(drop, existing.item)
			chosen[base] = c
		default:
			report.Excluded = append(report.Excluded, title)
			drop = append(drop, it)
		}
	}

	for _, it := range drop {
		d.RemoveItem(it)
	}
	for _, base := range order {
		report.Kept = append(report.Kept, chosen[base].title)
	}
	return report
}
