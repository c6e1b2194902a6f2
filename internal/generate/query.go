// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Category lists the keywords that request it in a user query.
type Category struct {
	Name     string
	Keywords []string
}

// SectionCategories is the ordered section vocabulary of the one-page
// generator.
var SectionCategories = []Category{
	{"main", []string{"main", "main section", "main content"}},
	{"hero", []string{"hero", "banner", "header"}},
	{"about", []string{"about", "company", "who we are", "our story"}},
	{"services", []string{"services", "what we do", "offerings", "solutions"}},
	{"features", []string{"features", "benefits", "advantages"}},
	{"portfolio", []string{"portfolio", "work", "projects", "gallery", "case study", "showcase"}},
	{"team", []string{"team", "members", "staff", "our people"}},
	{"testimonials", []string{"testimonials", "reviews", "what clients say"}},
	{"pricing", []string{"pricing", "plans", "packages", "subscriptions"}},
	{"contact", []string{"contact", "get in touch", "reach us", "location"}},
	{"faq", []string{"faq", "questions", "answers", "help"}},
	{"cta", []string{"cta", "call to action", "sign up", "join"}},
	{"clients", []string{"clients", "partners", "brands"}},
	{"footer", []string{"footer", "bottom"}},
	{"map", []string{"map", "google map", "location", "address", "find us", "directions", "where we are"}},
}

// PageCategories is the ordered page vocabulary of the multi-page generator.
var PageCategories = []Category{
	{"home", []string{"home", "homepage", "main", "index", "landing"}},
	{"about", []string{"about", "about us", "company", "who we are", "our story"}},
	{"services", []string{"services", "what we do", "offerings", "solutions", "our services"}},
	{"portfolio", []string{"portfolio", "work", "projects", "gallery", "our work", "case studies"}},
	{"contact", []string{"contact", "get in touch", "reach us", "contact us", "location"}},
	{"blog", []string{"blog", "news", "articles", "posts"}},
	{"team", []string{"team", "our team", "members", "staff", "our people"}},
	{"testimonials", []string{"testimonials", "reviews", "what clients say"}},
	{"pricing", []string{"pricing", "plans", "packages", "subscriptions"}},
	{"faq", []string{"faq", "questions", "answers", "help", "support"}},
	{"products", []string{"products", "shop", "store", "merchandise"}},
}

// PrimaryPages are the menu pages, in menu order.
var PrimaryPages = []string{"home", "about", "services", "portfolio", "blog", "contact"}

var (
	sectionCountRe = regexp.MustCompile(`(\d+)\s+sections`)
	pageCountRe    = regexp.MustCompile(`(\d+)\s+pages`)
)

// closingSections end a one-page site, in this order.
var closingSections = []string{"cta", "contact", "footer"}

// ParseSectionQuery maps a free-text request to section categories. A
// request such as "5 sections" is padded with random categories. The
// result opens with main (or hero when main is absent), keeps the middle
// categories in vocabulary order and closes with cta, contact and footer.
func ParseSectionQuery(query string, rng *rand.Rand) []string {
	q := strings.ToLower(query)
	requested := matchCategories(SectionCategories, q)

	if n, ok := requestedCount(sectionCountRe, q); ok && len(requested) < n {
		available := remaining(SectionCategories, requested)
		requested = append(requested, sample(rng, available, n-len(requested))...)
	}
	if len(requested) == 0 {
		requested = []string{"main"}
	}

	var ordered []string
	switch {
	case slices.Contains(requested, "main"):
		ordered = append(ordered, "main")
		requested = without(requested, "main")
	case slices.Contains(requested, "hero"):
		ordered = append(ordered, "hero")
		requested = without(requested, "hero")
	}
	for _, c := range requested {
		if !slices.Contains(closingSections, c) {
			ordered = append(ordered, c)
		}
	}
	for _, c := range closingSections {
		if slices.Contains(requested, c) {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// ParsePageQuery maps a free-text request to page categories. A request
// such as "4 pages" is padded from the primary pages first and then from
// the rest. Home is always present. Primary pages come first in menu order.
func ParsePageQuery(query string, rng *rand.Rand) []string {
	q := strings.ToLower(query)
	requested := matchCategories(PageCategories, q)

	if n, ok := requestedCount(pageCountRe, q); ok && len(requested) < n {
		available := remaining(PageCategories, requested)
		var primary, secondary []string
		for _, p := range available {
			if slices.Contains(PrimaryPages, p) {
				primary = append(primary, p)
			} else {
				secondary = append(secondary, p)
			}
		}
		needed := n - len(requested)
		picked := sample(rng, primary, needed)
		requested = append(requested, picked...)
		needed -= len(picked)
		if needed > 0 {
			requested = append(requested, sample(rng, secondary, needed)...)
		}
	}
	if !slices.Contains(requested, "home") {
		requested = append([]string{"home"}, requested...)
	}

	var ordered []string
	for _, p := range PrimaryPages {
		if slices.Contains(requested, p) {
			ordered = append(ordered, p)
			requested = without(requested, p)
		}
	}
	return append(ordered, requested...)
}

// matchCategories returns each category with at least one keyword in q,
// in vocabulary order.
func matchCategories(vocab []Category, q string) []string {
	var out []string
	for _, c := range vocab {
		for _, kw := range c.Keywords {
			if strings.Contains(q, kw) {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

func requestedCount(re *regexp.Regexp, q string) (int, bool) {
	m := re.FindStringSubmatch(q)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func remaining(vocab []Category, taken []string) []string {
	var out []string
	for _, c := range vocab {
		if !slices.Contains(taken, c.Name) {
			out = append(out, c.Name)
		}
	}
	return out
}

// sample returns up to n distinct entries of from in random order.
func sample(rng *rand.Rand, from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}

func without(list []string, drop string) []string {
	return slices.DeleteFunc(slices.Clone(list), func(s string) bool { return s == drop })
}

// keywordsFor returns the vocabulary keywords of name.
func keywordsFor(vocab []Category, name string) []string {
	for _, c := range vocab {
		if c.Name == name {
			return c.Keywords
		}
	}
	return nil
}
