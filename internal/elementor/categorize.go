// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elementor

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Section and page categories.
const (
	CategoryMain         = "main"
	CategoryGeneral      = "general"
	CategoryHero         = "hero"
	CategoryAbout        = "about"
	CategoryServices     = "services"
	CategoryPortfolio    = "portfolio"
	CategoryTeam         = "team"
	CategoryTestimonials = "testimonials"
	CategoryPricing      = "pricing"
	CategoryContact      = "contact"
	CategoryFeatures     = "features"
	CategoryProducts     = "products"
	CategoryBlog         = "blog"
	CategoryFAQ          = "faq"
	CategoryCTA          = "cta"
	CategoryClients      = "clients"
	CategorySkills       = "skills"
	CategoryMap          = "map"
	CategoryFooter       = "footer"
	CategoryGallery      = "gallery"
	CategoryHome         = "home"
	CategoryShop         = "shop"
	CategoryCareers      = "careers"
	CategoryService      = "service"
)

type keywordRule struct {
	category string
	keywords []string
}

// sectionRules are checked in order; the first rule with a matching keyword wins.
var sectionRules = []keywordRule{
	{CategoryHero, []string{"banner", "hero", "main", "slider", "home"}},
	{CategoryAbout, []string{"about", "company", "who we are", "story"}},
	{CategoryServices, []string{"service", "what we do", "solutions", "offerings"}},
	{CategoryPortfolio, []string{"portfolio", "work", "projects", "gallery"}},
	{CategoryTeam, []string{"team", "members", "staff", "people"}},
	{CategoryTestimonials, []string{"testimonial", "review", "feedback", "client say"}},
	{CategoryPricing, []string{"price", "package", "plan", "subscription"}},
	{CategoryContact, []string{"contact", "reach", "touch", "location", "address"}},
	{CategoryFeatures, []string{"feature", "benefit", "advantage"}},
	{CategoryProducts, []string{"product", "shop", "store"}},
	{CategoryBlog, []string{"blog", "news", "article", "post"}},
	{CategoryFAQ, []string{"faq", "question", "answer"}},
	{CategoryCTA, []string{"action", "subscribe", "register", "sign up"}},
	{CategoryClients, []string{"client", "partner", "brand"}},
	{CategorySkills, []string{"skill", "expertise", "capability"}},
}

var widgetCategories = map[string]string{
	"form":        CategoryContact,
	"google_maps": CategoryMap,
	"price-table": CategoryPricing,
	"testimonial": CategoryTestimonials,
	"portfolio":   CategoryPortfolio,
	"team-member": CategoryTeam,
	"posts":       CategoryBlog,
}

// categoryFields feed keyword matching; editor and address are left out.
var categoryFields = textFields[:8]

// CategorizeWidget labels a widget by its type, then by keywords in its copy.
// It returns "" when nothing matches.
func CategorizeWidget(w gjson.Result) string {
	settings := w.Get("settings")
	if !settings.IsObject() {
		return ""
	}
	if c, ok := widgetCategories[w.Get("widgetType").String()]; ok {
		return c
	}

	var parts []string
	for _, field := range categoryFields {
		v := settings.Get(field)
		if !v.Exists() || isFalsy(v) {
			continue
		}
		s := v.Raw
		if v.Type == gjson.String {
			s = v.Str
		}
		parts = append(parts, strings.ToLower(s))
	}
	return matchRules(sectionRules, strings.Join(parts, " "))
}

// CategorizeElement is CategorizeWidget for a decoded element.
func CategorizeElement(el Element) string {
	raw, err := json.Marshal(el)
	if err != nil {
		return ""
	}
	return CategorizeWidget(gjson.ParseBytes(raw))
}

func isFalsy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.String:
		return v.Str == ""
	case gjson.Number:
		return v.Num == 0
	}
	return (v.IsArray() || v.IsObject()) && len(strings.TrimSpace(v.Raw)) <= 2
}

func matchRules(rules []keywordRule, text string) string {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.category
			}
		}
	}
	return ""
}

var pageRules = []keywordRule{
	{CategoryHome, []string{"home", "front", "main", "landing"}},
	{CategoryAbout, []string{"about", "company", "who we are", "our story"}},
	{CategoryContact, []string{"contact", "reach", "get in touch", "location"}},
	{CategoryServices, []string{"service", "what we do", "offering"}},
	{CategoryPortfolio, []string{"portfolio", "work", "project", "case"}},
	{CategoryBlog, []string{"blog", "news", "article", "post"}},
	{CategoryShop, []string{"shop", "store", "product"}},
	{CategoryFAQ, []string{"faq", "help", "support"}},
	{CategoryTeam, []string{"team", "staff", "people"}},
	{CategoryPricing, []string{"pricing", "plan", "package"}},
	{CategoryTestimonials, []string{"testimonial", "review", "feedback"}},
	{CategoryCareers, []string{"career", "job", "position"}},
}

var storedPageRules = []keywordRule{
	{CategoryHome, []string{"home", "front", "main"}},
	{CategoryAbout, []string{"about", "company"}},
	{CategoryContact, []string{"contact", "reach"}},
	{CategoryService, []string{"service", "product"}},
	{CategoryBlog, []string{"blog", "news"}},
}

// CategorizePage labels a page by keywords in its title using the full
// category set.
func CategorizePage(title string) string {
	if c := matchRules(pageRules, strings.ToLower(title)); c != "" {
		return c
	}
	return CategoryGeneral
}

// StoredPageCategory is the coarser label recorded when a theme is imported
// into the store: home, about, contact, service, blog or general.
func StoredPageCategory(title string) string {
	if c := matchRules(storedPageRules, strings.ToLower(title)); c != "" {
		return c
	}
	return CategoryGeneral
}
