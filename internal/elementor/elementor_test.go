// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elementor

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const homePage = `[
  {"id":"s1","elType":"section","settings":{"background_color":"#FFFFFF"},"elements":[
    {"id":"c1","elType":"column","settings":{},"elements":[
      {"id":"w1","elType":"widget","widgetType":"heading","settings":{"title":"Welcome to Acme","title_color":"#2989CE"},"elements":[]}
    ]}
  ]},
  {"id":"s2","elType":"section","settings":{},"elements":[
    {"id":"c2","elType":"column","settings":{},"elements":[
      {"id":"w2","elType":"widget","widgetType":"text-editor","settings":{"editor":"<p>We build things.</p>","text_color":"rgba(0,0,0,0.5)"},"elements":[]},
      {"id":"w3","elType":"widget","widgetType":"form","settings":{"button_text":"Send"},"elements":[]}
    ]},
    {"id":"s3","elType":"section","settings":{},"elements":[
      {"id":"c3","elType":"column","settings":{},"elements":[
        {"id":"w4","elType":"widget","widgetType":"heading","settings":{"title":"Our Team"},"elements":[]}
      ]}
    ]}
  ]},
  {"id":"k1","elType":"container","settings":{"border_color":"#abc"},"elements":[
    {"id":"w5","elType":"widget","widgetType":"heading","settings":{"title":"Read our blog"},"elements":[]}
  ]}
]`

func TestParse_RoundTrip(t *testing.T) {
	tree, err := Parse(homePage)
	require.NoError(t, err)
	require.Len(t, tree, 3)

	out, err := tree.Marshal()
	require.NoError(t, err)

	var want, got any
	require.NoError(t, json.Unmarshal([]byte(homePage), &want))
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_KeepsNumbersAndHTML(t *testing.T) {
	tree, err := Parse(`[{"id":"a","settings":{"width":{"size":33.333333333333336},"html":"<b>&</b>"}}]`)
	require.NoError(t, err)

	out, err := tree.Marshal()
	require.NoError(t, err)
	assert.Contains(t, out, "33.333333333333336")
	assert.Contains(t, out, "<b>&</b>")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(`"just a string"`)
	assert.ErrorIs(t, err, ErrNotElementor)

	_, err = Parse(`{not json`)
	assert.Error(t, err)

	tree, err := Parse(`{"id":"x","elType":"section"}`)
	require.NoError(t, err)
	assert.Len(t, tree, 1)
}

func TestClone_IsDeep(t *testing.T) {
	tree, err := Parse(homePage)
	require.NoError(t, err)

	clone := tree.Clone()
	Settings(clone[0].(Element))["background_color"] = "#000000"

	assert.Equal(t, "#FFFFFF", Settings(tree[0].(Element))["background_color"])
}

func TestWalk_VisitsAllElements(t *testing.T) {
	tree, err := Parse(homePage)
	require.NoError(t, err)

	var ids []string
	Walk(tree, func(el Element) { ids = append(ids, ID(el)) })

	assert.Equal(t, []string{"s1", "c1", "w1", "s2", "c2", "w2", "w3", "s3", "c3", "w4", "k1", "w5"}, ids)
}

func TestExtractTexts(t *testing.T) {
	texts := ExtractTexts(homePage)
	assert.Equal(t, []string{
		"Welcome to Acme",
		"<p>We build things.</p>",
		"Send",
		"Our Team",
		"Read our blog",
	}, texts)
}

func TestExtractTexts_KeepsDuplicates(t *testing.T) {
	raw := `[{"elType":"widget","settings":{"title":"Hi","text":"Hi"}},{"elType":"widget","settings":{"title":"Hi"}}]`
	assert.Equal(t, []string{"Hi", "Hi", "Hi"}, ExtractTexts(raw))
}

func TestExtractTexts_IgnoresNonWidgets(t *testing.T) {
	raw := `[{"elType":"section","settings":{"title":"Section title"},"elements":[]}]`
	assert.Empty(t, ExtractTexts(raw))
}

func TestExtractColors(t *testing.T) {
	colors := ExtractColors(homePage)
	assert.Equal(t, []string{"#FFFFFF", "#2989CE", "rgba(0,0,0,0.5)", "#abc"}, colors)
}

func TestExtractColors_RejectsNonColors(t *testing.T) {
	raw := `[{"settings":{"title_color":"blue","color":"#12345","background":"#ffffff","link_color":"#GGGGGG"}}]`
	assert.Equal(t, []string{"#12345"}, ExtractColors(raw))
}

func TestTopLevelSections(t *testing.T) {
	sections := TopLevelSections(homePage, true)
	require.Len(t, sections, 3)

	assert.Equal(t, "s1", sections[0].ElementID)
	assert.Equal(t, CategoryMain, sections[0].Category)

	assert.Equal(t, "s2", sections[1].ElementID)
	assert.Equal(t, CategoryContact, sections[1].Category)

	assert.Equal(t, "k1", sections[2].ElementID)
	assert.Equal(t, CategoryBlog, sections[2].Category)

	assert.True(t, gjson.Valid(sections[1].Content))
	assert.Equal(t, "s3", gjson.Get(sections[1].Content, "elements.1.id").String())
}

func TestTopLevelSections_Defaults(t *testing.T) {
	raw := `[
	  {"id":"a","elType":"section","elements":[{"elType":"widget","settings":{"title":"Lorem ipsum"}}]},
	  {"id":"b","elType":"section","elements":[]}
	]`

	home := TopLevelSections(raw, true)
	require.Len(t, home, 2)
	assert.Equal(t, CategoryMain, home[0].Category)
	assert.Equal(t, CategoryGeneral, home[1].Category)

	other := TopLevelSections(raw, false)
	assert.Equal(t, CategoryGeneral, other[0].Category)
}

func TestTopLevelSections_NestedUnderColumn(t *testing.T) {
	raw := `[{"id":"outer","elType":"section","elements":[
	  {"id":"col","elType":"column","elements":[
	    {"id":"inner","elType":"section","elements":[
	      {"id":"c","elType":"column","elements":[{"elType":"widget","widgetType":"form"}]}
	    ]}
	  ]}
	]}]`

	sections := TopLevelSections(raw, false)
	require.Len(t, sections, 1)
	assert.Equal(t, "outer", sections[0].ElementID)
	assert.Equal(t, CategoryGeneral, sections[0].Category)
}

func TestTopLevelSections_SingleObject(t *testing.T) {
	raw := `{"id":"only","elType":"container","elements":[]}`
	sections := TopLevelSections(raw, false)
	require.Len(t, sections, 1)
	assert.Equal(t, "only", sections[0].ElementID)
}

func TestCategorizeWidget(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"widget type wins", `{"widgetType":"google_maps","settings":{"title":"About us"}}`, CategoryMap},
		{"keyword order", `{"widgetType":"heading","settings":{"title":"About our services"}}`, CategoryAbout},
		{"case insensitive", `{"widgetType":"heading","settings":{"heading":"PRICING PLANS"}}`, CategoryPricing},
		{"no match", `{"widgetType":"heading","settings":{"title":"Lorem ipsum"}}`, ""},
		{"empty settings list", `{"widgetType":"form","settings":[]}`, ""},
		{"editor ignored", `{"widgetType":"text-editor","settings":{"editor":"contact us"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeWidget(gjson.Parse(tt.raw)))
		})
	}
}

func TestCategorizePage(t *testing.T) {
	tests := []struct {
		title  string
		full   string
		stored string
	}{
		{"Home", CategoryHome, CategoryHome},
		{"Landing", CategoryHome, CategoryGeneral},
		{"About Us", CategoryAbout, CategoryAbout},
		{"Get in Touch", CategoryContact, CategoryGeneral},
		{"Our Services", CategoryServices, CategoryService},
		{"Products", CategoryShop, CategoryService},
		{"News", CategoryBlog, CategoryBlog},
		{"Careers", CategoryCareers, CategoryGeneral},
		{"Privacy", CategoryGeneral, CategoryGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.full, CategorizePage(tt.title))
			assert.Equal(t, tt.stored, StoredPageCategory(tt.title))
		})
	}
}

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "Hello world & more", CleanHTML("<p>Hello <strong>world</strong></p>\n\n&amp; more"))
	assert.Equal(t, "", CleanHTML(""))
}

func TestIsColorValue(t *testing.T) {
	assert.True(t, IsColorValue("#fff"))
	assert.True(t, IsColorValue("#FFFFFF80"))
	assert.True(t, IsColorValue("rgba(1,2,3,0.4)"))
	assert.False(t, IsColorValue("#ff"))
	assert.False(t, IsColorValue("red"))
}
