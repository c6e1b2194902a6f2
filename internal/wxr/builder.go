// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wxr

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// SiteInfo describes the channel of a generated export.
type SiteInfo struct {
	Title       string
	Description string
	Generator   string
	BaseURL     string
}

// PageSpec describes one page item to add to a generated export.
type PageSpec struct {
	ID            int
	Title         string
	Slug          string
	Content       string
	ElementorData string
	MenuOrder     int
}

// MenuItemSpec describes one nav_menu_item entry.
type MenuItemSpec struct {
	ID        int
	Title     string
	URL       string
	MenuOrder int
}

// Builder assembles a new WXR export from scratch.
type Builder struct {
	doc     *etree.Document
	channel *etree.Element
	site    SiteInfo
	now     func() time.Time
}

// NewBuilder creates the base template: an rss 2.0 root carrying the WXR
// namespaces, and a channel with site metadata and wxr_version 1.2.
func NewBuilder(site SiteInfo, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	if site.BaseURL == "" {
		site.BaseURL = "https://example.com"
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")
	rss.CreateAttr("xmlns:excerpt", NSExcerpt)
	rss.CreateAttr("xmlns:content", NSContent)
	rss.CreateAttr("xmlns:wfw", NSWFW)
	rss.CreateAttr("xmlns:dc", NSDC)
	rss.CreateAttr("xmlns:wp", NSWP)

	ch := rss.CreateElement("channel")
	ch.CreateElement("title").SetText(site.Title)
	ch.CreateElement("link").SetText(site.BaseURL)
	ch.CreateElement("description").SetText(site.Description)
	ch.CreateElement("generator").SetText(site.Generator)
	ch.CreateElement("language").SetText("en-US")
	ch.CreateElement("wp:wxr_version").SetText("1.2")
	ch.CreateElement("wp:base_site_url").SetText(site.BaseURL)
	ch.CreateElement("wp:base_blog_url").SetText(site.BaseURL)

	return &Builder{doc: doc, channel: ch, site: site, now: now}
}

// AddPage appends a published page item. Elementor metas are written only
// when ElementorData is set.
func (b *Builder) AddPage(p PageSpec) {
	now := b.now().UTC()
	item := b.channel.CreateElement("item")

	item.CreateElement("title").SetText(p.Title)
	item.CreateElement("link").SetText(fmt.Sprintf("%s/%s/", b.site.BaseURL, p.Slug))
	item.CreateElement("pubDate").SetText(now.Format("Mon, 02 Jan 2006 15:04:05 +0000"))
	item.CreateElement("dc:creator").SetText("admin")
	guid := item.CreateElement("guid")
	guid.CreateAttr("isPermaLink", "false")
	guid.SetText(fmt.Sprintf("%s/?page_id=%d", b.site.BaseURL, p.ID))
	item.CreateElement("description")
	setCData(item.CreateElement("content:encoded"), p.Content)
	item.CreateElement("excerpt:encoded")
	item.CreateElement("wp:post_id").SetText(strconv.Itoa(p.ID))
	item.CreateElement("wp:post_date").SetText(now.Format(time.DateTime))
	item.CreateElement("wp:post_date_gmt").SetText(now.Format(time.DateTime))
	item.CreateElement("wp:comment_status").SetText("closed")
	item.CreateElement("wp:ping_status").SetText("closed")
	item.CreateElement("wp:post_name").SetText(p.Slug)
	item.CreateElement("wp:status").SetText("publish")
	item.CreateElement("wp:post_parent").SetText("0")
	item.CreateElement("wp:menu_order").SetText(strconv.Itoa(p.MenuOrder))
	item.CreateElement("wp:post_type").SetText("page")
	item.CreateElement("wp:post_password")
	item.CreateElement("wp:is_sticky").SetText("0")

	it := &Item{el: item}
	it.SetMeta(MetaPageTemplate, "elementor_header_footer")
	if p.ElementorData != "" {
		it.SetMeta(MetaElementorData, p.ElementorData)
		it.SetMeta(MetaElementorEditMode, "builder")
	}
}

// AddMenuItem appends a custom-link nav_menu_item.
func (b *Builder) AddMenuItem(m MenuItemSpec) {
	now := b.now().UTC()
	item := b.channel.CreateElement("item")

	item.CreateElement("title").SetText(m.Title)
	item.CreateElement("link").SetText(m.URL)
	item.CreateElement("pubDate").SetText(now.Format("Mon, 02 Jan 2006 15:04:05 +0000"))
	item.CreateElement("dc:creator").SetText("admin")
	guid := item.CreateElement("guid")
	guid.CreateAttr("isPermaLink", "false")
	guid.SetText(fmt.Sprintf("%s/?p=%d", b.site.BaseURL, m.ID))
	item.CreateElement("description")
	item.CreateElement("content:encoded")
	item.CreateElement("excerpt:encoded")
	item.CreateElement("wp:post_id").SetText(strconv.Itoa(m.ID))
	item.CreateElement("wp:post_date").SetText(now.Format(time.DateTime))
	item.CreateElement("wp:post_date_gmt").SetText(now.Format(time.DateTime))
	item.CreateElement("wp:post_name").SetText(fmt.Sprintf("menu-item-%d", m.ID))
	item.CreateElement("wp:status").SetText("publish")
	item.CreateElement("wp:post_type").SetText("nav_menu_item")

	it := &Item{el: item}
	it.SetMeta("_menu_item_type", "custom")
	it.SetMeta("_menu_item_url", m.URL)
	it.SetMeta("_menu_item_title", m.Title)
	it.SetMeta("_menu_item_menu_order", strconv.Itoa(m.MenuOrder))
}

// Document returns the assembled export.
func (b *Builder) Document() *Document {
	b.doc.Indent(2)
	return &Document{doc: b.doc}
}
