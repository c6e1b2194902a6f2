// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wxr reads, edits and writes WordPress eXtended RSS exports.
//
// Documents are held as an etree DOM so namespace prefixes, CDATA sections
// and unknown elements survive a read-modify-write cycle.
package wxr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs used by WXR 1.2.
const (
	NSWP      = "http://wordpress.org/export/1.2/"
	NSContent = "http://purl.org/rss/1.0/modules/content/"
	NSExcerpt = "http://wordpress.org/export/1.2/excerpt/"
	NSWFW     = "http://wellformedweb.org/CommentAPI/"
	NSDC      = "http://purl.org/dc/elements/1.1/"
)

// Post meta keys.
const (
	MetaElementorData     = "_elementor_data"
	MetaElementorEditMode = "_elementor_edit_mode"
	MetaPageTemplate      = "_wp_page_template"
)

var (
	// ErrNotWXR is returned when input does not look like XML.
	ErrNotWXR = errors.New("wxr: content does not appear to be XML")

	// ErrNoChannel is returned when the document has no rss/channel element.
	ErrNoChannel = errors.New("wxr: missing channel element")
)

// Document is a parsed WXR export.
type Document struct {
	doc *etree.Document
}

// Parse reads a WXR export from data.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) && !bytes.HasPrefix(trimmed, []byte("<")) {
		return nil, ErrNotWXR
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	d := &Document{doc: doc}
	if d.channel() == nil {
		return nil, ErrNoChannel
	}
	return d, nil
}

// ReadFile parses the WXR export at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Validate reports whether data parses as a WXR export.
func Validate(data []byte) error {
	_, err := Parse(data)
	return err
}

// Bytes serializes the document with an XML declaration.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the document to w, adding an XML declaration when the
// source had none.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if !hasDeclaration(d.doc) {
		d.doc.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="UTF-8"`))
	}
	return d.doc.WriteTo(w)
}

// WriteFile writes the document to path, creating parent directories.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func hasDeclaration(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return true
		}
	}
	return false
}

func (d *Document) channel() *etree.Element {
	root := d.doc.Root()
	if root == nil {
		return nil
	}
	if root.Tag == "channel" {
		return root
	}
	return root.SelectElement("channel")
}

// ChannelInfo is the site-level metadata of an export.
type ChannelInfo struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Channel returns the export's site metadata.
func (d *Document) Channel() ChannelInfo {
	ch := d.channel()
	return ChannelInfo{
		Title:       childText(ch, "title"),
		Link:        childText(ch, "link"),
		Description: childText(ch, "description"),
		Language:    childText(ch, "language"),
	}
}

// HasChannelTitle reports whether the channel declares a title element.
func (d *Document) HasChannelTitle() bool {
	return d.channel().SelectElement("title") != nil
}

// Items returns every item in the channel.
func (d *Document) Items() []*Item {
	var items []*Item
	for _, el := range d.channel().SelectElements("item") {
		items = append(items, &Item{el: el})
	}
	return items
}

// Pages returns the items whose post type is page.
func (d *Document) Pages() []*Item {
	var pages []*Item
	for _, it := range d.Items() {
		if it.PostType() == "page" {
			pages = append(pages, it)
		}
	}
	return pages
}

// RemoveItem detaches it from the channel.
func (d *Document) RemoveItem(it *Item) {
	d.channel().RemoveChild(it.el)
}

// MetaValues returns every wp:meta_value element in the document.
func (d *Document) MetaValues() []*MetaValue {
	var out []*MetaValue
	for _, it := range d.Items() {
		for _, pm := range it.el.SelectElements("wp:postmeta") {
			key := childText(pm, "wp:meta_key")
			if v := pm.SelectElement("wp:meta_value"); v != nil {
				out = append(out, &MetaValue{Key: key, el: v})
			}
		}
	}
	return out
}

// ElementorMetas returns the meta values that hold an Elementor element list.
func (d *Document) ElementorMetas() []*MetaValue {
	var out []*MetaValue
	for _, mv := range d.MetaValues() {
		if strings.Contains(mv.Value(), "[{") {
			out = append(out, mv)
		}
	}
	return out
}

// ElementorData returns the raw _elementor_data of every item that has one.
func (d *Document) ElementorData() []string {
	var out []string
	for _, mv := range d.MetaValues() {
		if mv.Key == MetaElementorData && mv.Value() != "" {
			out = append(out, mv.Value())
		}
	}
	return out
}

// EachElement calls fn for every element in the document, root first.
func (d *Document) EachElement(fn func(el *etree.Element)) {
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		fn(el)
		for _, c := range el.ChildElements() {
			visit(c)
		}
	}
	if root := d.doc.Root(); root != nil {
		visit(root)
	}
}

// MetaValue is a wp:meta_value element and the key it belongs to.
type MetaValue struct {
	Key string
	el  *etree.Element
}

// Value returns the meta value text.
func (m *MetaValue) Value() string { return textOf(m.el) }

// SetValue replaces the meta value, written as CDATA.
func (m *MetaValue) SetValue(v string) { setCData(m.el, v) }

// Element exposes the underlying XML element.
func (m *MetaValue) Element() *etree.Element { return m.el }

// Item is one channel item: a page, post, attachment or menu entry.
type Item struct {
	el *etree.Element
}

// Title returns the item title.
func (it *Item) Title() string { return childText(it.el, "title") }

// HasTitle reports whether the item has a title element.
func (it *Item) HasTitle() bool { return it.el.SelectElement("title") != nil }

// PostID returns wp:post_id.
func (it *Item) PostID() string { return childText(it.el, "wp:post_id") }

// PostName returns wp:post_name.
func (it *Item) PostName() string { return childText(it.el, "wp:post_name") }

// PostType returns wp:post_type.
func (it *Item) PostType() string { return childText(it.el, "wp:post_type") }

// Content returns content:encoded.
func (it *Item) Content() string { return childText(it.el, "content:encoded") }

// Meta returns the value of the post meta named key.
func (it *Item) Meta(key string) (string, bool) {
	for _, pm := range it.el.SelectElements("wp:postmeta") {
		if childText(pm, "wp:meta_key") == key {
			return childText(pm, "wp:meta_value"), true
		}
	}
	return "", false
}

// SetMeta sets the post meta named key, appending it when missing.
func (it *Item) SetMeta(key, value string) {
	for _, pm := range it.el.SelectElements("wp:postmeta") {
		if childText(pm, "wp:meta_key") == key {
			v := pm.SelectElement("wp:meta_value")
			if v == nil {
				v = pm.CreateElement("wp:meta_value")
			}
			setCData(v, value)
			return
		}
	}
	pm := it.el.CreateElement("wp:postmeta")
	setCData(pm.CreateElement("wp:meta_key"), key)
	setCData(pm.CreateElement("wp:meta_value"), value)
}

// ElementorData returns the item's _elementor_data meta.
func (it *Item) ElementorData() string {
	v, _ := it.Meta(MetaElementorData)
	return v
}

// SetElementorData replaces the item's _elementor_data meta.
func (it *Item) SetElementorData(raw string) {
	it.SetMeta(MetaElementorData, raw)
}

func childText(el *etree.Element, tag string) string {
	if el == nil {
		return ""
	}
	return textOf(el.SelectElement(tag))
}

// textOf concatenates all character data directly under el, so values
// split across several CDATA sections read back whole.
func textOf(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var sb strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

func setCData(el *etree.Element, v string) {
	for _, tok := range append([]etree.Token(nil), el.Child...) {
		if cd, ok := tok.(*etree.CharData); ok {
			el.RemoveChild(cd)
		}
	}
	if v == "" {
		return
	}
	el.SetCData(v)
}
