// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package elementor reads and rewrites Elementor page-builder data, the JSON
// array stored in the _elementor_data post meta of a WordPress export.
//
// Read-only scans (texts, colors, sections) run over the raw JSON with gjson
// so results follow document order. Mutations decode into a generic tree of
// maps and slices; re-encoding sorts object keys.
package elementor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Element types.
const (
	TypeSection   = "section"
	TypeContainer = "container"
	TypeColumn    = "column"
	TypeWidget    = "widget"
)

// ErrNotElementor is returned when data is neither a JSON array nor object.
var ErrNotElementor = errors.New("elementor: data is not a JSON array or object")

// Tree is a decoded Elementor document: a list of top-level elements.
type Tree []any

// Element is a single decoded element.
type Element = map[string]any

// Parse decodes raw Elementor JSON. Numbers are kept as json.Number so
// values survive a round trip unchanged. A single top-level object is
// wrapped into a one-element tree.
func Parse(raw string) (Tree, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding elementor data: %w", err)
	}

	switch t := v.(type) {
	case []any:
		return Tree(t), nil
	case map[string]any:
		return Tree{t}, nil
	default:
		return nil, ErrNotElementor
	}
}

// ParseElement decodes a single serialized element, such as stored section content.
func ParseElement(raw string) (Element, error) {
	tree, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(tree) != 1 {
		return nil, fmt.Errorf("expected one element, got %d", len(tree))
	}
	el, ok := tree[0].(Element)
	if !ok {
		return nil, ErrNotElementor
	}
	return el, nil
}

// Marshal encodes the tree without HTML escaping.
func (t Tree) Marshal() (string, error) {
	return encode([]any(t))
}

// MarshalElement encodes a single element without HTML escaping.
func MarshalElement(el Element) (string, error) {
	return encode(el)
}

func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding elementor data: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	out, _ := cloneValue([]any(t)).([]any)
	return Tree(out)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// Walk visits every element reachable through "elements" lists, depth first,
// parents before children.
func Walk(t Tree, fn func(el Element)) {
	var visit func(v any)
	visit = func(v any) {
		switch n := v.(type) {
		case []any:
			for _, child := range n {
				visit(child)
			}
		case map[string]any:
			fn(n)
			if children, ok := n["elements"].([]any); ok {
				visit(children)
			}
		}
	}
	visit([]any(t))
}

// ElType returns the element's elType.
func ElType(el Element) string {
	s, _ := el["elType"].(string)
	return s
}

// WidgetType returns the element's widgetType.
func WidgetType(el Element) string {
	s, _ := el["widgetType"].(string)
	return s
}

// ID returns the element's id.
func ID(el Element) string {
	s, _ := el["id"].(string)
	return s
}

// Settings returns the element's settings map, or nil when absent or not an
// object. Elementor writes empty settings as [] which also yields nil.
func Settings(el Element) map[string]any {
	s, _ := el["settings"].(map[string]any)
	return s
}

// Children returns the element's child elements.
func Children(el Element) []Element {
	raw, _ := el["elements"].([]any)
	out := make([]Element, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(Element); ok {
			out = append(out, m)
		}
	}
	return out
}

// IsLayout reports whether the element is a section or container.
func IsLayout(el Element) bool {
	t := ElType(el)
	return t == TypeSection || t == TypeContainer
}
