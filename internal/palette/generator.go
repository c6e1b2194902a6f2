// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/logger"
)

var paletteSystemPrompt = "You are a professional color palette generator. Build the palette around the color the user asks for. Respond only with valid JSON containing the requested data."

var palettePromptTmpl = template.Must(template.New("palette").Parse(`I need a professional color palette and Elementor property mapping for a website with this style description: "{{.Style}}"

Part 1: generate a palette in hex format around the requested color with these roles:
{{range .Roles}}- {{.}}
{{end}}
Part 2: map these Elementor color properties to the palette role names above:
{{range .Properties}}- {{.}}
{{end}}
Keep backgrounds rich (not white), keep text readable against its background, and keep link colors well apart from primary.

Return a JSON object with two properties: "palette" (role name to hex) and "elementor_mapping" (property to role name).
`))

// Result is a generated palette and the property mapping to apply it with.
type Result struct {
	Palette Palette
	Custom  []Binding
	// Fallback is set when the AI backend was skipped or failed.
	Fallback bool
}

// Colors resolves the result into Elementor property colors.
func (r Result) Colors() PropertyColors {
	return MapToElementor(r.Palette, r.Custom)
}

// Generator builds palettes from style descriptions. A nil Client always
// uses the algorithmic palette.
type Generator struct {
	Client llm.Client
}

// Generate asks the AI backend for a palette and mapping. Any failure
// falls back to Algorithmic(FromDescription(style)) with no custom mapping.
func (g *Generator) Generate(ctx context.Context, style string) Result {
	log := logger.FromContext(ctx)
	if g == nil || g.Client == nil {
		return fallback(style)
	}

	prompt, err := renderPalettePrompt(style)
	if err != nil {
		log.Warn("rendering palette prompt failed", "err", err)
		return fallback(style)
	}

	reply, err := g.Client.Complete(ctx, llm.Request{
		System:      paletteSystemPrompt,
		User:        prompt,
		Temperature: 0.2,
		MaxTokens:   3000,
	})
	if err != nil {
		log.Warn("palette generation failed, using algorithmic palette", "err", err)
		return fallback(style)
	}

	p, custom, err := ParseResponse(reply)
	if err != nil {
		log.Warn("palette response unusable, using algorithmic palette", "err", err)
		return fallback(style)
	}
	return Result{Palette: p, Custom: custom}
}

func fallback(style string) Result {
	return Result{Palette: Algorithmic(FromDescription(style)), Fallback: true}
}

// ParseResponse reads a {palette, elementor_mapping} reply. Code fences
// are stripped and, when the reply is not JSON, the outermost {...} block
// is tried. Palette hex values are repaired or dropped. Mapping values
// naming a palette role become that role's hex; other values that are not
// #RRGGBB become primary, or are dropped when there is no primary.
func ParseResponse(reply string) (Palette, []Binding, error) {
	body := llm.StripFences(reply)
	if !gjson.Valid(body) {
		body = llm.FirstJSONObject(body)
		if body == "" || !gjson.Valid(body) {
			return nil, nil, errors.New("no JSON object in palette response")
		}
	}
	doc := gjson.Parse(body)

	var p Palette
	doc.Get("palette").ForEach(func(k, v gjson.Result) bool {
		hex, err := RepairHex(v.String())
		if err != nil {
			return true
		}
		c, err := ParseHex(hex)
		if err != nil {
			return true
		}
		p = append(p, Swatch{Role: k.String(), Color: c})
		return true
	})
	if len(p) == 0 {
		return nil, nil, errors.New("palette response has no usable colors")
	}

	primary, hasPrimary := p.Get(RolePrimary)
	var custom []Binding
	doc.Get("elementor_mapping").ForEach(func(k, v gjson.Result) bool {
		val := v.String()
		switch {
		case hasRole(p, val):
			c, _ := p.Get(val)
			custom = append(custom, Binding{Property: k.String(), Value: c.Hex()})
		case IsStrictHex(val):
			custom = append(custom, Binding{Property: k.String(), Value: val})
		case hasPrimary:
			custom = append(custom, Binding{Property: k.String(), Value: primary.Hex()})
		}
		return true
	})
	return p, custom, nil
}

func hasRole(p Palette, role string) bool {
	_, ok := p.Get(role)
	return ok
}

func renderPalettePrompt(style string) (string, error) {
	roles := make([]string, 0, 16)
	for _, s := range Algorithmic(DefaultPrimary) {
		roles = append(roles, s.Role)
	}
	roles = append(roles, "black")

	props := make([]string, 0, len(DefaultElementorMapping))
	for _, b := range DefaultElementorMapping {
		props = append(props, b.Property)
	}

	var buf bytes.Buffer
	err := palettePromptTmpl.Execute(&buf, struct {
		Style      string
		Roles      []string
		Properties []string
	}{style, roles, props})
	if err != nil {
		return "", fmt.Errorf("executing palette template: %w", err)
	}
	return buf.String(), nil
}
