// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/palette"
)

var paletteCmd = &cobra.Command{
	Use:   "palette <description>",
	Short: "Suggest colors and build an Elementor palette for a description",
	Long: `Palette prints five suggested colors for a description, then the full
role palette and the Elementor property colors derived from it. With --ai
the palette and property mapping come from the AI backend, falling back to
the algorithmic palette.`,
	Args: cobra.ExactArgs(1),
	RunE: runPalette,
}

func init() {
	paletteCmd.Flags().Bool("ai", false, "ask the AI backend for the palette")
	paletteCmd.Flags().Bool("json", false, "output as JSON")
	paletteCmd.Flags().Bool("properties", false, "also list Elementor property colors")
	aiFlags(paletteCmd)

	rootCmd.AddCommand(paletteCmd)
}

func runPalette(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	desc := args[0]
	useAI, _ := cmd.Flags().GetBool("ai")

	ctx, cancel := commandContext()
	defer cancel()

	gen := &palette.Generator{}
	if useAI {
		gen.Client, err = newClient(ctx, cfg, false)
		if err != nil {
			return err
		}
	}
	result := gen.Generate(ctx, desc)
	suggested := palette.Suggest(desc, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	colors := result.Colors()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		roles := make(map[string]string, len(result.Palette))
		for _, s := range result.Palette {
			roles[s.Role] = s.Color.Hex()
		}
		props := make(map[string]string, len(colors))
		for _, b := range colors {
			props[b.Property] = b.Value
		}
		return printJSON(map[string]any{
			"suggested":  suggested,
			"palette":    roles,
			"properties": props,
			"fallback":   result.Fallback,
		})
	}

	fmt.Fprintf(os.Stdout, "Suggested: %v\n\n", suggested)
	fmt.Fprintf(os.Stdout, "%-16s  %s\n", "Role", "Color")
	for _, s := range result.Palette {
		fmt.Fprintf(os.Stdout, "%-16s  %s\n", s.Role, s.Color.Hex())
	}
	if props, _ := cmd.Flags().GetBool("properties"); props {
		fmt.Fprintf(os.Stdout, "\n%-36s  %s\n", "Property", "Color")
		for _, b := range colors {
			fmt.Fprintf(os.Stdout, "%-36s  %s\n", b.Property, b.Value)
		}
	}
	if result.Fallback && useAI {
		fmt.Fprintln(os.Stdout, "\n(algorithmic palette: the AI backend was unavailable)")
	}
	return nil
}
