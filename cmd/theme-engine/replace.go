// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/replace"
)

var replaceCmd = &cobra.Command{
	Use:   "replace <export.xml> <transformation.json>",
	Short: "Apply a transformation to a WXR export",
	Long: `Replace substitutes the rewritten texts everywhere in the export and the
new colors inside every Elementor meta, preserving white backgrounds. The
transformation file may be the JSON written by transform or one of the
older formats (alternating text/color blocks, or a bare palette).`,
	Args: cobra.ExactArgs(2),
	RunE: runReplace,
}

func init() {
	replaceCmd.Flags().StringP("out", "o", "", "output export path (default output/<export name>)")
	replaceCmd.Flags().String("output-dir", "", "directory for the output export (default output)")

	rootCmd.AddCommand(replaceCmd)
}

func runReplace(cmd *cobra.Command, args []string) error {
	bindFlag(cmd, "output-dir", "replacement.output_dir")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join(cfg.Replacement.WithDefaults().OutputDir, filepath.Base(args[0]))
	}

	ctx, cancel := commandContext()
	defer cancel()

	stats, err := replace.ReplaceFile(ctx, args[0], args[1], out)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d text replacements, %d metas, %d color rules, %d white backgrounds kept)\n",
		out, stats.TextReplacements, stats.MetasProcessed, stats.ColorRules, stats.WhiteBackgrounds)
	return nil
}
