// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/images"
	"github.com/pdiddy/theme-engine/internal/wxr"
)

var imagesCmd = &cobra.Command{
	Use:   "images <export.xml>",
	Short: "Replace the photos of an export with Unsplash photos",
	Long: `Images asks the AI backend for search keywords for every image widget and
background image, finds a matching Unsplash photo and writes the export
with the new URLs. Without an AI key the keywords are built from the style
and the image context.`,
	Args: cobra.ExactArgs(1),
	RunE: runImages,
}

func init() {
	imagesCmd.Flags().String("style", "", "style or business description guiding the photo search")
	imagesCmd.Flags().StringP("out", "o", "", "output export path (default output/<export name>)")
	aiFlags(imagesCmd)

	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join(cfg.Replacement.WithDefaults().OutputDir, filepath.Base(args[0]))
	}

	ctx, cancel := commandContext()
	defer cancel()

	photos, err := images.NewUnsplash(cfg.Images)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg, true)
	if err != nil {
		return err
	}

	doc, err := wxr.ReadFile(args[0])
	if err != nil {
		return err
	}
	stats, err := (&images.Replacer{Client: client, Photos: photos}).ReplaceInDocument(ctx, doc, style)
	if err != nil {
		return err
	}
	if err := doc.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d images, %d backgrounds, %d not found)\n", out, stats.Images, stats.Backgrounds, stats.Failed)
	return nil
}
