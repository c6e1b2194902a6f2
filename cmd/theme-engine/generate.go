// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/generate"
	"github.com/pdiddy/theme-engine/internal/orchestrate"
	"github.com/pdiddy/theme-engine/internal/palette"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Assemble new sites from stored sections and pages",
	Long: `Generate builds a new WXR export from what is in the theme store. The
query names the sections or pages wanted ("hero, about and contact",
"5 sections", "home, services and contact pages"); missing categories fall
back to keyword and generic matches.`,
}

var generateOnePageCmd = &cobra.Command{
	Use:   "onepage <query>",
	Short: "Generate a one-page site from stored sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args[0], func(o *orchestrate.Orchestrator) siteFunc { return o.GenerateOnePage })
	},
}

var generateMultiPageCmd = &cobra.Command{
	Use:   "multipage <query>",
	Short: "Generate a multi-page site from stored pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args[0], func(o *orchestrate.Orchestrator) siteFunc { return o.GenerateMultiPage })
	},
}

type siteFunc func(ctx context.Context, jobID, query, style string) (string, error)

func init() {
	for _, c := range []*cobra.Command{generateOnePageCmd, generateMultiPageCmd} {
		c.Flags().String("style", "", "style description applied to the generated site")
		c.Flags().String("output-dir", "", "directory for the generated export (default output)")
		c.Flags().String("base-url", "", "site URL written into the export (default https://example.com)")
		c.Flags().Int64("seed", 0, "seed for reproducible selection")
		c.Flags().Bool("rewrite", false, "rewrite the copy for the query and style with the AI backend")
		c.Flags().Bool("images", false, "replace photos with Unsplash results")
		storeFlags(c)
		aiFlags(c)
		generateCmd.AddCommand(c)
	}
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, query string, pick func(*orchestrate.Orchestrator) siteFunc) error {
	bindFlag(cmd, "output-dir", "generation.output_dir")
	bindFlag(cmd, "base-url", "generation.base_url")
	bindFlag(cmd, "seed", "generation.seed")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	rewrite, _ := cmd.Flags().GetBool("rewrite")
	withImages, _ := cmd.Flags().GetBool("images")

	ctx, cancel := commandContext()
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := newClient(ctx, cfg, !rewrite)
	if err != nil {
		return err
	}

	gcfg := cfg.Generation.WithDefaults()
	o := &orchestrate.Orchestrator{
		Store:     st,
		Generator: generate.New(st, gcfg),
		Palette:   &palette.Generator{Client: client},
		WorkDir:   cfg.Extraction.WithDefaults().ProcessingDir,
		OutputDir: gcfg.OutputDir,
	}
	if rewrite {
		o.Transformer, err = newTransformer(ctx, cfg, st)
		if err != nil {
			return err
		}
	}
	if withImages {
		o.Images = newImageReplacer(ctx, cfg, client)
	}

	out, err := pick(o)(ctx, uuid.NewString(), query, style)
	if err != nil {
		return err
	}
	fmt.Printf("generated %s\n", out)
	return nil
}
