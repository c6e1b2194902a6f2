// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/extract"
	"github.com/pdiddy/theme-engine/internal/orchestrate"
	"github.com/pdiddy/theme-engine/internal/store"
	"github.com/pdiddy/theme-engine/internal/transform"
	"github.com/pdiddy/theme-engine/pkg/types"
)

var transformCmd = &cobra.Command{
	Use:   "transform [extracted.yaml]",
	Short: "Rewrite theme texts and colors in a style",
	Long: `Transform sends the texts and colors of an extraction result to the AI
backend and writes the rewritten pairs and color palette as JSON, the input
format of replace.

With --theme the input is the transformation data stored for that theme;
themes without stored data are sampled from their sections. Adding
--store-result runs the whole pipeline on the stored theme XML and stores
the outcome as a new theme.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().String("style", "", "style description")
	transformCmd.Flags().String("theme", "", "stored theme id to transform instead of a file")
	transformCmd.Flags().Bool("store-result", false, "with --theme, store the transformed theme as a new theme")
	transformCmd.Flags().StringP("out", "o", "", "output JSON path (default processing/transformed/<name>.json)")
	transformCmd.Flags().Bool("invalidate-cache", false, "drop cached AI replies for the style first")
	transformCmd.Flags().Int("batch-size", 0, "texts per AI call (default 5)")
	transformCmd.Flags().Bool("no-cache", false, "bypass cached AI replies")
	aiFlags(transformCmd)
	storeFlags(transformCmd)

	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	bindFlag(cmd, "batch-size", "transformation.batch_size")
	bindFlag(cmd, "no-cache", "transformation.disable_cache")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	themeID, _ := cmd.Flags().GetString("theme")
	storeResult, _ := cmd.Flags().GetBool("store-result")
	out, _ := cmd.Flags().GetString("out")

	if themeID == "" && len(args) == 0 {
		return fmt.Errorf("provide an extraction result or --theme")
	}

	ctx, cancel := commandContext()
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	t, err := newTransformer(ctx, cfg, st)
	if err != nil {
		return err
	}
	if invalidate, _ := cmd.Flags().GetBool("invalidate-cache"); invalidate {
		if err := t.InvalidateCache(ctx, style); err != nil {
			return err
		}
	}

	if themeID != "" && storeResult {
		o := &orchestrate.Orchestrator{
			Store:       st,
			Transformer: t,
			WorkDir:     cfg.Extraction.WithDefaults().ProcessingDir,
			OutputDir:   cfg.Replacement.WithDefaults().OutputDir,
		}
		res, err := o.TransformByID(ctx, themeID, style)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	var (
		data types.TransformationData
		name string
	)
	if themeID != "" {
		data, err = storedData(ctx, st, themeID)
		name = themeID
	} else {
		var res *types.ExtractionResult
		res, err = extract.ReadResult(args[0])
		if res != nil {
			data = res.Transformation
		}
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	if err != nil {
		return err
	}

	result, err := t.Transform(ctx, data, style)
	if err != nil {
		return err
	}

	if out == "" {
		out = filepath.Join(cfg.Extraction.WithDefaults().ProcessingDir, "transformed", name+".json")
	}
	if err := writeJSON(out, result); err != nil {
		return err
	}
	fmt.Printf("transformed %d texts and %d colors -> %s\n",
		len(result.TextTransformations), len(result.ColorPalette.NewColors), out)
	return nil
}

// storedData loads a theme's transformation data, sampling section texts
// when none is stored.
func storedData(ctx context.Context, st store.Store, themeID string) (types.TransformationData, error) {
	data, err := st.GetTransformationData(ctx, themeID)
	if err == nil {
		return *data, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.TransformationData{}, err
	}
	sections, err := st.ListSections(ctx, store.SectionFilter{ThemeID: themeID})
	if err != nil {
		return types.TransformationData{}, err
	}
	raw := make([]string, 0, len(sections))
	for _, s := range sections {
		raw = append(raw, s.Content)
	}
	return transform.FallbackData(themeID, raw, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))), nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
