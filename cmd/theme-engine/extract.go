// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/extract"
	"github.com/pdiddy/theme-engine/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract [exports...]",
	Short: "Extract pages, sections, texts and colors from WXR exports",
	Long: `Extract reads WordPress WXR exports and writes one YAML result per export
to processing/extracted/: the theme record, every page with its category
and Elementor data, the top-level sections of each page, and the texts and
colors used as transformation input.

With --batch every *.xml in --input-dir is processed and exports older
than their result are skipped. With --persist the results are also stored.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("input-dir", "", "directory of WXR exports for --batch (default input)")
	extractCmd.Flags().String("processing-dir", "", "directory receiving extracted/ (default processing)")
	extractCmd.Flags().Bool("batch", false, "process every export in --input-dir")
	extractCmd.Flags().Bool("filter", false, "keep one page per base title before extracting")
	extractCmd.Flags().Bool("persist", false, "store each result in the theme store")
	storeFlags(extractCmd)

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	bindFlag(cmd, "input-dir", "extraction.input_dir")
	bindFlag(cmd, "processing-dir", "extraction.processing_dir")
	bindFlag(cmd, "filter", "extraction.filter_duplicates")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ecfg := cfg.Extraction.WithDefaults()
	batch, _ := cmd.Flags().GetBool("batch")
	persist, _ := cmd.Flags().GetBool("persist")

	ctx, cancel := commandContext()
	defer cancel()

	if batch {
		summary, err := extract.ExtractAll(ctx, ecfg, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("\nextracted: %d, skipped: %d, failed: %d\n", summary.Extracted, summary.Skipped, summary.Failed)
		if summary.HasFailures() {
			return fmt.Errorf("%d export(s) failed extraction", summary.Failed)
		}
		if persist {
			return ingest(cmd, filepath.Join(ecfg.ProcessingDir, "extracted"), ecfg.InputDir)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("provide one or more WXR exports, or use --batch")
	}

	var st store.Store
	if persist {
		st, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	outDir := filepath.Join(ecfg.ProcessingDir, "extracted")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	failed := 0
	for _, path := range args {
		res, err := extract.ExtractFile(ctx, path, ecfg.FilterDuplicates, extract.Options{})
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", path, err)
			failed++
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(outDir, name+".yaml")
		if err := extract.WriteResult(out, res); err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", path, err)
			failed++
			continue
		}
		if st != nil {
			if err := store.Persist(ctx, st, res); err != nil {
				fmt.Fprintf(os.Stdout, "failed  %s: %v\n", path, err)
				failed++
				continue
			}
		}
		fmt.Fprintf(os.Stdout, "extracted %s -> %s (theme %s, %d pages, %d sections, %d texts)\n",
			path, out, res.Theme.ID, len(res.Pages), len(res.Sections), len(res.Transformation.Texts))
	}
	if failed > 0 {
		return fmt.Errorf("%d export(s) failed extraction", failed)
	}
	return nil
}
