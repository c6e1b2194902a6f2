// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the theme store (ingest, themes, sections)",
	Long: `Store manages the theme store: a local SQLite database or a Postgres
(Supabase) database holding themes, pages, sections, transformation data
and cached AI replies. Use subcommands to ingest extraction results or
list what is stored.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load extraction results into the theme store",
	Long: `Ingest reads extraction YAML files from processing/extracted/ and stores
each theme with its pages, sections and transformation data. Themes that
are already stored are skipped. When the source export is still in
--input-dir its XML is stored as the theme content.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("extracted-dir")
		input, _ := cmd.Flags().GetString("input-dir")
		return ingest(cmd, dir, input)
	},
}

func ingest(cmd *cobra.Command, extractedDir, inputDir string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if extractedDir == "" {
		extractedDir = filepath.Join(cfg.Extraction.WithDefaults().ProcessingDir, "extracted")
	}
	if inputDir == "" {
		inputDir = cfg.Extraction.WithDefaults().InputDir
	}

	ctx, cancel := commandContext()
	defer cancel()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := store.Ingest(ctx, st, extractedDir, inputDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d result(s) failed ingest", summary.Failed)
	}
	return nil
}

// --- themes subcommand ---

var storeThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List stored themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		themes, err := st.ListThemes(ctx)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(themes)
		}
		if len(themes) == 0 {
			fmt.Println("No themes stored.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-36s  %-30s  %-8s  %s\n", "ID", "Title", "Status", "Created")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, t := range themes {
			fmt.Fprintf(os.Stdout, "%-36s  %-30s  %-8s  %s\n",
				t.ID, truncate(t.Title, 30), t.Status, t.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(os.Stdout, "\n%d themes\n", len(themes))
		return nil
	},
}

// --- sections subcommand ---

var storeSectionsCmd = &cobra.Command{
	Use:   "sections [query]",
	Short: "List stored sections with filters and full-text search",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		f := store.SectionFilter{}
		f.ThemeID, _ = cmd.Flags().GetString("theme")
		f.PageID, _ = cmd.Flags().GetString("page")
		f.Category, _ = cmd.Flags().GetString("category")
		f.Limit, _ = cmd.Flags().GetInt("max-results")
		if len(args) > 0 {
			f.Query = args[0]
		}

		ctx, cancel := commandContext()
		defer cancel()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		sections, err := st.ListSections(ctx, f)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(sections)
		}
		if len(sections) == 0 {
			fmt.Println("No sections found.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-36s  %-14s  %-36s  %s\n", "ID", "Category", "Theme", "Content")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 130))
		for _, s := range sections {
			fmt.Fprintf(os.Stdout, "%-36s  %-14s  %-36s  %s\n",
				s.ID, s.Category, s.ThemeID, truncate(s.Content, 40))
		}
		fmt.Fprintf(os.Stdout, "\n%d sections\n", len(sections))
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	for _, c := range []*cobra.Command{storeIngestCmd, storeThemesCmd, storeSectionsCmd} {
		storeFlags(c)
	}

	storeIngestCmd.Flags().String("extracted-dir", "", "directory of extraction results (default processing/extracted)")
	storeIngestCmd.Flags().String("input-dir", "", "directory of source exports (default input)")

	storeThemesCmd.Flags().Bool("json", false, "output as JSON")

	storeSectionsCmd.Flags().String("theme", "", "filter by theme id")
	storeSectionsCmd.Flags().String("page", "", "filter by page id")
	storeSectionsCmd.Flags().String("category", "", "filter by section category")
	storeSectionsCmd.Flags().Int("max-results", 20, "maximum number of sections")
	storeSectionsCmd.Flags().Bool("json", false, "output as JSON")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeThemesCmd)
	storeCmd.AddCommand(storeSectionsCmd)
	rootCmd.AddCommand(storeCmd)
}
