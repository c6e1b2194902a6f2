// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Indexed int
	Skipped int
	Failed  int
}

// Total returns the number of results processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Skipped + s.Failed
}

// Ingest loads every extraction result in extractedDir into s. Themes that
// already exist are skipped. When inputDir holds the export a result came
// from (same base name, .xml), its XML is stored as the theme content.
func Ingest(ctx context.Context, s Store, extractedDir, inputDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(extractedDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading extraction directory %s: %w", extractedDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		data, err := os.ReadFile(filepath.Join(extractedDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var result types.ExtractionResult
		if err := yaml.Unmarshal(data, &result); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}

		_, err = s.GetTheme(ctx, result.Theme.ID)
		if err == nil {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if inputDir != "" {
			if xml, err := os.ReadFile(filepath.Join(inputDir, name+".xml")); err == nil {
				result.Theme.Content = string(xml)
			}
		}

		if err := Persist(ctx, s, &result); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "indexing %s (%d pages, %d sections)\n", name, len(result.Pages), len(result.Sections))
		summary.Indexed++
	}

	fmt.Fprintf(w, "\nindexed: %d, skipped: %d, failed: %d\n", summary.Indexed, summary.Skipped, summary.Failed)
	return summary, nil
}
