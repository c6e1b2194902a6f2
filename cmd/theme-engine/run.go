// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/jobs"
	"github.com/pdiddy/theme-engine/internal/orchestrate"
	"github.com/pdiddy/theme-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <export.xml|dir>...",
	Short: "Extract, transform and replace exports as background jobs",
	Long: `Run submits one job per export (or per *.xml in a directory). Each job
extracts and stores the theme, rewrites its texts and colors in --style and
writes output/<job id>.xml. The final status of every job is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("style", "", "style description")
	runCmd.Flags().Bool("skip-theme-creation", false, "do not store the theme, only transform it")
	runCmd.Flags().Bool("filter", false, "keep one page per base title before extracting")
	runCmd.Flags().Int("workers", 0, "concurrent jobs (default 2)")
	runCmd.Flags().String("output-dir", "", "directory for transformed exports (default output)")
	storeFlags(runCmd)
	aiFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	bindFlag(cmd, "workers", "jobs.workers")
	bindFlag(cmd, "filter", "extraction.filter_duplicates")
	bindFlag(cmd, "output-dir", "replacement.output_dir")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	style, _ := cmd.Flags().GetString("style")
	skip, _ := cmd.Flags().GetBool("skip-theme-creation")

	var inputs []string
	for _, arg := range args {
		found, err := orchestrate.Inputs(arg)
		if err != nil {
			return err
		}
		inputs = append(inputs, found...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no *.xml exports found in %s", strings.Join(args, ", "))
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

	manager := jobs.NewManager(ctx, cfg.Jobs)
	defer manager.Close()

	o := &orchestrate.Orchestrator{
		Store:       st,
		Transformer: t,
		Jobs:        manager,
		WorkDir:     cfg.Extraction.WithDefaults().ProcessingDir,
		OutputDir:   cfg.Replacement.WithDefaults().OutputDir,
		FilterPages: cfg.Extraction.FilterDuplicates,
	}
	done, err := o.RunAll(ctx, inputs, style, skip)
	if err != nil {
		return err
	}

	failed := printJobs(inputs, done)
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}

func printJobs(inputs []string, done []types.Job) int {
	fmt.Fprintf(os.Stdout, "%-36s  %-10s  %-24s  %s\n", "Job", "Status", "Input", "Output / Error")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	failed := 0
	for i, job := range done {
		detail := job.OutputPath
		if job.Status == types.JobFailed {
			detail = job.Error
			failed++
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-10s  %-24s  %s\n",
			job.ID, job.Status, truncate(filepath.Base(inputs[i]), 24), detail)
	}
	return failed
}
