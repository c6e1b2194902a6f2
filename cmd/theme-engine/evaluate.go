// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/theme-engine/internal/evaluate"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <theme-id>",
	Short: "Re-categorize a theme's sections with the AI backend",
	Long: `Evaluate sends every stored section of a theme to the AI backend and
updates its category when the answer differs. Sections categorized as main
are reported but left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().Bool("json", false, "output the report as JSON")
	storeFlags(evaluateCmd)
	aiFlags(evaluateCmd)

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
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

	client, err := newClient(ctx, cfg, false)
	if err != nil {
		return err
	}

	report, err := (&evaluate.Evaluator{Store: st, Client: client}).EvaluateTheme(ctx, args[0])
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(report)
	}

	for _, r := range report.Results {
		switch {
		case r.Error != "":
			fmt.Fprintf(os.Stdout, "failed   %s: %s\n", r.SectionID, r.Error)
		case r.SkippedMain:
			fmt.Fprintf(os.Stdout, "kept     %s: main\n", r.SectionID)
		case r.Updated:
			fmt.Fprintf(os.Stdout, "updated  %s: %s -> %s\n", r.SectionID, r.OldCategory, r.NewCategory)
		default:
			fmt.Fprintf(os.Stdout, "same     %s: %s\n", r.SectionID, r.OldCategory)
		}
	}
	fmt.Fprintf(os.Stdout, "\nsections: %d, evaluated: %d, updated: %d\n", report.Total, report.Evaluated, report.Updated)
	return nil
}
