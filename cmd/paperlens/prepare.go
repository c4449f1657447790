// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [urls...]",
	Short: "Source papers and build their retrieval indices",
	Long: `Prepare resolves each paper's grounding text (direct PDF, open-access
fallback, or metadata only), chunks and embeds it, and persists the index.
Already-prepared papers are skipped. Papers whose full text cannot be
sourced are prepared in a degraded metadata-only mode, not failed.`,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringP("file", "f", "", "YAML file with paper references")

	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	refs, err := gatherRefs(file, args)
	if err != nil {
		return err
	}

	eng, err := buildEngines(engineConfig())
	if err != nil {
		return err
	}
	defer eng.close()

	summary, err := eng.answer.PrepareBatch(context.Background(), refs, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("prepared %d, degraded %d, failed %d\n", summary.Prepared, summary.Degraded, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d paper(s) failed preparation", summary.Failed)
	}
	return nil
}
