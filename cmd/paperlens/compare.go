// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rohith-gande/PaperLens-updated/internal/compare"
)

var compareCmd = &cobra.Command{
	Use:   "compare [aspect]",
	Short: "Compare several papers on one aspect",
	Long: `Compare retrieves each paper's most relevant passages for the given
aspect and synthesizes a single structured comparison. At least two
distinct papers are required; papers without full text participate with
their title and abstract.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringP("file", "f", "", "YAML file with paper references")
	compareCmd.Flags().StringArray("paper", nil, "paper URL (repeatable)")
	compareCmd.Flags().Bool("json", false, "emit the comparison as JSON")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one comparison aspect")
	}
	aspect := args[0]

	file, _ := cmd.Flags().GetString("file")
	urls, _ := cmd.Flags().GetStringArray("paper")
	refs, err := gatherRefs(file, urls)
	if err != nil {
		return err
	}

	eng, err := buildEngines(engineConfig())
	if err != nil {
		return err
	}
	defer eng.close()

	result, err := eng.compare.Compare(context.Background(), refs, aspect)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatComparison(result, jsonOutput)
}

func formatComparison(result *compare.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Comparison)
	fmt.Printf("\nConfidence: %d%% (%s)\n", result.Confidence, result.ConfidenceLabel)
	fmt.Println("Papers analyzed:")
	for _, p := range result.Papers {
		note := ""
		if p.Degraded {
			note = " [metadata only]"
		}
		fmt.Printf("  %s %s%s\n", p.Citation, p.Title, note)
	}
	return nil
}
