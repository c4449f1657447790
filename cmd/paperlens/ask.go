// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rohith-gande/PaperLens-updated/internal/answer"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about one paper",
	Long: `Ask answers a question grounded in a prepared paper's retrieved
passages. With --paper the paper is prepared first if needed; with --id
the paper must already be prepared (indices persist across runs).`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("paper", "", "paper URL (prepared on demand)")
	askCmd.Flags().String("id", "", "paper id of an already-prepared paper")
	askCmd.Flags().Bool("json", false, "emit the turn as JSON")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one question")
	}
	question := args[0]

	paperURL, _ := cmd.Flags().GetString("paper")
	paperID, _ := cmd.Flags().GetString("id")
	if (paperURL == "") == (paperID == "") {
		return fmt.Errorf("provide either --paper or --id")
	}

	eng, err := buildEngines(engineConfig())
	if err != nil {
		return err
	}
	defer eng.close()

	ctx := context.Background()
	if paperURL != "" {
		res, err := eng.answer.Prepare(ctx, types.PaperReference{SourceURL: paperURL})
		if err != nil {
			return err
		}
		paperID = res.PaperID
	}

	turn, err := eng.answer.Ask(ctx, paperID, question)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatTurn(turn, jsonOutput)
}

func formatTurn(turn answer.Turn, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(turn)
	}

	fmt.Println(turn.Answer)
	if turn.Citation != "" {
		fmt.Printf("\nSource: %s\n", turn.Citation)
	}
	fmt.Printf("Confidence: %d%% (%s)\n", turn.Confidence, turn.ConfidenceLabel)
	if turn.Disclaimer != "" {
		fmt.Printf("Note: %s\n", turn.Disclaimer)
	}
	return nil
}
