// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mapscout/internal/extract"
	"github.com/pdiddy/mapscout/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract place candidates from post text",
	Long: `Extract runs the place extraction model over the given text, as if it
were a post caption, and prints the candidates as JSON. Useful for tuning the
model and prompt without going through media resolution.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("account", "", "source account recorded in the prompt")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the post text to extract places from")
	}
	text := strings.Join(args, " ")
	account, _ := cmd.Flags().GetString("account")

	cfg := pipelineConfig()
	adapter := &extract.Adapter{
		Backend: &extract.OllamaBackend{
			Host:        cfg.Extraction.Host,
			Model:       cfg.Extraction.Model,
			Temperature: cfg.Extraction.Temperature,
		},
		MaxRetries: cfg.Extraction.MaxRetries,
	}

	result, err := adapter.Extract(cmd.Context(), types.AnalysisBundle{Transcript: text}, text, account)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
