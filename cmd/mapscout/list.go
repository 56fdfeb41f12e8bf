// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mapscout/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recently saved places",
	RunE:  runList,
}

func init() {
	listCmd.Flags().String("session", "", "only show places from this session")
	listCmd.Flags().Int("limit", 0, "maximum number of places to show (default 10)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	session, _ := cmd.Flags().GetString("session")
	limit, _ := cmd.Flags().GetInt("limit")

	placeList, err := st.Recent(cmd.Context(), session, limit)
	if err != nil {
		return err
	}
	if len(placeList) == 0 {
		fmt.Println("no saved places yet")
		return nil
	}

	for _, p := range placeList {
		fmt.Printf("%d. %s", p.RowID, p.Name)
		if p.City != "" {
			fmt.Printf("（%s）", p.City)
		}
		fmt.Printf(" [%s]\n", p.Status)
		if p.Address != "" {
			fmt.Printf("   %s\n", p.Address)
		}
		if p.MapsURL != "" {
			fmt.Printf("   %s\n", p.MapsURL)
		}
	}
	return nil
}
