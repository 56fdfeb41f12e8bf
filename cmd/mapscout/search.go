// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mapscout/internal/places"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the place service for a query",
	Long: `Search runs one text search against the place search service and prints
the match. Without a configured API key it prints the plain maps search URL
the pipeline would fall back to.`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	cfg := pipelineConfig()
	client := places.NewClient(cfg.Places, nil)

	match, err := client.SearchPlace(cmd.Context(), query)
	if err != nil {
		return err
	}

	if !match.Found {
		fmt.Println("no match found")
		fmt.Printf("search url: %s\n", match.MapsURL)
		return nil
	}

	fmt.Printf("name: %s\n", match.Name)
	fmt.Printf("address: %s\n", match.Address)
	fmt.Printf("place id: %s\n", match.PlaceID)
	fmt.Printf("location: %f,%f\n", match.Latitude, match.Longitude)
	if match.Rating > 0 {
		fmt.Printf("rating: %.1f (%d reviews)\n", match.Rating, match.UserRatingCount)
	}
	fmt.Printf("maps url: %s\n", match.MapsURL)
	return nil
}
