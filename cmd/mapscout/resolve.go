// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mapscout/internal/resolve"
	"github.com/pdiddy/mapscout/internal/thread"
	"github.com/pdiddy/mapscout/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [url]",
	Short: "Classify a post link and download its media",
	Long: `Resolve classifies a post link (reel, post, share, or thread), downloads
its media through the appropriate strategy chain, and prints the resulting
bundle. Downloaded files are kept so they can be inspected.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Bool("classify-only", false, "print the link classification without downloading")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one post URL")
	}

	link := resolve.Classify(args[0])
	fmt.Printf("kind: %s\n", link.Kind)
	if link.ShortCode != "" {
		fmt.Printf("short code: %s\n", link.ShortCode)
	}
	if link.Kind == types.LinkUnknown {
		return fmt.Errorf("unsupported link: %s", args[0])
	}

	classifyOnly, _ := cmd.Flags().GetBool("classify-only")
	if classifyOnly {
		return nil
	}

	cfg := pipelineConfig()
	httpClient := &http.Client{Timeout: cfg.Resolve.Timeout}

	resolver := &resolve.Resolver{
		Threads: &thread.Extractor{Client: httpClient},
		Fetcher: &resolve.MediaFetcher{
			Client:    httpClient,
			TempDir:   cfg.Resolve.TempDir,
			UserAgent: cfg.Resolve.UserAgent,
			MaxImages: cfg.Resolve.MaxImages,
		},
	}
	if v, err := resolve.NewYtdlpDownloader(cfg.Resolve.YtdlpPath, cfg.Resolve.TempDir, cfg.Resolve.CookiesFile); err == nil {
		resolver.Video = v
	} else {
		resolver.Video = unavailableVideo{err}
	}
	if g, err := resolve.NewGalleryDLDownloader(cfg.Resolve.GalleryDLPath, cfg.Resolve.TempDir, cfg.Resolve.CookiesFile, cfg.Resolve.MaxImages); err == nil {
		resolver.Post = g
	} else {
		resolver.Post = unavailablePost{err}
	}

	bundle, err := resolver.Resolve(cmd.Context(), link, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("bundle: %s\n", bundle.Kind)
	if bundle.Title != "" {
		fmt.Printf("source: %s\n", bundle.Title)
	}
	if bundle.VideoPath != "" {
		fmt.Printf("video: %s\n", bundle.VideoPath)
	}
	if bundle.AudioPath != "" && bundle.AudioPath != bundle.VideoPath {
		fmt.Printf("audio: %s\n", bundle.AudioPath)
	}
	for _, p := range bundle.ImagePaths {
		fmt.Printf("image: %s\n", p)
	}
	if bundle.Caption != "" {
		fmt.Printf("caption:\n%s\n", bundle.Caption)
	}
	return nil
}
