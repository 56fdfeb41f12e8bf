// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mapscout/internal/analyze"
	"github.com/pdiddy/mapscout/internal/dedup"
	"github.com/pdiddy/mapscout/internal/extract"
	"github.com/pdiddy/mapscout/internal/maplist"
	"github.com/pdiddy/mapscout/internal/pipeline"
	"github.com/pdiddy/mapscout/internal/places"
	"github.com/pdiddy/mapscout/internal/resolve"
	"github.com/pdiddy/mapscout/internal/sheets"
	"github.com/pdiddy/mapscout/internal/store"
	"github.com/pdiddy/mapscout/internal/thread"
	"github.com/pdiddy/mapscout/pkg/types"
)

// registry lives for the process lifetime so repeated invocations within one
// run (tests, future server mode) deduplicate correctly.
var registry *dedup.Registry

var processCmd = &cobra.Command{
	Use:   "process [message text]",
	Short: "Run a message through the whole pipeline",
	Long: `Process takes a message containing a post link, resolves the media,
analyzes it, extracts the places mentioned, verifies them against the place
search service, and persists the results. The outcome for every place is
printed, including its map link and save status.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Int64("id", 0, "message identifier for deduplication (default: derived from time)")
	processCmd.Flags().String("session", "cli", "session identifier recorded with saved places")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide the message text containing a post link")
	}
	text := strings.Join(args, " ")

	id, _ := cmd.Flags().GetInt64("id")
	if id == 0 {
		id = time.Now().UnixNano()
	}
	session, _ := cmd.Flags().GetString("session")

	cfg := pipelineConfig()

	p, st, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	item := types.WorkItem{
		ID:         id,
		SessionID:  session,
		Text:       text,
		ReceivedAt: time.Now(),
	}

	results, err := p.Process(cmd.Context(), item, os.Stderr)
	if err != nil {
		var nf *pipeline.NotFoundError
		if errors.As(err, &nf) {
			fmt.Println("這則貼文似乎沒有提到任何地點。")
			if nf.Notes != "" {
				fmt.Println(nf.Notes)
			}
			return nil
		}
		var dup *pipeline.DuplicateError
		if errors.As(err, &dup) {
			fmt.Println("這則訊息已經處理過了。")
			return nil
		}
		return err
	}

	renderResults(results)
	return nil
}

// buildPipeline wires the real collaborators from the configuration. The
// returned store must be closed by the caller.
func buildPipeline(cfg types.PipelineConfig) (*pipeline.Pipeline, *store.Store, error) {
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	if registry == nil {
		registry = dedup.NewRegistry(cfg.Dedup.Capacity)
	}

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
	if v, err := resolve.NewYtdlpDownloader(cfg.Resolve.YtdlpPath, cfg.Resolve.TempDir, cfg.Resolve.CookiesFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, video posts will fail\n", err)
		resolver.Video = unavailableVideo{err}
	} else {
		resolver.Video = v
	}
	if g, err := resolve.NewGalleryDLDownloader(cfg.Resolve.GalleryDLPath, cfg.Resolve.TempDir, cfg.Resolve.CookiesFile, cfg.Resolve.MaxImages); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, image posts will fail\n", err)
		resolver.Post = unavailablePost{err}
	} else {
		resolver.Post = g
	}

	analyzer := &analyze.Aggregator{
		Transcriber: analyze.DisabledTranscriber{},
		Video:       analyze.DisabledDescriber{},
		Images:      analyze.DisabledDescriber{},
		MaxImages:   cfg.Analysis.MaxImages,
	}
	analysisClient := &http.Client{Timeout: cfg.Analysis.Timeout}
	if cfg.Analysis.SpeechServiceURL != "" {
		analyzer.Transcriber = &analyze.SpeechService{BaseURL: cfg.Analysis.SpeechServiceURL, Client: analysisClient}
	}
	if cfg.Analysis.VisionServiceURL != "" {
		vision := &analyze.VisionService{BaseURL: cfg.Analysis.VisionServiceURL, Client: analysisClient}
		analyzer.Video = vision
		analyzer.Images = vision
	}

	extractor := &extract.Adapter{
		Backend: &extract.OllamaBackend{
			Host:        cfg.Extraction.Host,
			Model:       cfg.Extraction.Model,
			Temperature: cfg.Extraction.Temperature,
		},
		MaxRetries: cfg.Extraction.MaxRetries,
	}

	var saver maplist.Saver = maplist.Disabled{}
	if cfg.Maplist.ServiceURL != "" {
		saver = &maplist.ServiceClient{
			BaseURL: cfg.Maplist.ServiceURL,
			Client:  &http.Client{Timeout: cfg.Maplist.Timeout},
		}
	}

	p := &pipeline.Pipeline{
		Registry:  registry,
		Resolver:  resolver,
		Analyzer:  analyzer,
		Extractor: extractor,
		Searcher:  places.NewClient(cfg.Places, nil),
		Syncer:    &sheets.WebhookSyncer{WebhookURL: cfg.Sheets.WebhookURL, Client: &http.Client{Timeout: cfg.Sheets.Timeout}},
		Saver:     saver,
		Store:     st,
		ListName:  cfg.Maplist.ListName,
	}
	return p, st, nil
}

// renderResults prints one block per place, mirroring what a chat reply
// would contain.
func renderResults(results []types.PersistedPlace) {
	fmt.Printf("找到 %d 個地點：\n", len(results))
	for i, r := range results {
		fmt.Printf("\n%d. %s", i+1, r.Candidate.Name)
		if r.Candidate.City != "" {
			fmt.Printf("（%s）", r.Candidate.City)
		}
		fmt.Println()

		if r.Match.Found {
			fmt.Printf("   地址: %s\n", r.Match.Address)
			if r.Match.Rating > 0 {
				fmt.Printf("   評分: %.1f (%d 則評論)\n", r.Match.Rating, r.Match.UserRatingCount)
			}
		} else if r.Match.ErrorMessage != "" {
			fmt.Printf("   搜尋失敗: %s\n", r.Match.ErrorMessage)
		} else {
			fmt.Println("   未能在地圖上確認，已標記為待確認")
		}
		if r.Candidate.Recommendation != "" {
			fmt.Printf("   推薦: %s\n", r.Candidate.Recommendation)
		}
		if r.Match.MapsURL != "" {
			fmt.Printf("   地圖: %s\n", r.Match.MapsURL)
		}

		switch r.SaveStatus {
		case types.SaveSaved:
			fmt.Println("   已加入地圖清單")
		case types.SaveAlready:
			fmt.Println("   已在地圖清單中")
		case types.SaveNotLoggedIn:
			fmt.Println("   地圖清單服務未登入，未加入")
		case types.SaveFailed:
			fmt.Println("   加入地圖清單失敗")
		}
		if r.Failure != "" {
			fmt.Printf("   儲存失敗: %s\n", r.Failure)
		}
	}
}

// unavailableVideo stands in for a missing yt-dlp binary.
type unavailableVideo struct{ err error }

func (u unavailableVideo) DownloadVideo(ctx context.Context, url string) (resolve.VideoDownload, error) {
	return resolve.VideoDownload{}, u.err
}

// unavailablePost stands in for a missing gallery-dl binary.
type unavailablePost struct{ err error }

func (u unavailablePost) DownloadPost(ctx context.Context, url string) (resolve.PostDownload, error) {
	return resolve.PostDownload{}, u.err
}
