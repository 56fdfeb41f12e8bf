// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze turns a resolved media bundle into textual evidence for
// place extraction. Video bundles fan out to transcription and visual
// description concurrently; image bundles describe a bounded number of images
// and reuse the caption as the transcript.
package analyze

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/mapscout/pkg/types"
)

const defaultMaxImages = 5

// Transcriber produces a speech transcript from an audio or video file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// VideoDescriber summarizes what a video shows.
type VideoDescriber interface {
	DescribeVideo(ctx context.Context, videoPath string) (string, error)
}

// ImageDescriber summarizes what a set of images shows.
type ImageDescriber interface {
	DescribeImages(ctx context.Context, imagePaths []string) (string, error)
}

// Aggregator coordinates the analysis collaborators over one bundle.
type Aggregator struct {
	Transcriber Transcriber
	Video       VideoDescriber
	Images      ImageDescriber

	// MaxImages bounds how many images are described per bundle. Zero
	// selects the default (5).
	MaxImages int
}

// Analyze produces the evidence for one bundle. Collaborator failures are
// reported as warnings on w and degrade the corresponding field to empty;
// Analyze itself never fails, because extraction can proceed on the caption
// alone.
func (a *Aggregator) Analyze(ctx context.Context, bundle types.MediaBundle, w io.Writer) types.AnalysisBundle {
	if bundle.HasVideo() {
		return a.analyzeVideo(ctx, bundle, w)
	}
	if len(bundle.ImagePaths) > 0 {
		return a.analyzeImages(ctx, bundle, w)
	}
	// Text-only bundle: the caption is all the evidence there is.
	return types.AnalysisBundle{Transcript: bundle.Caption}
}

// analyzeVideo runs transcription and visual description concurrently and
// waits for both. The two collaborators are independent services, so a
// failure on one side never suppresses the other's result.
func (a *Aggregator) analyzeVideo(ctx context.Context, bundle types.MediaBundle, w io.Writer) types.AnalysisBundle {
	var (
		wg         sync.WaitGroup
		transcript string
		visual     string
	)

	audioPath := bundle.AudioPath
	if audioPath == "" {
		audioPath = bundle.VideoPath
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		text, err := a.Transcriber.Transcribe(ctx, audioPath)
		if err != nil {
			fmt.Fprintf(w, "warning: transcription failed: %v\n", err)
			return
		}
		transcript = text
	}()
	go func() {
		defer wg.Done()
		text, err := a.Video.DescribeVideo(ctx, bundle.VideoPath)
		if err != nil {
			fmt.Fprintf(w, "warning: visual description failed: %v\n", err)
			return
		}
		visual = text
	}()
	wg.Wait()

	return types.AnalysisBundle{Transcript: transcript, VisualDescription: visual}
}

// analyzeImages describes the first MaxImages images and reuses the caption
// as the transcript. The visual description is labeled so the extraction
// prompt can tell caption text and image content apart.
func (a *Aggregator) analyzeImages(ctx context.Context, bundle types.MediaBundle, w io.Writer) types.AnalysisBundle {
	limit := a.MaxImages
	if limit <= 0 {
		limit = defaultMaxImages
	}
	paths := bundle.ImagePaths
	if len(paths) > limit {
		paths = paths[:limit]
	}

	result := types.AnalysisBundle{Transcript: bundle.Caption}

	desc, err := a.Images.DescribeImages(ctx, paths)
	if err != nil {
		fmt.Fprintf(w, "warning: image description failed: %v\n", err)
		return result
	}

	if bundle.Caption != "" {
		result.VisualDescription = fmt.Sprintf("【貼文說明】\n%s\n\n【圖片內容】\n%s", bundle.Caption, desc)
	} else {
		result.VisualDescription = desc
	}
	return result
}
