// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/mapscout/pkg/types"
)

type stubTranscriber struct {
	text  string
	err   error
	delay time.Duration
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	time.Sleep(s.delay)
	return s.text, s.err
}

type stubDescriber struct {
	text string
	err  error
	got  []string
}

func (s *stubDescriber) DescribeVideo(ctx context.Context, videoPath string) (string, error) {
	return s.text, s.err
}

func (s *stubDescriber) DescribeImages(ctx context.Context, imagePaths []string) (string, error) {
	s.got = imagePaths
	return s.text, s.err
}

func TestAnalyzeVideoMergesBothResults(t *testing.T) {
	a := &Aggregator{
		Transcriber: &stubTranscriber{text: "歡迎來到這家拉麵店", delay: 10 * time.Millisecond},
		Video:       &stubDescriber{text: "a bowl of ramen on a wooden table"},
	}

	got := a.Analyze(context.Background(), types.MediaBundle{
		Kind:      types.BundleVideo,
		VideoPath: "/tmp/v.mp4",
		AudioPath: "/tmp/a.mp3",
	}, io.Discard)

	if got.Transcript != "歡迎來到這家拉麵店" {
		t.Errorf("Transcript = %q", got.Transcript)
	}
	if got.VisualDescription != "a bowl of ramen on a wooden table" {
		t.Errorf("VisualDescription = %q", got.VisualDescription)
	}
}

func TestAnalyzeVideoPartialFailure(t *testing.T) {
	var buf bytes.Buffer
	a := &Aggregator{
		Transcriber: &stubTranscriber{err: errors.New("service down")},
		Video:       &stubDescriber{text: "street food stalls at night"},
	}

	got := a.Analyze(context.Background(), types.MediaBundle{
		Kind:      types.BundleVideo,
		VideoPath: "/tmp/v.mp4",
	}, &buf)

	if got.Transcript != "" {
		t.Errorf("Transcript = %q, want empty on failure", got.Transcript)
	}
	if got.VisualDescription != "street food stalls at night" {
		t.Errorf("VisualDescription = %q", got.VisualDescription)
	}
	if !strings.Contains(buf.String(), "warning: transcription failed") {
		t.Errorf("progress output %q missing warning", buf.String())
	}
	if got.Empty() {
		t.Error("bundle with a visual description reported empty")
	}
}

func TestAnalyzeImagesLabelsCaption(t *testing.T) {
	a := &Aggregator{Images: &stubDescriber{text: "a storefront with a red sign"}}

	got := a.Analyze(context.Background(), types.MediaBundle{
		Kind:       types.BundleImage,
		ImagePaths: []string{"/tmp/1.jpg"},
		Caption:    "好吃的拉麵店 in 台北",
	}, io.Discard)

	if got.Transcript != "好吃的拉麵店 in 台北" {
		t.Errorf("Transcript = %q, want the caption", got.Transcript)
	}
	if !strings.Contains(got.VisualDescription, "【貼文說明】") ||
		!strings.Contains(got.VisualDescription, "【圖片內容】") {
		t.Errorf("VisualDescription %q missing labeled sections", got.VisualDescription)
	}
	if !strings.Contains(got.VisualDescription, "a storefront with a red sign") {
		t.Errorf("VisualDescription %q missing image summary", got.VisualDescription)
	}
}

func TestAnalyzeImagesBoundsCount(t *testing.T) {
	describer := &stubDescriber{text: "photos"}
	a := &Aggregator{Images: describer, MaxImages: 5}

	paths := []string{"/1.jpg", "/2.jpg", "/3.jpg", "/4.jpg", "/5.jpg", "/6.jpg", "/7.jpg"}
	a.Analyze(context.Background(), types.MediaBundle{
		Kind:       types.BundleCarousel,
		ImagePaths: paths,
	}, io.Discard)

	if len(describer.got) != 5 {
		t.Fatalf("described %d images, want 5", len(describer.got))
	}
}

func TestAnalyzeImagesFailureKeepsCaption(t *testing.T) {
	var buf bytes.Buffer
	a := &Aggregator{Images: &stubDescriber{err: errors.New("vision down")}}

	got := a.Analyze(context.Background(), types.MediaBundle{
		Kind:       types.BundleImage,
		ImagePaths: []string{"/tmp/1.jpg"},
		Caption:    "some caption",
	}, &buf)

	if got.Transcript != "some caption" {
		t.Errorf("Transcript = %q, want caption preserved", got.Transcript)
	}
	if got.VisualDescription != "" {
		t.Errorf("VisualDescription = %q, want empty", got.VisualDescription)
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Error("missing warning output")
	}
}

func TestAnalyzeTextOnly(t *testing.T) {
	a := &Aggregator{}

	got := a.Analyze(context.Background(), types.MediaBundle{
		Kind:    types.BundleTextOnly,
		Caption: "隱藏版牛肉麵在台北東區",
	}, io.Discard)

	if got.Transcript != "隱藏版牛肉麵在台北東區" {
		t.Errorf("Transcript = %q", got.Transcript)
	}
	if got.VisualDescription != "" {
		t.Errorf("VisualDescription = %q, want empty", got.VisualDescription)
	}
}
