// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrAnalysisDisabled is returned by the disabled collaborator stand-ins.
var ErrAnalysisDisabled = errors.New("analysis service not configured")

// SpeechService is an HTTP client for the transcription collaborator.
type SpeechService struct {
	BaseURL string
	Client  *http.Client
}

type transcribeRequest struct {
	AudioPath string `json:"audio_path"`
}

type transcribeResponse struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Transcribe sends the audio path to the speech service and returns the
// transcript text.
func (s *SpeechService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	var resp transcribeResponse
	if err := postJSON(ctx, s.Client, s.BaseURL+"/transcribe", transcribeRequest{AudioPath: audioPath}, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("speech service: %s", resp.Error)
	}
	return resp.Text, nil
}

// VisionService is an HTTP client for the visual description collaborator.
// It serves both video summaries and image summaries.
type VisionService struct {
	BaseURL string
	Client  *http.Client
}

type describeRequest struct {
	VideoPath  string   `json:"video_path,omitempty"`
	ImagePaths []string `json:"image_paths,omitempty"`
}

type describeResponse struct {
	OK      bool   `json:"ok"`
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// DescribeVideo asks the vision service for a summary of the video frames.
func (s *VisionService) DescribeVideo(ctx context.Context, videoPath string) (string, error) {
	var resp describeResponse
	if err := postJSON(ctx, s.Client, s.BaseURL+"/describe", describeRequest{VideoPath: videoPath}, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("vision service: %s", resp.Error)
	}
	return resp.Summary, nil
}

// DescribeImages asks the vision service for a combined summary of the images.
func (s *VisionService) DescribeImages(ctx context.Context, imagePaths []string) (string, error) {
	var resp describeResponse
	if err := postJSON(ctx, s.Client, s.BaseURL+"/describe", describeRequest{ImagePaths: imagePaths}, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("vision service: %s", resp.Error)
	}
	return resp.Summary, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// DisabledTranscriber satisfies Transcriber when no speech service is
// configured.
type DisabledTranscriber struct{}

func (DisabledTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return "", ErrAnalysisDisabled
}

// DisabledDescriber satisfies VideoDescriber and ImageDescriber when no
// vision service is configured.
type DisabledDescriber struct{}

func (DisabledDescriber) DescribeVideo(ctx context.Context, videoPath string) (string, error) {
	return "", ErrAnalysisDisabled
}

func (DisabledDescriber) DescribeImages(ctx context.Context, imagePaths []string) (string, error) {
	return "", ErrAnalysisDisabled
}
