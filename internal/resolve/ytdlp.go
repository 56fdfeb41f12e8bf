// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrPrivatePost is returned when the source account is private or the post
// requires a login the downloader does not have.
var ErrPrivatePost = errors.New("post is private or requires login")

// ErrUnavailablePost is returned when the post has been deleted or was never
// reachable.
var ErrUnavailablePost = errors.New("post is unavailable")

// YtdlpDownloader downloads videos through the yt-dlp command line tool. It
// fetches the video file, extracts the audio track, and recovers the title
// and description from the tool's JSON metadata dump.
type YtdlpDownloader struct {
	binary  string
	tempDir string
	cookies string
}

// NewYtdlpDownloader creates a downloader using the given yt-dlp binary
// (empty selects "yt-dlp" from PATH). It verifies the binary is resolvable
// before returning. cookiesFile is optional.
func NewYtdlpDownloader(binary, tempDir, cookiesFile string) (*YtdlpDownloader, error) {
	if binary == "" {
		binary = "yt-dlp"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found: %w", err)
	}
	return &YtdlpDownloader{binary: path, tempDir: tempDir, cookies: cookiesFile}, nil
}

// ytdlpMetadata is the subset of the -J dump the downloader cares about.
type ytdlpMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DownloadVideo fetches the video and its audio track into a fresh directory
// under the downloader's temp area.
func (d *YtdlpDownloader) DownloadVideo(ctx context.Context, url string) (VideoDownload, error) {
	dir := filepath.Join(d.tempDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return VideoDownload{}, fmt.Errorf("creating download directory: %w", err)
	}

	meta, err := d.metadata(ctx, url)
	if err != nil {
		return VideoDownload{}, err
	}

	videoPath, err := d.download(ctx, url, filepath.Join(dir, "video.%(ext)s"), nil,
		[]string{"mp4", "webm", "mkv"})
	if err != nil {
		return VideoDownload{}, fmt.Errorf("video download: %w", err)
	}

	audioPath, err := d.download(ctx, url, filepath.Join(dir, "audio.%(ext)s"),
		[]string{"-x", "--audio-format", "mp3"},
		[]string{"mp3", "m4a", "webm", "opus"})
	if err != nil {
		// The transcriber accepts video containers, so a failed audio
		// extraction falls back to the video file.
		audioPath = videoPath
	}

	return VideoDownload{
		VideoPath: videoPath,
		AudioPath: audioPath,
		Title:     meta.Title,
		Caption:   meta.Description,
	}, nil
}

// metadata runs yt-dlp -J and decodes the title and description.
func (d *YtdlpDownloader) metadata(ctx context.Context, url string) (ytdlpMetadata, error) {
	args := append(d.commonArgs(), "-J", url)
	cmd := exec.CommandContext(ctx, d.binary, args...)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return ytdlpMetadata{}, classifyToolError(errBuf.String(), fmt.Errorf("yt-dlp metadata: %w", err))
	}

	var meta ytdlpMetadata
	if err := json.Unmarshal(out.Bytes(), &meta); err != nil {
		return ytdlpMetadata{}, fmt.Errorf("decoding yt-dlp metadata: %w", err)
	}
	return meta, nil
}

// download runs yt-dlp with the output template and extra args, then locates
// the produced file by trying the expected extensions in order.
func (d *YtdlpDownloader) download(ctx context.Context, url, template string, extra, extensions []string) (string, error) {
	args := append(d.commonArgs(), "-o", template)
	args = append(args, extra...)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", classifyToolError(errBuf.String(), fmt.Errorf("yt-dlp: %w", err))
	}

	stem := strings.TrimSuffix(template, ".%(ext)s")
	for _, ext := range extensions {
		candidate := stem + "." + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("yt-dlp produced no file matching %s", stem)
}

func (d *YtdlpDownloader) commonArgs() []string {
	args := []string{"--no-playlist", "--quiet"}
	if d.cookies != "" {
		args = append(args, "--cookies", d.cookies)
	}
	return args
}

// classifyToolError maps well-known downloader failure messages to typed
// errors so the caller can word user-facing output accordingly.
func classifyToolError(stderr string, fallback error) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "private") || strings.Contains(lower, "login required") ||
		strings.Contains(lower, "rate-limit reached"):
		return ErrPrivatePost
	case strings.Contains(lower, "not available") || strings.Contains(lower, "unavailable") ||
		strings.Contains(lower, "404"):
		return ErrUnavailablePost
	default:
		return fallback
	}
}
