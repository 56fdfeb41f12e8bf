// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// GalleryDLDownloader downloads image posts through the gallery-dl command
// line tool. When the downloaded artifacts turn out to be video files it
// reports ErrVideoPost so the resolver can switch strategies.
type GalleryDLDownloader struct {
	binary    string
	tempDir   string
	cookies   string
	maxImages int
}

// NewGalleryDLDownloader creates a downloader using the given gallery-dl
// binary (empty selects "gallery-dl" from PATH). It verifies the binary is
// resolvable before returning.
func NewGalleryDLDownloader(binary, tempDir, cookiesFile string, maxImages int) (*GalleryDLDownloader, error) {
	if binary == "" {
		binary = "gallery-dl"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("gallery-dl not found: %w", err)
	}
	if maxImages <= 0 {
		maxImages = defaultMaxImages
	}
	return &GalleryDLDownloader{binary: path, tempDir: tempDir, cookies: cookiesFile, maxImages: maxImages}, nil
}

// DownloadPost fetches the images of a post into a fresh directory under the
// downloader's temp area and recovers the caption from the metadata dump.
func (d *GalleryDLDownloader) DownloadPost(ctx context.Context, url string) (PostDownload, error) {
	dir := filepath.Join(d.tempDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return PostDownload{}, fmt.Errorf("creating download directory: %w", err)
	}

	args := []string{"--quiet", "-D", dir}
	if d.cookies != "" {
		args = append(args, "--cookies", d.cookies)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return PostDownload{}, classifyToolError(errBuf.String(), fmt.Errorf("gallery-dl: %w", err))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return PostDownload{}, fmt.Errorf("reading download directory: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp4", ".webm", ".mkv":
			// The post carries video, not images. Hand it back to the
			// resolver for the video path.
			return PostDownload{}, ErrVideoPost
		case ".jpg", ".jpeg", ".png", ".webp":
			images = append(images, path)
		}
	}
	if len(images) == 0 {
		return PostDownload{}, fmt.Errorf("gallery-dl produced no images for %s", url)
	}

	sort.Strings(images)
	if len(images) > d.maxImages {
		images = images[:d.maxImages]
	}

	caption, title := d.caption(ctx, url)

	return PostDownload{
		Carousel:   len(images) > 1,
		ImagePaths: images,
		Caption:    caption,
		Title:      title,
	}, nil
}

// galleryDLMetadata is the subset of the -j dump the downloader cares about.
type galleryDLMetadata struct {
	Description string `json:"description"`
	Fullname    string `json:"fullname"`
	Username    string `json:"username"`
}

// caption runs gallery-dl -j for the post metadata. Failures are tolerated:
// the images alone are still a usable bundle.
func (d *GalleryDLDownloader) caption(ctx context.Context, url string) (caption, title string) {
	args := []string{"-j"}
	if d.cookies != "" {
		args = append(args, "--cookies", d.cookies)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", ""
	}

	// The dump is a list of [code, metadata] entries; scan for the first
	// entry carrying a description.
	var entries []json.RawMessage
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		return "", ""
	}
	for _, raw := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 {
			continue
		}
		var meta galleryDLMetadata
		if err := json.Unmarshal(pair[1], &meta); err != nil {
			continue
		}
		if meta.Description != "" {
			title = meta.Fullname
			if title == "" {
				title = meta.Username
			}
			return meta.Description, title
		}
	}
	return "", ""
}
