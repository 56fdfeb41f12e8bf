// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultMaxImages = 10

// MediaFetcher downloads CDN media referenced by extracted thread content
// into a per-call temporary directory under TempDir.
type MediaFetcher struct {
	Client  *http.Client
	TempDir string

	// UserAgent is sent with CDN requests when set.
	UserAgent string

	// MaxImages bounds the images fetched per call. Zero selects the
	// default (10).
	MaxImages int
}

// FetchImages downloads up to MaxImages of the given URLs and returns the
// local paths, in input order. Individual failures are reported as warnings
// on w and skipped; the caller decides whether an empty result is fatal.
func (f *MediaFetcher) FetchImages(ctx context.Context, urls []string, w io.Writer) []string {
	limit := f.MaxImages
	if limit <= 0 {
		limit = defaultMaxImages
	}
	if len(urls) > limit {
		urls = urls[:limit]
	}

	dir, err := f.workDir()
	if err != nil {
		fmt.Fprintf(w, "warning: creating media directory: %v\n", err)
		return nil
	}

	var paths []string
	for i, u := range urls {
		path, err := f.fetchOne(ctx, u, dir, fmt.Sprintf("image_%02d", i+1))
		if err != nil {
			fmt.Fprintf(w, "warning: image download failed: %v\n", err)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

// FetchVideo downloads a single video URL and returns the local path.
func (f *MediaFetcher) FetchVideo(ctx context.Context, url string) (string, error) {
	dir, err := f.workDir()
	if err != nil {
		return "", fmt.Errorf("creating media directory: %w", err)
	}
	return f.fetchOne(ctx, url, dir, "video")
}

func (f *MediaFetcher) workDir() (string, error) {
	dir := filepath.Join(f.TempDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (f *MediaFetcher) fetchOne(ctx context.Context, url, dir, stem string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	path := filepath.Join(dir, stem+extensionFor(resp.Header.Get("Content-Type")))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// extensionFor sniffs a file extension from the response content type.
// Unrecognized types default to .jpg for the image CDN case.
func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "mp4"), strings.Contains(contentType, "video"):
		return ".mp4"
	default:
		return ".jpg"
	}
}

// CleanupBundle removes the media artifacts of a bundle along with their
// per-call directories. Missing files are ignored.
func CleanupBundle(paths ...string) {
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		os.Remove(p)
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		// Succeeds only when the directory is empty.
		os.Remove(dir)
	}
}
