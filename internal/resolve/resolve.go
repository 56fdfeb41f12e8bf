// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve classifies submitted links and turns them into local media
// bundles, driving a fallback chain across download strategies: video
// download, image-post download, and structured thread extraction.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/pdiddy/mapscout/internal/thread"
	"github.com/pdiddy/mapscout/pkg/types"
)

// Ordered classification patterns. Reel patterns are checked before post
// patterns so /reel/ and /reels/ links never classify as plain posts.
var (
	reelPattern = regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/(?:reel|reels|tv)/([A-Za-z0-9_-]+)`)
	postPattern = regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/p/([A-Za-z0-9_-]+)`)

	sharePattern = regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/share/([A-Za-z0-9_-]+)`)

	// Thread links live on threads.net or threads.com, either under a
	// handle or as a short /t/ form.
	threadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^https?://(?:www\.)?threads\.(?:net|com)/@[\w.]+/post/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`^https?://(?:www\.)?threads\.(?:net|com)/t/([A-Za-z0-9_-]+)`),
	}
)

// linkSearchPatterns locate a supported link inside free message text.
var linkSearchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://(?:www\.)?instagram\.com/(?:reel|reels|p|tv)/[A-Za-z0-9_-]+`),
	regexp.MustCompile(`https?://(?:www\.)?instagram\.com/share/[A-Za-z0-9_-]+`),
	regexp.MustCompile(`https?://(?:www\.)?threads\.(?:net|com)/@[\w.]+/post/[A-Za-z0-9_-]+`),
	regexp.MustCompile(`https?://(?:www\.)?threads\.(?:net|com)/t/[A-Za-z0-9_-]+`),
}

// Classify determines the link kind and captures the post short code.
// It is a pure function: first matching pattern wins, no match means Unknown.
func Classify(rawURL string) types.SourceLink {
	link := types.SourceLink{URL: rawURL, Kind: types.LinkUnknown}

	if m := reelPattern.FindStringSubmatch(rawURL); m != nil {
		link.Kind = types.LinkReel
		link.ShortCode = m[1]
		return link
	}
	if m := postPattern.FindStringSubmatch(rawURL); m != nil {
		link.Kind = types.LinkPost
		link.ShortCode = m[1]
		return link
	}
	if m := sharePattern.FindStringSubmatch(rawURL); m != nil {
		link.Kind = types.LinkShare
		link.ShortCode = m[1]
		return link
	}
	for _, p := range threadPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			link.Kind = types.LinkThread
			link.ShortCode = m[1]
			return link
		}
	}
	return link
}

// ExtractLink finds the first supported link inside free message text.
func ExtractLink(text string) (string, bool) {
	for _, p := range linkSearchPatterns {
		if m := p.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

// VideoDownload is the outcome of a successful video download.
type VideoDownload struct {
	VideoPath string
	AudioPath string
	Title     string
	Caption   string
}

// PostDownload is the outcome of a successful image-post download.
type PostDownload struct {
	// Carousel reports whether the post carried more than one image.
	Carousel   bool
	ImagePaths []string
	Caption    string
	Title      string
}

// ErrVideoPost is returned by a PostDownloader when the post turns out to be
// a video; the resolver switches to the video path on seeing it.
var ErrVideoPost = errors.New("post is a video")

// VideoDownloader downloads a video post and extracts its audio track.
type VideoDownloader interface {
	DownloadVideo(ctx context.Context, url string) (VideoDownload, error)
}

// PostDownloader downloads the images and caption of an image post.
type PostDownloader interface {
	DownloadPost(ctx context.Context, url string) (PostDownload, error)
}

// ThreadExtractor recovers structured content from a thread link.
type ThreadExtractor interface {
	Extract(ctx context.Context, url string) (*thread.Content, error)
}

// Resolver drives the download fallback chain. All strategies are injected;
// the resolver owns only the ordering and the bundle assembly.
type Resolver struct {
	Video   VideoDownloader
	Post    PostDownloader
	Threads ThreadExtractor

	// Fetcher downloads CDN media referenced by thread content.
	Fetcher *MediaFetcher
}

// Resolve turns a classified link into a media bundle. Each applicable path
// reports success or failure independently; resolution fails only when every
// path for the link kind has failed. Media lands in the fetcher's temp area,
// which the caller owns and must clean up.
func (r *Resolver) Resolve(ctx context.Context, link types.SourceLink, w io.Writer) (types.MediaBundle, error) {
	switch link.Kind {
	case types.LinkPost:
		return r.resolvePost(ctx, link, w)
	case types.LinkReel, types.LinkShare:
		return r.resolveVideo(ctx, link, w)
	case types.LinkThread:
		return r.resolveThread(ctx, link, w)
	default:
		return types.MediaBundle{}, fmt.Errorf("unsupported link: %s", link.URL)
	}
}

// resolvePost tries the image-post path first (most /p/ links are images)
// and switches to the video path when the downloader signals a video post.
func (r *Resolver) resolvePost(ctx context.Context, link types.SourceLink, w io.Writer) (types.MediaBundle, error) {
	post, err := r.Post.DownloadPost(ctx, link.URL)
	if err == nil {
		return postBundle(post), nil
	}
	if !errors.Is(err, ErrVideoPost) {
		return types.MediaBundle{}, fmt.Errorf("image post download: %w", err)
	}

	fmt.Fprintln(w, "post is a video, switching to video download")
	video, err := r.Video.DownloadVideo(ctx, link.URL)
	if err != nil {
		return types.MediaBundle{}, fmt.Errorf("video download: %w", err)
	}
	return videoBundle(video), nil
}

// resolveVideo tries the video path and falls back to the image-post path;
// share links in particular often resolve to image posts.
func (r *Resolver) resolveVideo(ctx context.Context, link types.SourceLink, w io.Writer) (types.MediaBundle, error) {
	video, err := r.Video.DownloadVideo(ctx, link.URL)
	if err == nil {
		return videoBundle(video), nil
	}

	fmt.Fprintf(w, "video download failed (%v), trying image post\n", err)
	post, postErr := r.Post.DownloadPost(ctx, link.URL)
	if postErr != nil {
		// Report the video failure: it was the primary path.
		return types.MediaBundle{}, fmt.Errorf("video download: %w", err)
	}
	return postBundle(post), nil
}

// resolveThread extracts structured content and branches on the aggregate
// media type: pure video, pure images, mixed, or text only.
func (r *Resolver) resolveThread(ctx context.Context, link types.SourceLink, w io.Writer) (types.MediaBundle, error) {
	content, err := r.Threads.Extract(ctx, link.URL)
	if err != nil {
		return types.MediaBundle{}, fmt.Errorf("thread extraction: %w", err)
	}

	bundle := types.MediaBundle{
		Caption: content.Description,
		Title:   content.Author,
	}

	switch content.MediaType {
	case thread.MediaVideo:
		if len(content.VideoURLs) == 0 {
			return types.MediaBundle{}, fmt.Errorf("thread %s declares video but carries no URL", link.URL)
		}
		videoPath, err := r.Fetcher.FetchVideo(ctx, content.VideoURLs[0])
		if err != nil {
			return types.MediaBundle{}, fmt.Errorf("thread video download: %w", err)
		}
		bundle.Kind = types.BundleVideo
		bundle.VideoPath = videoPath
		// The transcriber accepts video containers directly.
		bundle.AudioPath = videoPath

	case thread.MediaImage, thread.MediaCarousel:
		paths := r.Fetcher.FetchImages(ctx, content.ImageURLs, w)
		if len(paths) == 0 {
			return types.MediaBundle{}, fmt.Errorf("thread image download failed for %s", link.URL)
		}
		bundle.Kind = types.BundleImage
		if len(paths) > 1 {
			bundle.Kind = types.BundleCarousel
		}
		bundle.ImagePaths = paths

	case thread.MediaMixed:
		bundle.Kind = types.BundleMixed
		bundle.ImagePaths = r.Fetcher.FetchImages(ctx, content.ImageURLs, w)
		if len(content.VideoURLs) > 0 {
			videoPath, err := r.Fetcher.FetchVideo(ctx, content.VideoURLs[0])
			if err != nil {
				fmt.Fprintf(w, "warning: thread video download failed: %v\n", err)
			} else {
				bundle.VideoPath = videoPath
				bundle.AudioPath = videoPath
			}
		}
		if len(bundle.ImagePaths) == 0 && bundle.VideoPath == "" {
			return types.MediaBundle{}, fmt.Errorf("thread media download failed for %s", link.URL)
		}

	case thread.MediaTextOnly:
		if content.Description == "" {
			return types.MediaBundle{}, fmt.Errorf("thread %s has no textual content", link.URL)
		}
		bundle.Kind = types.BundleTextOnly

	default:
		return types.MediaBundle{}, fmt.Errorf("unrecognized thread content for %s", link.URL)
	}

	return bundle, nil
}

func videoBundle(v VideoDownload) types.MediaBundle {
	return types.MediaBundle{
		Kind:      types.BundleVideo,
		VideoPath: v.VideoPath,
		AudioPath: v.AudioPath,
		Caption:   v.Caption,
		Title:     v.Title,
	}
}

func postBundle(p PostDownload) types.MediaBundle {
	kind := types.BundleImage
	if p.Carousel {
		kind = types.BundleCarousel
	}
	return types.MediaBundle{
		Kind:       kind,
		ImagePaths: p.ImagePaths,
		Caption:    p.Caption,
		Title:      p.Title,
	}
}
