// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package thread extracts structured post content from thread pages. The
// page is fetched with a crawler user agent, which makes the server embed the
// post data as JSON inside script tags; the extractor locates that payload,
// walks it for the thread items, and aggregates them into a single Content.
package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound means the page contained no qualifying structured payload,
// typically because the post is private, deleted, or served without the
// embedded data.
var ErrNotFound = errors.New("no structured thread payload found")

// googlebotUA makes the server return fully rendered HTML with the embedded
// JSON payload instead of the client-side application shell.
const googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

const (
	// minPayloadBytes filters out small scripts that mention the payload
	// markers without carrying the post data.
	minPayloadBytes = 5000

	// maxDepth bounds the recursive payload walk.
	maxDepth = 20

	// maxListScan bounds how many elements of any list are inspected
	// during the walk.
	maxListScan = 10
)

// Media type codes used inside the embedded payload.
const (
	codeImage    = 1
	codeVideo    = 2
	codeCarousel = 8
	codeTextPost = 19
)

// MediaKind is the aggregate media classification of a thread.
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaImage
	MediaVideo
	MediaCarousel
	MediaMixed
	MediaTextOnly
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaCarousel:
		return "carousel"
	case MediaMixed:
		return "mixed"
	case MediaTextOnly:
		return "text_only"
	default:
		return "unknown"
	}
}

// Content is the aggregated post content of one thread: the author's items
// merged into a single caption with their media URLs collected in order.
type Content struct {
	MediaType   MediaKind
	Author      string
	Caption     string
	Description string
	ImageURLs   []string
	VideoURLs   []string

	// ItemCount is the number of thread items kept after author filtering.
	ItemCount int
}

// Extractor fetches thread pages and recovers their embedded content.
type Extractor struct {
	Client *http.Client

	// UserAgent overrides the default crawler user agent.
	UserAgent string
}

// Extract fetches the thread page and returns its aggregated content.
// Returns ErrNotFound when the page carries no qualifying payload.
func (e *Extractor) Extract(ctx context.Context, url string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	ua := e.UserAgent
	if ua == "" {
		ua = googlebotUA
	}
	req.Header.Set("User-Agent", ua)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	var content *Content
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if len(text) < minPayloadBytes ||
			!strings.Contains(text, "thread_items") ||
			!strings.Contains(text, "media_type") {
			return true
		}

		var payload any
		if err := json.Unmarshal([]byte(html.UnescapeString(text)), &payload); err != nil {
			return true
		}

		items, ok := findThreadItems(payload, 0)
		if !ok {
			return true
		}
		if c, err := aggregate(items); err == nil {
			content = c
			return false
		}
		return true
	})

	if content == nil {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	return content, nil
}

// findThreadItems walks the decoded payload looking for a non-empty
// "thread_items" list. Depth is bounded and only the first few elements of
// any list are inspected; the payload nests deeply but the items always sit
// near the front.
func findThreadItems(v any, depth int) ([]any, bool) {
	if depth > maxDepth {
		return nil, false
	}

	switch node := v.(type) {
	case map[string]any:
		if items, ok := node["thread_items"].([]any); ok && validThreadItems(items) {
			return items, true
		}
		for _, child := range node {
			if items, ok := findThreadItems(child, depth+1); ok {
				return items, true
			}
		}
	case []any:
		if len(node) > maxListScan {
			node = node[:maxListScan]
		}
		for _, child := range node {
			if items, ok := findThreadItems(child, depth+1); ok {
				return items, true
			}
		}
	}
	return nil, false
}

// validThreadItems reports whether the list is a real thread-items node. The
// payload contains decoy "thread_items" lists without post data; a node only
// qualifies when its first item carries a post with a media-type field.
func validThreadItems(items []any) bool {
	if len(items) == 0 {
		return false
	}
	item, ok := items[0].(map[string]any)
	if !ok {
		return false
	}
	post, ok := item["post"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = post["media_type"]
	return ok
}

// postItem is the per-item content pulled out of one thread item.
type postItem struct {
	author      string
	caption     string
	description string
	mediaType   int
	imageURLs   []string
	videoURLs   []string
}

// aggregate merges the thread items into a single Content. Only items by the
// first item's author are kept, so replies by other accounts never leak into
// the caption or media lists.
func aggregate(items []any) (*Content, error) {
	var posts []postItem
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		post, ok := item["post"].(map[string]any)
		if !ok {
			continue
		}
		posts = append(posts, parsePost(post))
	}
	if len(posts) == 0 {
		return nil, errors.New("no post items in payload")
	}

	author := posts[0].author
	var kept []postItem
	for _, p := range posts {
		if p.author == author {
			kept = append(kept, p)
		}
	}

	content := &Content{Author: author, ItemCount: len(kept)}

	var captions, descriptions []string
	for i, p := range kept {
		content.ImageURLs = append(content.ImageURLs, p.imageURLs...)
		content.VideoURLs = append(content.VideoURLs, p.videoURLs...)
		if p.caption != "" {
			captions = append(captions, ordinal(p.caption, i, len(kept)))
		}
		if p.description != "" {
			descriptions = append(descriptions, ordinal(p.description, i, len(kept)))
		}
	}
	content.Caption = strings.Join(captions, "\n---\n")

	// Text fragments carry the richer per-item text when present; the
	// caption is the fallback.
	content.Description = strings.Join(descriptions, "\n---\n")
	if content.Description == "" {
		content.Description = content.Caption
	}

	content.MediaType = aggregateKind(kept, content)
	return content, nil
}

// aggregateKind derives the thread-level media classification from the kept
// items and the collected media.
func aggregateKind(kept []postItem, content *Content) MediaKind {
	hasImages := len(content.ImageURLs) > 0
	hasVideos := len(content.VideoURLs) > 0

	if hasImages && hasVideos {
		return MediaMixed
	}
	if hasVideos {
		return MediaVideo
	}
	if hasImages {
		if len(content.ImageURLs) > 1 {
			return MediaCarousel
		}
		return MediaImage
	}
	if content.Caption != "" {
		return MediaTextOnly
	}

	// No media and no caption: fall back to the first item's declared code.
	switch kept[0].mediaType {
	case codeVideo:
		return MediaVideo
	case codeImage:
		return MediaImage
	case codeCarousel:
		return MediaCarousel
	case codeTextPost:
		return MediaTextOnly
	default:
		return MediaUnknown
	}
}

// parsePost extracts one item's author, caption, description fragments, and
// media URLs.
func parsePost(post map[string]any) postItem {
	p := postItem{mediaType: intField(post, "media_type")}

	if user, ok := post["user"].(map[string]any); ok {
		p.author = stringField(user, "username")
	}
	if caption, ok := post["caption"].(map[string]any); ok {
		p.caption = stringField(caption, "text")
	}

	info, hasInfo := post["text_post_app_info"].(map[string]any)
	if hasInfo {
		p.description = fragmentText(info)
	}

	switch p.mediaType {
	case codeCarousel:
		if media, ok := post["carousel_media"].([]any); ok {
			for _, raw := range media {
				if m, ok := raw.(map[string]any); ok {
					collectMedia(m, &p)
				}
			}
		}
	case codeTextPost:
		// Text posts may still reference media through the text post
		// metadata.
		if hasInfo {
			if linked, ok := info["linked_inline_media"].(map[string]any); ok {
				collectMedia(linked, &p)
			}
		}
	default:
		collectMedia(post, &p)
	}
	return p
}

// fragmentText joins the plaintext fragments of one item's text metadata.
func fragmentText(info map[string]any) string {
	tf, ok := info["text_fragments"].(map[string]any)
	if !ok {
		return ""
	}
	frags, ok := tf["fragments"].([]any)
	if !ok {
		return ""
	}

	var parts []string
	for _, raw := range frags {
		if f, ok := raw.(map[string]any); ok {
			if text := stringField(f, "plaintext"); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// ordinal prefixes one item's text with its position when the thread has
// more than one contributing item.
func ordinal(text string, i, total int) string {
	if total > 1 {
		return fmt.Sprintf("[%d/%d] %s", i+1, total, text)
	}
	return text
}

// collectMedia pulls the best image candidate and the first video version
// out of one media object.
func collectMedia(media map[string]any, p *postItem) {
	if versions, ok := media["video_versions"].([]any); ok && len(versions) > 0 {
		if v, ok := versions[0].(map[string]any); ok {
			if url := stringField(v, "url"); url != "" {
				p.videoURLs = append(p.videoURLs, url)
				return
			}
		}
	}
	if iv, ok := media["image_versions2"].(map[string]any); ok {
		if candidates, ok := iv["candidates"].([]any); ok && len(candidates) > 0 {
			if c, ok := candidates[0].(map[string]any); ok {
				if url := stringField(c, "url"); url != "" {
					p.imageURLs = append(p.imageURLs, url)
				}
			}
		}
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}
