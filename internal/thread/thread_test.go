// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFindThreadItemsDepthBound(t *testing.T) {
	// A self-referential map must not recurse forever.
	m := map[string]any{}
	m["self"] = m

	if _, ok := findThreadItems(m, 0); ok {
		t.Fatal("found items in a payload that has none")
	}
}

func TestFindThreadItemsNested(t *testing.T) {
	payload := map[string]any{
		"require": []any{
			map[string]any{
				"data": map[string]any{
					"thread_items": []any{
						map[string]any{"post": map[string]any{"media_type": float64(codeTextPost)}},
					},
				},
			},
		},
	}

	items, ok := findThreadItems(payload, 0)
	if !ok {
		t.Fatal("items not found")
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}

func TestFindThreadItemsSkipsDecoyNodes(t *testing.T) {
	// Lists named thread_items whose items carry no post media data are
	// decoys; the walk must pass over them and find the real node, no
	// matter which one map iteration visits first.
	payload := map[string]any{
		"a_decoy": map[string]any{
			"thread_items": []any{map[string]any{"id": "x"}},
		},
		"b_real": map[string]any{
			"thread_items": []any{
				itemFor("alice", "the real post", codeTextPost),
			},
		},
	}

	for i := 0; i < 20; i++ {
		items, ok := findThreadItems(payload, 0)
		if !ok {
			t.Fatal("real node not found")
		}
		content, err := aggregate(items)
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if content.Caption != "the real post" {
			t.Fatalf("Caption = %q, picked the wrong node", content.Caption)
		}
	}
}

func TestFindThreadItemsListScanBound(t *testing.T) {
	// Items hidden past the scan window must not be found.
	list := make([]any, maxListScan+1)
	for i := range list {
		list[i] = map[string]any{}
	}
	list[maxListScan] = map[string]any{
		"thread_items": []any{
			map[string]any{"post": map[string]any{"media_type": float64(codeTextPost)}},
		},
	}

	if _, ok := findThreadItems(list, 0); ok {
		t.Fatal("found items beyond the list scan bound")
	}
}

func itemFor(author, caption string, mediaType int) map[string]any {
	return map[string]any{
		"post": map[string]any{
			"user":       map[string]any{"username": author},
			"caption":    map[string]any{"text": caption},
			"media_type": float64(mediaType),
		},
	}
}

func TestAggregateAuthorFilter(t *testing.T) {
	content, err := aggregate([]any{
		itemFor("alice", "first", codeTextPost),
		itemFor("alice", "second", codeTextPost),
		itemFor("bob", "reply", codeTextPost),
		itemFor("alice", "third", codeTextPost),
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if content.Author != "alice" {
		t.Errorf("Author = %q, want alice", content.Author)
	}
	if content.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", content.ItemCount)
	}
	if strings.Contains(content.Caption, "reply") {
		t.Errorf("caption %q contains another author's text", content.Caption)
	}
}

func TestAggregateCaptionJoin(t *testing.T) {
	content, err := aggregate([]any{
		itemFor("alice", "part one", codeTextPost),
		itemFor("alice", "part two", codeTextPost),
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	want := "[1/2] part one\n---\n[2/2] part two"
	if content.Caption != want {
		t.Errorf("Caption = %q, want %q", content.Caption, want)
	}
	if content.MediaType != MediaTextOnly {
		t.Errorf("MediaType = %v, want text_only", content.MediaType)
	}
}

func TestAggregateDescriptionFromFragments(t *testing.T) {
	first := itemFor("alice", "short cap", codeTextPost)
	first["post"].(map[string]any)["text_post_app_info"] = map[string]any{
		"text_fragments": map[string]any{
			"fragments": []any{
				map[string]any{"plaintext": "整段文字"},
				map[string]any{"plaintext": "第二段"},
			},
		},
	}
	second := itemFor("alice", "second cap", codeTextPost)

	content, err := aggregate([]any{first, second})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	want := "[1/2] 整段文字\n第二段"
	if content.Description != want {
		t.Errorf("Description = %q, want %q", content.Description, want)
	}
	if content.Caption != "[1/2] short cap\n---\n[2/2] second cap" {
		t.Errorf("Caption = %q", content.Caption)
	}
}

func TestAggregateDescriptionFallsBackToCaption(t *testing.T) {
	content, err := aggregate([]any{itemFor("alice", "just a caption", codeTextPost)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if content.Description != "just a caption" {
		t.Errorf("Description = %q, want the caption", content.Description)
	}
}

func TestAggregateSingleItemCaptionUnprefixed(t *testing.T) {
	content, err := aggregate([]any{itemFor("alice", "only one", codeTextPost)})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if content.Caption != "only one" {
		t.Errorf("Caption = %q, want %q", content.Caption, "only one")
	}
}

func TestAggregateMixedMedia(t *testing.T) {
	imageItem := itemFor("alice", "an image", codeImage)
	imageItem["post"].(map[string]any)["image_versions2"] = map[string]any{
		"candidates": []any{map[string]any{"url": "https://cdn.example/img1.jpg"}},
	}
	videoItem := itemFor("alice", "a clip", codeVideo)
	videoItem["post"].(map[string]any)["video_versions"] = []any{
		map[string]any{"url": "https://cdn.example/vid1.mp4"},
	}

	content, err := aggregate([]any{imageItem, videoItem})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if content.MediaType != MediaMixed {
		t.Errorf("MediaType = %v, want mixed", content.MediaType)
	}
	if len(content.ImageURLs) != 1 || len(content.VideoURLs) != 1 {
		t.Errorf("media = %d images, %d videos, want 1 and 1",
			len(content.ImageURLs), len(content.VideoURLs))
	}
}

func TestAggregateCarousel(t *testing.T) {
	item := itemFor("alice", "carousel", codeCarousel)
	item["post"].(map[string]any)["carousel_media"] = []any{
		map[string]any{"image_versions2": map[string]any{
			"candidates": []any{map[string]any{"url": "https://cdn.example/a.jpg"}},
		}},
		map[string]any{"image_versions2": map[string]any{
			"candidates": []any{map[string]any{"url": "https://cdn.example/b.jpg"}},
		}},
	}

	content, err := aggregate([]any{item})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if content.MediaType != MediaCarousel {
		t.Errorf("MediaType = %v, want carousel", content.MediaType)
	}
	if len(content.ImageURLs) != 2 {
		t.Errorf("got %d image URLs, want 2", len(content.ImageURLs))
	}
}

// pageWithPayload builds an HTML page whose script tag carries the payload,
// padded past the minimum size filter.
func pageWithPayload(t *testing.T, payload any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	if pad := minPayloadBytes - len(body); pad > 0 {
		// Pad inside a throwaway field to keep the JSON valid.
		padded := map[string]any{"padding": strings.Repeat("x", pad)}
		for k, v := range payload.(map[string]any) {
			padded[k] = v
		}
		raw, err = json.Marshal(padded)
		if err != nil {
			t.Fatal(err)
		}
		body = string(raw)
	}
	return "<html><body><script type=\"application/json\">" + body + "</script></body></html>"
}

func TestExtractFromServedPage(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"thread_items": []any{
				itemFor("foodie.tw", "隱藏版牛肉麵在台北東區", codeTextPost),
			},
		},
	}
	page := pageWithPayload(t, payload)

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	e := &Extractor{Client: srv.Client()}
	content, err := e.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !strings.Contains(gotUA, "Googlebot") {
		t.Errorf("request User-Agent = %q, want crawler agent", gotUA)
	}
	if content.Author != "foodie.tw" {
		t.Errorf("Author = %q, want foodie.tw", content.Author)
	}
	if content.Caption != "隱藏版牛肉麵在台北東區" {
		t.Errorf("Caption = %q", content.Caption)
	}
	if content.MediaType != MediaTextOnly {
		t.Errorf("MediaType = %v, want text_only", content.MediaType)
	}
}

func TestExtractNoPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><script>var x = 1;</script></body></html>")
	}))
	defer srv.Close()

	e := &Extractor{Client: srv.Client()}
	_, err := e.Extract(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Extract error = %v, want ErrNotFound", err)
	}
}

func TestExtractErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := &Extractor{Client: srv.Client()}
	if _, err := e.Extract(context.Background(), srv.URL); err == nil {
		t.Fatal("Extract succeeded on a 404 page")
	}
}
