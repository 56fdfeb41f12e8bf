// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/mapscout/internal/httputil"
	"github.com/pdiddy/mapscout/pkg/types"
)

func TestSearchPlaceFound(t *testing.T) {
	var gotReq searchRequest
	var gotKey, gotMask, gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotMask = r.Header.Get("X-Goog-FieldMask")
		gotUA = r.Header.Get("User-Agent")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"places": [{
			"id": "ChIJabc123",
			"displayName": {"text": "好吃的拉麵店"},
			"formattedAddress": "台北市大安區某某路1號",
			"location": {"latitude": 25.033, "longitude": 121.565},
			"rating": 4.5,
			"userRatingCount": 1234
		}]}`)
	}))
	defer srv.Close()

	oldBase := textSearchBase
	textSearchBase = srv.URL
	defer func() { textSearchBase = oldBase }()

	cfg := types.PlacesConfig{APIKey: "test-key"}
	cfg.UserAgent = "mapscout/0.1"
	c := NewClient(cfg, srv.Client())
	match, err := c.SearchPlace(context.Background(), "好吃的拉麵店 台北")
	if err != nil {
		t.Fatalf("SearchPlace: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("X-Goog-Api-Key = %q", gotKey)
	}
	if gotMask == "" {
		t.Error("X-Goog-FieldMask not set")
	}
	if gotUA != "mapscout/0.1" {
		t.Errorf("User-Agent = %q, want mapscout/0.1", gotUA)
	}
	if gotReq.TextQuery != "好吃的拉麵店 台北" {
		t.Errorf("textQuery = %q", gotReq.TextQuery)
	}
	if gotReq.RegionCode != "TW" || gotReq.LanguageCode != "zh-TW" {
		t.Errorf("region/language = %q/%q, want TW/zh-TW", gotReq.RegionCode, gotReq.LanguageCode)
	}
	if gotReq.MaxResultCount != 1 {
		t.Errorf("maxResultCount = %d, want 1", gotReq.MaxResultCount)
	}

	if !match.Found {
		t.Fatal("Found = false")
	}
	if match.PlaceID != "ChIJabc123" {
		t.Errorf("PlaceID = %q", match.PlaceID)
	}
	if match.Name != "好吃的拉麵店" {
		t.Errorf("Name = %q", match.Name)
	}
	if !strings.Contains(match.MapsURL, "query_place_id=ChIJabc123") {
		t.Errorf("MapsURL = %q missing place id", match.MapsURL)
	}
}

func TestSearchPlaceNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	oldBase := textSearchBase
	textSearchBase = srv.URL
	defer func() { textSearchBase = oldBase }()

	c := NewClient(types.PlacesConfig{APIKey: "test-key"}, srv.Client())
	match, err := c.SearchPlace(context.Background(), "不存在的店")
	if err != nil {
		t.Fatalf("SearchPlace: %v", err)
	}
	if match.Found {
		t.Error("Found = true for empty result set")
	}
	if !strings.Contains(match.MapsURL, "maps/search") {
		t.Errorf("MapsURL = %q, want a plain search link", match.MapsURL)
	}
}

func TestSearchPlaceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	oldBase := textSearchBase
	textSearchBase = srv.URL
	defer func() { textSearchBase = oldBase }()

	c := NewClient(types.PlacesConfig{APIKey: "test-key"}, srv.Client())
	if _, err := c.SearchPlace(context.Background(), "anything"); err == nil {
		t.Fatal("SearchPlace succeeded on a 403 response")
	}
}

func TestSearchPlaceRetriesRateLimit(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = oldDelay }()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"places": [{"id": "ChIJretry", "displayName": {"text": "x"}}]}`)
	}))
	defer srv.Close()

	oldBase := textSearchBase
	textSearchBase = srv.URL
	defer func() { textSearchBase = oldBase }()

	c := NewClient(types.PlacesConfig{APIKey: "test-key"}, srv.Client())
	match, err := c.SearchPlace(context.Background(), "anything")
	if err != nil {
		t.Fatalf("SearchPlace: %v", err)
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
	if !match.Found || match.PlaceID != "ChIJretry" {
		t.Errorf("match = %+v", match)
	}
}

func TestSearchPlaceKeyless(t *testing.T) {
	c := NewClient(types.PlacesConfig{}, nil)

	match, err := c.SearchPlace(context.Background(), "夜市 台南")
	if err != nil {
		t.Fatalf("SearchPlace: %v", err)
	}
	if match.Found {
		t.Error("Found = true without an API key")
	}
	want := SearchURL("夜市 台南")
	if match.MapsURL != want {
		t.Errorf("MapsURL = %q, want %q", match.MapsURL, want)
	}
}

func TestSearchURLEscapesQuery(t *testing.T) {
	got := SearchURL("拉麵 & 餃子")
	if strings.ContainsAny(got[strings.Index(got, "query=")+6:], " &") {
		t.Errorf("SearchURL = %q, query not escaped", got)
	}
}
