// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestFetchImagesSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png bytes"))
	}))
	defer srv.Close()

	f := &MediaFetcher{
		Client:    srv.Client(),
		TempDir:   t.TempDir(),
		UserAgent: "mapscout/0.1",
	}

	var warnings strings.Builder
	paths := f.FetchImages(context.Background(), []string{srv.URL + "/img"}, &warnings)
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1 (warnings: %s)", len(paths), warnings.String())
	}
	if gotUA != "mapscout/0.1" {
		t.Errorf("User-Agent = %q, want mapscout/0.1", gotUA)
	}
	if filepath.Ext(paths[0]) != ".png" {
		t.Errorf("path = %q, want .png extension", paths[0])
	}
}

func TestFetchImagesSkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/bad") {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	f := &MediaFetcher{Client: srv.Client(), TempDir: t.TempDir()}

	var warnings strings.Builder
	paths := f.FetchImages(context.Background(),
		[]string{srv.URL + "/good", srv.URL + "/bad", srv.URL + "/good2"}, &warnings)
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if !strings.Contains(warnings.String(), "warning:") {
		t.Error("failure not reported as a warning")
	}
}
