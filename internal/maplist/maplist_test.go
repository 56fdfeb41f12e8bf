// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package maplist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/mapscout/pkg/types"
)

func TestLoggedIn(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"logged in", `{"enabled": true, "logged_in": true}`, true},
		{"session expired", `{"enabled": true, "logged_in": false}`, false},
		{"disabled", `{"enabled": false, "logged_in": true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := &ServiceClient{BaseURL: srv.URL, Client: srv.Client()}
			if got := c.LoggedIn(context.Background()); got != tt.want {
				t.Errorf("LoggedIn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoggedInServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := &ServiceClient{BaseURL: srv.URL}
	if c.LoggedIn(context.Background()) {
		t.Error("LoggedIn = true with a dead service")
	}
}

func TestSaveToList(t *testing.T) {
	var got saveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding save request: %v", err)
		}
		fmt.Fprint(w, `{"status": "saved"}`)
	}))
	defer srv.Close()

	c := &ServiceClient{BaseURL: srv.URL, Client: srv.Client()}
	result, err := c.SaveToList(context.Background(), "ChIJabc123", "想去")
	if err != nil {
		t.Fatalf("SaveToList: %v", err)
	}

	if result.Status != types.SaveSaved {
		t.Errorf("Status = %q, want saved", result.Status)
	}
	if got.PlaceID != "ChIJabc123" || got.ListName != "想去" {
		t.Errorf("request = %+v", got)
	}
}

func TestSaveToListAlreadySaved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "already_saved", "message": "duplicate"}`)
	}))
	defer srv.Close()

	c := &ServiceClient{BaseURL: srv.URL, Client: srv.Client()}
	result, err := c.SaveToList(context.Background(), "x", "想去")
	if err != nil {
		t.Fatalf("SaveToList: %v", err)
	}
	if result.Status != types.SaveAlready {
		t.Errorf("Status = %q, want already_saved", result.Status)
	}
}

func TestSaveToListUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "maybe"}`)
	}))
	defer srv.Close()

	c := &ServiceClient{BaseURL: srv.URL, Client: srv.Client()}
	result, err := c.SaveToList(context.Background(), "x", "想去")
	if err == nil {
		t.Fatal("SaveToList accepted an unknown status")
	}
	if result.Status != types.SaveFailed {
		t.Errorf("Status = %q, want failed", result.Status)
	}
}

func TestLists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"lists": ["想去", "最愛"]}`)
	}))
	defer srv.Close()

	c := &ServiceClient{BaseURL: srv.URL, Client: srv.Client()}
	lists, err := c.Lists(context.Background())
	if err != nil {
		t.Fatalf("Lists: %v", err)
	}
	if len(lists) != 2 || lists[0] != "想去" {
		t.Errorf("lists = %v", lists)
	}
}

func TestDisabledSaver(t *testing.T) {
	var d Disabled
	if d.Enabled() || d.LoggedIn(context.Background()) {
		t.Error("disabled saver reports enabled or logged in")
	}
	result, err := d.SaveToList(context.Background(), "x", "想去")
	if err != nil {
		t.Fatalf("SaveToList: %v", err)
	}
	if result.Status != types.SaveDisabled {
		t.Errorf("Status = %q, want disabled", result.Status)
	}
}
