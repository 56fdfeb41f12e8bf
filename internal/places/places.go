// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package places verifies extracted place candidates against the Places API
// text search. Without an API key the client degrades to composing plain
// maps search URLs so the pipeline still produces something clickable.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/mapscout/internal/httputil"
	"github.com/pdiddy/mapscout/pkg/types"
)

// textSearchBase is the Places API text search endpoint. Package-level var
// for test substitution.
var textSearchBase = "https://places.googleapis.com/v1/places:searchText"

const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.userRatingCount"

// Client searches the Places API for one query at a time. Safe for
// concurrent use.
type Client struct {
	cfg    types.PlacesConfig
	client *http.Client
}

// NewClient creates a search client. A nil httpClient selects the default.
func NewClient(cfg types.PlacesConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RegionCode == "" {
		cfg.RegionCode = "TW"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "zh-TW"
	}
	return &Client{cfg: cfg, client: httpClient}
}

type searchRequest struct {
	TextQuery      string `json:"textQuery"`
	RegionCode     string `json:"regionCode"`
	LanguageCode   string `json:"languageCode"`
	MaxResultCount int    `json:"maxResultCount"`
}

type searchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating          float64 `json:"rating"`
		UserRatingCount int     `json:"userRatingCount"`
	} `json:"places"`
}

// SearchPlace runs a text search for the query and returns the best match.
// Transport and API failures are returned as errors; an empty result set is
// a Found=false match carrying a plain search URL.
func (c *Client) SearchPlace(ctx context.Context, query string) (types.SearchMatch, error) {
	if c.cfg.APIKey == "" {
		// Keyless mode: no verification, just a clickable search link.
		return types.SearchMatch{Found: false, MapsURL: SearchURL(query)}, nil
	}

	reqBody := searchRequest{
		TextQuery:      query,
		RegionCode:     c.cfg.RegionCode,
		LanguageCode:   c.cfg.LanguageCode,
		MaxResultCount: 1,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.SearchMatch{}, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, textSearchBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.SearchMatch{}, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return types.SearchMatch{}, fmt.Errorf("searching %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.SearchMatch{}, fmt.Errorf("place search returned %d: %s", resp.StatusCode, string(body))
	}

	var sResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return types.SearchMatch{}, fmt.Errorf("decoding search response: %w", err)
	}

	if len(sResp.Places) == 0 {
		return types.SearchMatch{Found: false, MapsURL: SearchURL(query)}, nil
	}

	p := sResp.Places[0]
	return types.SearchMatch{
		Found:           true,
		PlaceID:         p.ID,
		Name:            p.DisplayName.Text,
		Address:         p.FormattedAddress,
		Latitude:        p.Location.Latitude,
		Longitude:       p.Location.Longitude,
		Rating:          p.Rating,
		UserRatingCount: p.UserRatingCount,
		MapsURL:         mapsURL(p.ID, p.Location.Latitude, p.Location.Longitude),
	}, nil
}

// mapsURL composes the canonical maps link for a verified place.
func mapsURL(placeID string, lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f&query_place_id=%s", lat, lng, placeID)
}

// SearchURL composes a plain maps search link for an unverified query.
func SearchURL(query string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(query)
}
