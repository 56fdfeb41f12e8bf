// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheets appends persisted places to a spreadsheet through a webhook.
// The sync is best effort: the pipeline records the outcome but never fails
// a work item over it.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Row is one spreadsheet row. Field order follows the sheet's header row.
type Row struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	City           string `json:"city"`
	Country        string `json:"country"`
	PlaceTypes     string `json:"place_types"`
	Highlights     string `json:"highlights"`
	PriceRange     string `json:"price_range"`
	Recommendation string `json:"recommendation"`
	MapsURL        string `json:"maps_url"`
	SourceURL      string `json:"source_url"`
	AddedAt        string `json:"added_at"`
}

// Syncer appends rows to the external sheet.
type Syncer interface {
	SyncRow(ctx context.Context, row Row) error

	// Configured reports whether the syncer can actually reach a sheet.
	Configured() bool
}

// WebhookSyncer posts rows to an append webhook. A zero-value syncer (empty
// URL) is valid and reports itself unconfigured.
type WebhookSyncer struct {
	WebhookURL string
	Client     *http.Client
}

func (s *WebhookSyncer) Configured() bool { return s.WebhookURL != "" }

// SyncRow posts the row to the webhook.
func (s *WebhookSyncer) SyncRow(ctx context.Context, row Row) error {
	if !s.Configured() {
		return fmt.Errorf("sheet webhook not configured")
	}
	if row.AddedAt == "" {
		row.AddedAt = time.Now().Format(time.RFC3339)
	}

	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("creating sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("syncing row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("sheet webhook returned %d", resp.StatusCode)
	}
	return nil
}
