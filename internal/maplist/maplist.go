// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package maplist saves verified places to the user's map list through an
// external browser-automation service. The service owns the login session;
// this client only checks status and requests saves.
package maplist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/mapscout/pkg/types"
)

// SaveResult is the outcome of one save attempt.
type SaveResult struct {
	Status  types.SaveStatus
	Message string
}

// Saver saves places to a named map list.
type Saver interface {
	// Enabled reports whether the saver is configured at all.
	Enabled() bool

	// LoggedIn reports whether the service holds a usable login session.
	LoggedIn(ctx context.Context) bool

	// SaveToList saves the place to the named list.
	SaveToList(ctx context.Context, placeID, listName string) (SaveResult, error)

	// Lists returns the names of the available lists.
	Lists(ctx context.Context) ([]string, error)
}

// ServiceClient talks to the automation service over HTTP.
type ServiceClient struct {
	BaseURL string
	Client  *http.Client
}

func (s *ServiceClient) Enabled() bool { return s.BaseURL != "" }

type statusResponse struct {
	Enabled  bool `json:"enabled"`
	LoggedIn bool `json:"logged_in"`
}

// LoggedIn queries the service status. Any transport failure reads as not
// logged in; the pipeline then records not_logged_in instead of failing.
func (s *ServiceClient) LoggedIn(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Enabled && status.LoggedIn
}

type saveRequest struct {
	PlaceID  string `json:"place_id"`
	ListName string `json:"list_name"`
}

type saveResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SaveToList asks the service to save the place.
func (s *ServiceClient) SaveToList(ctx context.Context, placeID, listName string) (SaveResult, error) {
	raw, err := json.Marshal(saveRequest{PlaceID: placeID, ListName: listName})
	if err != nil {
		return SaveResult{}, fmt.Errorf("encoding save request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/save", bytes.NewReader(raw))
	if err != nil {
		return SaveResult{}, fmt.Errorf("creating save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return SaveResult{}, fmt.Errorf("saving place: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SaveResult{}, fmt.Errorf("save service returned %d", resp.StatusCode)
	}

	var sResp saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return SaveResult{}, fmt.Errorf("decoding save response: %w", err)
	}

	switch types.SaveStatus(sResp.Status) {
	case types.SaveSaved, types.SaveAlready, types.SaveFailed, types.SaveNotLoggedIn:
		return SaveResult{Status: types.SaveStatus(sResp.Status), Message: sResp.Message}, nil
	default:
		return SaveResult{Status: types.SaveFailed, Message: sResp.Message},
			fmt.Errorf("save service returned unknown status %q", sResp.Status)
	}
}

// Lists returns the names of the lists the service can save to.
func (s *ServiceClient) Lists(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/lists", nil)
	if err != nil {
		return nil, fmt.Errorf("creating lists request: %w", err)
	}
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing lists: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list service returned %d", resp.StatusCode)
	}

	var body struct {
		Lists []string `json:"lists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding lists response: %w", err)
	}
	return body.Lists, nil
}

func (s *ServiceClient) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

// Disabled satisfies Saver when no service is configured.
type Disabled struct{}

func (Disabled) Enabled() bool                     { return false }
func (Disabled) LoggedIn(ctx context.Context) bool { return false }

func (Disabled) SaveToList(ctx context.Context, placeID, listName string) (SaveResult, error) {
	return SaveResult{Status: types.SaveDisabled}, nil
}

func (Disabled) Lists(ctx context.Context) ([]string, error) {
	return nil, fmt.Errorf("map list service not configured")
}
