// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/mapscout/pkg/types"
)

// backoffBase controls the delay between model call retries. Tests override
// this to avoid real sleeps.
var backoffBase = 2 * time.Second

const defaultMaxRetries = 3

// Adapter runs the extraction prompt against a backend and converts the
// reply into place candidates.
type Adapter struct {
	Backend Backend

	// MaxRetries bounds model call attempts. Zero selects the default (3).
	MaxRetries int
}

// Extract builds the prompt from the evidence, calls the model, and decodes
// the reply. Transport failures surface as errors; a reply that cannot be
// parsed even after repair is a not-found result with the diagnostic in
// Notes, because a garbled reply usually means the post had no places.
func (a *Adapter) Extract(ctx context.Context, analysis types.AnalysisBundle, caption, account string) (types.ExtractionResult, error) {
	prompt, err := renderPrompt(promptData{
		Caption:    caption,
		Transcript: analysis.Transcript,
		Visual:     analysis.VisualDescription,
		Account:    account,
	})
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reply, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("model call: %w", err)
	}

	payload, err := parseResponse(reply)
	if err != nil {
		return types.ExtractionResult{
			Found: false,
			Notes: fmt.Sprintf("模型回應無法解析: %v", err),
		}, nil
	}

	return resultFromPayload(payload), nil
}

// callWithRetry retries transient model failures with linear backoff.
func (a *Adapter) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := a.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * backoffBase):
			}
		}

		reply, err := a.Backend.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// resultFromPayload converts the decoded payload into the shared result
// type, tolerating the legacy single-place shape and filling in defaults.
func resultFromPayload(p responsePayload) types.ExtractionResult {
	places := p.Places
	if len(places) == 0 && p.Place != nil {
		places = []placePayload{*p.Place}
	}

	if !p.Found || len(places) == 0 {
		return types.ExtractionResult{Found: false, Notes: p.Notes}
	}

	result := types.ExtractionResult{Found: true, Notes: p.Notes}
	for _, pl := range places {
		if pl.Name == "" {
			continue
		}
		result.Places = append(result.Places, candidateFromPayload(pl))
	}
	if len(result.Places) == 0 {
		return types.ExtractionResult{Found: false, Notes: p.Notes}
	}
	return result
}

func candidateFromPayload(p placePayload) types.PlaceCandidate {
	confidence := types.Confidence(p.Confidence)
	switch confidence {
	case types.ConfidenceHigh, types.ConfidenceMedium, types.ConfidenceLow:
	default:
		confidence = types.ConfidenceLow
	}

	return types.PlaceCandidate{
		Name:           p.Name,
		NameEN:         p.NameEN,
		City:           p.City,
		Country:        p.Country,
		Address:        p.Address,
		PlaceTypes:     p.PlaceTypes,
		Highlights:     p.Highlights,
		PriceRange:     p.PriceRange,
		Recommendation: p.Recommendation,
		Confidence:     confidence,
		Tags:           p.Tags,
		SearchKeywords: p.SearchKeywords,
	}
}
