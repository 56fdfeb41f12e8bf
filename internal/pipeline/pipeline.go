// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one work item end to end: admission, link
// classification, media resolution, analysis, place extraction, concurrent
// search verification, and sequential persistence. Candidates are isolated
// from each other; a failure on one never suppresses its siblings.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/mapscout/internal/dedup"
	"github.com/pdiddy/mapscout/internal/maplist"
	"github.com/pdiddy/mapscout/internal/places"
	"github.com/pdiddy/mapscout/internal/resolve"
	"github.com/pdiddy/mapscout/internal/sheets"
	"github.com/pdiddy/mapscout/internal/store"
	"github.com/pdiddy/mapscout/pkg/types"
)

// maxErrorRunes bounds error text carried into results and user-facing
// output.
const maxErrorRunes = 200

// Resolver turns a classified link into a local media bundle.
type Resolver interface {
	Resolve(ctx context.Context, link types.SourceLink, w io.Writer) (types.MediaBundle, error)
}

// Analyzer produces textual evidence from a media bundle.
type Analyzer interface {
	Analyze(ctx context.Context, bundle types.MediaBundle, w io.Writer) types.AnalysisBundle
}

// Extractor produces place candidates from the evidence.
type Extractor interface {
	Extract(ctx context.Context, analysis types.AnalysisBundle, caption, account string) (types.ExtractionResult, error)
}

// Searcher verifies one candidate query against the place search service.
type Searcher interface {
	SearchPlace(ctx context.Context, query string) (types.SearchMatch, error)
}

// Store persists places and snapshots them for inspection.
type Store interface {
	Insert(ctx context.Context, p types.PersistedPlace, prov store.Provenance) (int64, error)
	ExportYAML(ctx context.Context) error
}

// DuplicateError reports that the work item was already seen.
type DuplicateError struct {
	Decision dedup.Decision
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate work item (%s)", e.Decision)
}

// NotFoundError reports that extraction found no places in the post.
type NotFoundError struct {
	Notes string
}

func (e *NotFoundError) Error() string {
	if e.Notes == "" {
		return "no places found in post"
	}
	return "no places found in post: " + e.Notes
}

// Pipeline wires the stages together. All collaborators are injected.
type Pipeline struct {
	Registry  *dedup.Registry
	Resolver  Resolver
	Analyzer  Analyzer
	Extractor Extractor
	Searcher  Searcher
	Syncer    sheets.Syncer
	Saver     maplist.Saver
	Store     Store

	// ListName is the target map list for saved places.
	ListName string
}

// Process runs one work item through every stage and returns the persisted
// places. Progress and warnings go to w. Duplicates return a DuplicateError,
// a post without places returns a NotFoundError; both leave the item in a
// terminal state.
func (p *Pipeline) Process(ctx context.Context, item types.WorkItem, w io.Writer) (results []types.PersistedPlace, err error) {
	if decision := p.Registry.Admit(item.ID); decision != dedup.Proceed {
		return nil, &DuplicateError{Decision: decision}
	}
	defer p.Registry.Release(item.ID)

	// A panic anywhere in the stages must still release the item and
	// surface as a bounded error message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing message %d: %s", item.ID, truncate(fmt.Sprint(r)))
		}
	}()

	rawURL, ok := resolve.ExtractLink(item.Text)
	if !ok {
		return nil, fmt.Errorf("no supported link in message %d", item.ID)
	}
	link := resolve.Classify(rawURL)
	fmt.Fprintf(w, "processing %s link %s\n", link.Kind, link.URL)

	bundle, err := p.Resolver.Resolve(ctx, link, w)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", link.URL, err)
	}
	defer func() {
		paths := append([]string{bundle.VideoPath, bundle.AudioPath}, bundle.ImagePaths...)
		resolve.CleanupBundle(paths...)
	}()

	if !bundle.Usable() {
		return nil, fmt.Errorf("resolved %s to an empty bundle", link.URL)
	}

	analysis := p.Analyzer.Analyze(ctx, bundle, w)

	extraction, err := p.Extractor.Extract(ctx, analysis, bundle.Caption, bundle.Title)
	if err != nil {
		return nil, fmt.Errorf("extracting places: %w", err)
	}
	if !extraction.Found {
		return nil, &NotFoundError{Notes: extraction.Notes}
	}
	fmt.Fprintf(w, "extracted %d place(s)\n", extraction.PlaceCount())

	matches := p.searchAll(ctx, extraction.Places)

	prov := store.Provenance{
		SourceURL:     link.URL,
		SourceAccount: bundle.Title,
		SessionID:     item.SessionID,
	}
	results = p.persistAll(ctx, extraction.Places, matches, prov, w)

	if err := p.Store.ExportYAML(ctx); err != nil {
		fmt.Fprintf(w, "warning: export failed: %v\n", err)
	}
	return results, nil
}

// searchAll verifies every candidate concurrently. The result slice is
// index-aligned with the candidates; a per-candidate failure becomes a
// Found=false match carrying the error, never a missing slot.
func (p *Pipeline) searchAll(ctx context.Context, candidates []types.PlaceCandidate) []types.SearchMatch {
	matches := make([]types.SearchMatch, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c types.PlaceCandidate) {
			defer wg.Done()
			query := queryFor(c)
			match, err := p.Searcher.SearchPlace(ctx, query)
			if err != nil {
				matches[i] = types.SearchMatch{
					Found:        false,
					MapsURL:      places.SearchURL(query),
					ErrorMessage: truncate(err.Error()),
				}
				return
			}
			matches[i] = match
		}(i, c)
	}
	wg.Wait()

	return matches
}

// persistAll stores, syncs, and saves each candidate in order. Persistence
// side effects run sequentially; per-candidate failures are recorded on the
// result and reported as warnings.
func (p *Pipeline) persistAll(ctx context.Context, candidates []types.PlaceCandidate, matches []types.SearchMatch, prov store.Provenance, w io.Writer) []types.PersistedPlace {
	loggedIn := p.Saver.Enabled() && p.Saver.LoggedIn(ctx)

	results := make([]types.PersistedPlace, 0, len(candidates))
	for i, c := range candidates {
		pp := types.PersistedPlace{
			Candidate: c,
			Match:     matches[i],
			Status:    types.StatusPending,
		}
		if pp.Match.Found {
			pp.Status = types.StatusConfirmed
		}

		rowID, err := p.Store.Insert(ctx, pp, prov)
		if err != nil {
			pp.Failure = truncate(err.Error())
			fmt.Fprintf(w, "warning: storing %q failed: %v\n", c.Name, err)
		} else {
			pp.RowID = rowID
		}

		p.syncRow(ctx, &pp, prov, w)
		p.savePlace(ctx, &pp, loggedIn, w)

		results = append(results, pp)
	}
	return results
}

// syncRow appends the place to the external sheet when a syncer is
// configured. Best effort only.
func (p *Pipeline) syncRow(ctx context.Context, pp *types.PersistedPlace, prov store.Provenance, w io.Writer) {
	if p.Syncer == nil || !p.Syncer.Configured() {
		return
	}

	row := sheets.Row{
		Name:           pp.Candidate.Name,
		Address:        pp.Candidate.Address,
		City:           pp.Candidate.City,
		Country:        pp.Candidate.Country,
		PlaceTypes:     joinList(pp.Candidate.PlaceTypes),
		Highlights:     joinList(pp.Candidate.Highlights),
		PriceRange:     pp.Candidate.PriceRange,
		Recommendation: pp.Candidate.Recommendation,
		MapsURL:        pp.Match.MapsURL,
		SourceURL:      prov.SourceURL,
	}
	if pp.Match.Found && pp.Match.Address != "" {
		row.Address = pp.Match.Address
	}

	if err := p.Syncer.SyncRow(ctx, row); err != nil {
		fmt.Fprintf(w, "warning: sheet sync for %q failed: %v\n", pp.Candidate.Name, err)
		return
	}
	pp.Synced = true
}

// savePlace pushes a verified place to the map list and records the outcome.
func (p *Pipeline) savePlace(ctx context.Context, pp *types.PersistedPlace, loggedIn bool, w io.Writer) {
	switch {
	case !p.Saver.Enabled():
		pp.SaveStatus = types.SaveDisabled
	case !pp.Match.Found || pp.Match.PlaceID == "":
		// Nothing to save without a verified place id.
		pp.SaveStatus = types.SaveDisabled
	case !loggedIn:
		pp.SaveStatus = types.SaveNotLoggedIn
	default:
		result, err := p.Saver.SaveToList(ctx, pp.Match.PlaceID, p.ListName)
		if err != nil {
			pp.SaveStatus = types.SaveFailed
			fmt.Fprintf(w, "warning: saving %q to list failed: %v\n", pp.Candidate.Name, err)
			return
		}
		pp.SaveStatus = result.Status
	}
}

// queryFor composes the search query for one candidate. A known city
// overrides the model's keywords, because "{name} {city}" disambiguates
// chains and common names better than the keywords do.
func queryFor(c types.PlaceCandidate) string {
	if c.Name != "" && c.City != "" {
		return c.Name + " " + c.City
	}
	if len(c.SearchKeywords) > 0 && c.SearchKeywords[0] != "" {
		return c.SearchKeywords[0]
	}
	return c.Name
}

// joinList flattens a list column for the sheet row.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}

// truncate bounds a message to maxErrorRunes runes.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxErrorRunes {
		return s
	}
	return string(runes[:maxErrorRunes]) + "..."
}
