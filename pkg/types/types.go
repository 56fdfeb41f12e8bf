// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mapscout pipeline:
// the classified source link, the resolved media bundle, the analysis
// evidence, extracted place candidates, search matches, and the persisted
// record handed back to the caller.
package types

import "time"

// LinkKind classifies a submitted source link.
type LinkKind int

const (
	LinkUnknown LinkKind = iota
	LinkReel
	LinkPost
	LinkShare
	LinkThread
)

func (k LinkKind) String() string {
	switch k {
	case LinkReel:
		return "reel"
	case LinkPost:
		return "post"
	case LinkShare:
		return "share"
	case LinkThread:
		return "thread"
	default:
		return "unknown"
	}
}

// SourceLink is a submitted URL together with its classification.
// Derived once by the resolver and immutable afterwards.
type SourceLink struct {
	// URL is the raw link as extracted from the message text.
	URL string `json:"url" yaml:"url"`

	// Kind is the classified link type.
	Kind LinkKind `json:"kind" yaml:"kind"`

	// ShortCode is the post identifier captured from the URL path.
	ShortCode string `json:"short_code,omitempty" yaml:"short_code,omitempty"`
}

// WorkItem is one unit of inbound work: a chat message carrying a link.
type WorkItem struct {
	// ID is the stable message identifier used for deduplication.
	ID int64 `json:"id" yaml:"id"`

	// SessionID identifies the chat or conversation the message came from.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Text is the free text of the message, expected to contain a link.
	Text string `json:"text" yaml:"text"`

	// ReceivedAt is the admission timestamp.
	ReceivedAt time.Time `json:"received_at" yaml:"received_at"`
}

// BundleKind describes what a resolved media bundle contains.
type BundleKind string

const (
	BundleVideo    BundleKind = "video"
	BundleImage    BundleKind = "image"
	BundleCarousel BundleKind = "carousel"
	BundleMixed    BundleKind = "mixed"
	BundleTextOnly BundleKind = "text_only"
)

// MediaBundle is the output of source resolution: local media artifacts
// plus the caption and provenance recovered alongside them. The paths point
// into a caller-owned temporary area; cleanup is the caller's job.
type MediaBundle struct {
	Kind BundleKind `json:"kind" yaml:"kind"`

	// VideoPath is the downloaded video file, if any.
	VideoPath string `json:"video_path,omitempty" yaml:"video_path,omitempty"`

	// AudioPath is the extracted audio track, if any. For directly fetched
	// videos this may equal VideoPath (the transcriber handles containers).
	AudioPath string `json:"audio_path,omitempty" yaml:"audio_path,omitempty"`

	// ImagePaths lists downloaded images in post order.
	ImagePaths []string `json:"image_paths,omitempty" yaml:"image_paths,omitempty"`

	// Caption is the post description text.
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`

	// Title is the source title or author handle, used as provenance.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Usable reports whether the bundle carries anything downstream stages can
// work with. A bundle with no media and no caption is a resolution failure.
func (b MediaBundle) Usable() bool {
	return b.VideoPath != "" || b.AudioPath != "" || len(b.ImagePaths) > 0 || b.Caption != ""
}

// HasVideo reports whether the bundle carries a video or audio track.
func (b MediaBundle) HasVideo() bool {
	return b.VideoPath != "" || b.AudioPath != ""
}

// AnalysisBundle holds the textual evidence produced from a media bundle.
// Either field may be empty; extraction can still proceed on a caption alone.
type AnalysisBundle struct {
	// Transcript is the speech-to-text output, or the caption when the
	// source was an image post.
	Transcript string `json:"transcript" yaml:"transcript"`

	// VisualDescription summarizes what the video frames or images show.
	VisualDescription string `json:"visual_description" yaml:"visual_description"`
}

// Empty reports whether no evidence at all was produced.
func (a AnalysisBundle) Empty() bool {
	return a.Transcript == "" && a.VisualDescription == ""
}

// Confidence is the model's per-candidate reliability estimate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// PlaceCandidate is one unverified point of interest extracted from media
// content. Immutable once created.
type PlaceCandidate struct {
	// Name is the place name in the source language.
	Name string `json:"name" yaml:"name"`

	// NameEN is the English name, when the model knows one.
	NameEN string `json:"name_en,omitempty" yaml:"name_en,omitempty"`

	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// PlaceTypes are category tags (restaurant, cafe, attraction, ...).
	PlaceTypes []string `json:"place_types,omitempty" yaml:"place_types,omitempty"`

	// Highlights list recommended dishes or notable features.
	Highlights []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`

	// PriceRange is a tier marker such as "$" through "$$$$".
	PriceRange string `json:"price_range,omitempty" yaml:"price_range,omitempty"`

	// Recommendation is the model's short pitch for the place.
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`

	// Confidence is taken verbatim from the model output.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// SearchKeywords are query strings suitable for a maps search.
	SearchKeywords []string `json:"search_keywords,omitempty" yaml:"search_keywords,omitempty"`
}

// ExtractionResult is the outcome of place extraction over one bundle.
// A parse failure is reported as Found=false with the diagnostic in Notes,
// never as an error.
type ExtractionResult struct {
	Found  bool             `json:"found" yaml:"found"`
	Places []PlaceCandidate `json:"places,omitempty" yaml:"places,omitempty"`
	Notes  string           `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// PlaceCount returns the number of extracted candidates.
func (r ExtractionResult) PlaceCount() int { return len(r.Places) }

// SearchMatch is the result of verifying one candidate against the place
// search service. Paired 1:1 and order-preserving with the candidate list.
type SearchMatch struct {
	// Found reports whether the service returned a concrete place.
	Found bool `json:"found" yaml:"found"`

	// PlaceID is the service's canonical identifier for the place.
	PlaceID string `json:"place_id,omitempty" yaml:"place_id,omitempty"`

	// Name is the display name returned by the service.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Address   string  `json:"address,omitempty" yaml:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`

	Rating          float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	UserRatingCount int     `json:"user_rating_count,omitempty" yaml:"user_rating_count,omitempty"`

	// MapsURL is a canonical map link. Set even when Found is false, in
	// which case it is a plain search URL for the query.
	MapsURL string `json:"maps_url,omitempty" yaml:"maps_url,omitempty"`

	// ErrorMessage carries the per-candidate search failure, if any.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// PlaceStatus is the verification state of a persisted place.
type PlaceStatus string

const (
	StatusPending   PlaceStatus = "pending"
	StatusConfirmed PlaceStatus = "confirmed"
	StatusRejected  PlaceStatus = "rejected"
)

// SaveStatus is the outcome of the external map-list save attempt.
type SaveStatus string

const (
	SaveSaved       SaveStatus = "saved"
	SaveAlready     SaveStatus = "already_saved"
	SaveFailed      SaveStatus = "failed"
	SaveNotLoggedIn SaveStatus = "not_logged_in"
	SaveDisabled    SaveStatus = "disabled"
)

// PersistedPlace combines a candidate with its search match and records what
// happened to it during persistence. One is produced per candidate; a
// failure in one never suppresses its siblings.
type PersistedPlace struct {
	Candidate PlaceCandidate `json:"candidate" yaml:"candidate"`
	Match     SearchMatch    `json:"match" yaml:"match"`

	// Status is confirmed when the search matched, pending otherwise.
	Status PlaceStatus `json:"status" yaml:"status"`

	// RowID is the store's row identifier, zero when the insert failed.
	RowID int64 `json:"row_id,omitempty" yaml:"row_id,omitempty"`

	// Synced reports whether the spreadsheet sync succeeded.
	Synced bool `json:"synced" yaml:"synced"`

	// SaveStatus is the map-list save outcome for this place.
	SaveStatus SaveStatus `json:"save_status" yaml:"save_status"`

	// Failure carries a per-item error message when search or persistence
	// failed for this candidate.
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`
}
