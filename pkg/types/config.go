package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mapscout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DedupConfig holds settings for the admission registry.
type DedupConfig struct {
	// Capacity bounds the completed-identifier set (default 1000). When
	// exceeded, the numerically lowest half is evicted.
	Capacity int `json:"capacity" yaml:"capacity"`
}

// ResolveConfig holds settings for the source resolution stage.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// TempDir is the directory for downloaded media artifacts. The
	// pipeline deletes artifacts once a work item reaches a terminal state.
	TempDir string `json:"temp_dir" yaml:"temp_dir"`

	// MaxImages bounds how many images are downloaded per post (default 10).
	MaxImages int `json:"max_images" yaml:"max_images"`

	// YtdlpPath is the yt-dlp binary used for video downloads (default "yt-dlp").
	YtdlpPath string `json:"ytdlp_path" yaml:"ytdlp_path"`

	// GalleryDLPath is the gallery-dl binary used for image posts (default "gallery-dl").
	GalleryDLPath string `json:"gallerydl_path" yaml:"gallerydl_path"`

	// CookiesFile is an optional Netscape cookies.txt passed to the
	// download tools for authenticated access.
	CookiesFile string `json:"cookies_file,omitempty" yaml:"cookies_file,omitempty"`
}

// AnalysisConfig holds settings for the analysis stage.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxImages bounds how many images are forwarded to the image
	// describer (default 5).
	MaxImages int `json:"max_images" yaml:"max_images"`

	// SpeechServiceURL is the transcription collaborator endpoint.
	// Empty disables transcription.
	SpeechServiceURL string `json:"speech_service_url,omitempty" yaml:"speech_service_url,omitempty"`

	// VisionServiceURL is the visual-description collaborator endpoint.
	// Empty disables visual analysis.
	VisionServiceURL string `json:"vision_service_url,omitempty" yaml:"vision_service_url,omitempty"`
}

// ExtractionConfig holds settings for the place extraction stage.
type ExtractionConfig struct {
	// Host is the model server base URL (default "http://localhost:11434").
	Host string `json:"host" yaml:"host"`

	// Model is the model identifier used for extraction.
	Model string `json:"model" yaml:"model"`

	// Temperature is the sampling temperature (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts for failed model calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PlacesConfig holds settings for the place search stage.
type PlacesConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the place search API. When empty the
	// client degrades to composing plain maps search URLs.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RegionCode biases search results (default "TW").
	RegionCode string `json:"region_code" yaml:"region_code"`

	// LanguageCode selects the result language (default "zh-TW").
	LanguageCode string `json:"language_code" yaml:"language_code"`
}

// SheetsConfig holds settings for the best-effort spreadsheet sync.
type SheetsConfig struct {
	HTTPConfig `yaml:",inline"`

	// WebhookURL is the row-append endpoint. Empty disables the sync.
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
}

// MaplistConfig holds settings for the external map-list saver.
type MaplistConfig struct {
	HTTPConfig `yaml:",inline"`

	// ServiceURL is the browser-automation service endpoint. Empty
	// disables saving.
	ServiceURL string `json:"service_url,omitempty" yaml:"service_url,omitempty"`

	// ListName is the target list for saved places (default "想去").
	ListName string `json:"list_name" yaml:"list_name"`
}

// StoreConfig holds settings for the durable place store.
type StoreConfig struct {
	// DataDir is the directory containing the SQLite database and exports.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default limit for listing queries (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Dedup      DedupConfig      `json:"dedup" yaml:"dedup"`
	Resolve    ResolveConfig    `json:"resolve" yaml:"resolve"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Places     PlacesConfig     `json:"places" yaml:"places"`
	Sheets     SheetsConfig     `json:"sheets" yaml:"sheets"`
	Maplist    MaplistConfig    `json:"maplist" yaml:"maplist"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
