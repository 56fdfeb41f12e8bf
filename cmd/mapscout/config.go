// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/mapscout/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "mapscout/0.1"
	defaultModel     = "qwen2.5:7b"
	defaultListName  = "想去"
)

// pipelineConfig assembles the full stage configuration from the config
// file, environment, and loaded secrets.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("resolve.temp_dir", "temp")
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("extraction.model", defaultModel)
	viper.SetDefault("extraction.temperature", 0.3)
	viper.SetDefault("maplist.list_name", defaultListName)

	httpCfg := types.HTTPConfig{
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	}

	// The config file wins over .secrets/ for the model host; without
	// either, fall back to a local server.
	modelHost := secretDefault("model-host", viper.GetString("extraction.host"))
	if modelHost == "" {
		modelHost = "http://localhost:11434"
	}

	return types.PipelineConfig{
		Dedup: types.DedupConfig{
			Capacity: viper.GetInt("dedup.capacity"),
		},
		Resolve: types.ResolveConfig{
			HTTPConfig:    httpCfg,
			TempDir:       viper.GetString("resolve.temp_dir"),
			MaxImages:     viper.GetInt("resolve.max_images"),
			YtdlpPath:     viper.GetString("resolve.ytdlp_path"),
			GalleryDLPath: viper.GetString("resolve.gallerydl_path"),
			CookiesFile:   viper.GetString("resolve.cookies_file"),
		},
		Analysis: types.AnalysisConfig{
			HTTPConfig:       httpCfg,
			MaxImages:        viper.GetInt("analysis.max_images"),
			SpeechServiceURL: viper.GetString("analysis.speech_service_url"),
			VisionServiceURL: viper.GetString("analysis.vision_service_url"),
		},
		Extraction: types.ExtractionConfig{
			Host:        modelHost,
			Model:       viper.GetString("extraction.model"),
			Temperature: viper.GetFloat64("extraction.temperature"),
			MaxRetries:  viper.GetInt("extraction.max_retries"),
		},
		Places: types.PlacesConfig{
			HTTPConfig:   httpCfg,
			APIKey:       secretDefault("places-api-key", viper.GetString("places.api_key")),
			RegionCode:   viper.GetString("places.region_code"),
			LanguageCode: viper.GetString("places.language_code"),
		},
		Sheets: types.SheetsConfig{
			HTTPConfig: httpCfg,
			WebhookURL: secretDefault("sheets-webhook-url", viper.GetString("sheets.webhook_url")),
		},
		Maplist: types.MaplistConfig{
			HTTPConfig: httpCfg,
			ServiceURL: secretDefault("maplist-service-url", viper.GetString("maplist.service_url")),
			ListName:   viper.GetString("maplist.list_name"),
		},
		Store: types.StoreConfig{
			DataDir:    viper.GetString("store.data_dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
	}
}
