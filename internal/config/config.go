// Copyright 2025 Muziris, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the Twelve Labs video-understanding service, indexing behavior,
// prompt templates, frame extraction, and telemetry.
//
// Structs:
//   - Application: General application settings (name, port, log format).
//   - TwelveLabs: Connection settings for the remote video service.
//   - IndexModel: A single remote model enabled on a new index.
//   - Indexing: Polling cadence and deadline for the indexing state machine.
//   - Search: Page limit and modalities for similarity search.
//   - PromptTemplates: Text templates for the analysis prompt and search query.
//   - FFmpeg: Location of the ffmpeg executable used for frame extraction.
//   - Telemetry: OTLP exporter settings.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
//   - (c *Config) APIKey: Resolves the Twelve Labs API key from the environment.
package config

import "os"

// Application holds general application settings.
type Application struct {
	Name      string `toml:"name"`       // The name of the application, used as the telemetry service name.
	Port      int    `toml:"port"`       // The TCP port the HTTP server listens on.
	LogFormat string `toml:"log_format"` // "json" for structured output, anything else for console (tint).
}

// TwelveLabs represents the connection settings for the Twelve Labs API.
// The API key itself is never stored in a config file; only the name of the
// environment variable that carries it is.
type TwelveLabs struct {
	BaseURL           string `toml:"base_url"`             // The API base URL (e.g., "https://api.twelvelabs.io/v1.3").
	APIKeyEnv         string `toml:"api_key_env"`          // The environment variable holding the API key.
	RequestsPerSecond int    `toml:"requests_per_second"`  // Rate limit applied by the quota-aware client wrapper.
	MaxRetries        int    `toml:"max_retries"`          // Maximum transport-level retries per call.
	TimeoutInSeconds  int    `toml:"timeout_in_seconds"`   // Per-request HTTP timeout.
}

// IndexModel describes one remote model enabled on a newly created index,
// for example pegasus for analysis or marengo for visual search.
type IndexModel struct {
	Name    string   `toml:"name"`    // The remote model name (e.g., "pegasus1.2").
	Options []string `toml:"options"` // The modality options to enable (e.g., ["visual", "audio"]).
}

// Indexing configures the polling state machine that waits for a video
// to finish indexing on the remote service.
type Indexing struct {
	PollIntervalInSeconds int  `toml:"poll_interval_in_seconds"` // Fixed interval between status checks.
	PollTimeoutInSeconds  int  `toml:"poll_timeout_in_seconds"`  // Overall deadline for reaching a terminal state.
	EnableVideoStream     bool `toml:"enable_video_stream"`      // Whether to request HLS streaming (needed for thumbnail fallback).
}

// Search configures the similarity-search call.
type Search struct {
	PageLimit  int      `toml:"page_limit"` // Size of the single result page requested.
	Modalities []string `toml:"modalities"` // Search modalities (e.g., ["visual"]).
}

// PromptTemplates holds the templates for text sent to the remote service.
type PromptTemplates struct {
	Analysis    string `toml:"analysis"`     // The template for the natural-language analysis prompt.
	SearchQuery string `toml:"search_query"` // The template for the similarity-search query.
}

// FFmpeg holds the location of the ffmpeg executable. Frame quality is a
// deliberate constant of the extractor, not a configurable value.
type FFmpeg struct {
	CommandPath string `toml:"command_path"` // Path to the ffmpeg binary; defaults to "ffmpeg" on PATH.
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Enabled      bool   `toml:"enabled"`       // When false, no exporters are installed (spans become no-ops).
	OTLPEndpoint string `toml:"otlp_endpoint"` // Endpoint for the OTLP HTTP trace and metric exporters.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other
// configuration structs.
type Config struct {
	Application     Application           `toml:"application"`
	TwelveLabs      TwelveLabs            `toml:"twelve_labs"`
	IndexModels     map[string]IndexModel `toml:"index_models"` // Keyed by a logical name (e.g., "analysis", "search").
	Indexing        Indexing              `toml:"indexing"`
	Search          Search                `toml:"search"`
	PromptTemplates PromptTemplates       `toml:"prompt_templates"`
	FFmpeg          FFmpeg                `toml:"ffmpeg"`
	Telemetry       Telemetry             `toml:"telemetry"`
}

// NewConfig creates a new, initialized Config instance. The map fields must
// be initialized before the TOML decoder populates them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		IndexModels: make(map[string]IndexModel),
	}
}

// APIKey resolves the Twelve Labs API key from the environment variable
// named in the configuration.
func (c *Config) APIKey() string {
	return os.Getenv(c.TwelveLabs.APIKeyEnv)
}
