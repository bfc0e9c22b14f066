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

// Package twelvelabs is a thin client for the Twelve Labs
// video-understanding API. This file defines the wire-level data
// structures the client exchanges with the service: indexes, assets,
// indexed assets and their processing status, search matches, and the
// events of a streaming analysis.
package twelvelabs

// Indexed-asset processing states as reported by the remote service.
// Ready and Failed are the terminal states.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// EventTypeTextGeneration tags analysis stream events that carry generated
// text. Other event types (stream metadata) carry no text and are skipped
// by consumers.
const EventTypeTextGeneration = "text_generation"

// IndexModelSpec names a remote model and the modality options to enable
// when creating an index.
type IndexModelSpec struct {
	Name    string   `json:"model_name"`
	Options []string `json:"model_options"`
}

// Index identifies a remote container into which assets are ingested for
// search and analysis.
type Index struct {
	ID   string `json:"_id"`
	Name string `json:"index_name,omitempty"`
}

// Asset represents a single uploaded video object inside the remote
// service, before it is attached to any index.
type Asset struct {
	ID string `json:"_id"`
}

// HLSInfo carries the streaming metadata of an indexed asset, including
// provider-hosted preview thumbnails used as a fallback screenshot source.
type HLSInfo struct {
	VideoURL      string   `json:"video_url,omitempty"`
	ThumbnailURLs []string `json:"thumbnail_urls,omitempty"`
}

// IndexedAsset is the association of an asset with an index. Its status is
// mutated only by the remote service and observed via polling.
type IndexedAsset struct {
	ID     string   `json:"_id"`
	Status string   `json:"status"`
	HLS    *HLSInfo `json:"hls,omitempty"`
}

// TerminalStatus reports whether the indexed asset has reached a state the
// service will not leave.
func (a *IndexedAsset) TerminalStatus() bool {
	return a.Status == StatusReady || a.Status == StatusFailed
}

// ThumbnailURLs returns the HLS thumbnail URLs, or nil when the asset has
// no streaming metadata.
func (a *IndexedAsset) ThumbnailURLs() []string {
	if a.HLS == nil {
		return nil
	}
	return a.HLS.ThumbnailURLs
}

// SearchMatch is one ranked result of a similarity search. Start and End
// are offsets in seconds from the beginning of the video.
type SearchMatch struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// AnalyzeEvent is one element of the streaming analysis response.
type AnalyzeEvent struct {
	EventType string `json:"event_type"`
	Text      string `json:"text,omitempty"`
}
