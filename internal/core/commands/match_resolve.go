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

// This file defines the final command of the vehicle-match workflow. It
// runs the visual similarity search, captures a screenshot of the best
// moment, and assembles the MatchResult.
//
// Logic Flow:
// Everything in this step degrades gracefully. A failed search, an empty
// result set, or a failed frame capture never aborts the job; the analysis
// text is always worth returning, so failures here only null out the
// screenshot and timestamp fields.
//
//  1. Render the search query from the vehicle descriptors and run a
//     visual search against the job's index.
//  2. Take the first returned match and use its start offset as the
//     result timestamp.
//  3. Capture a still frame at that offset from the local video file and
//     inline it as a base64 data URI.
//  4. If local capture fails, fall back to the provider's HLS thumbnail
//     for the video, and to a null screenshot when there is none.
package commands

import (
	"bytes"
	"encoding/base64"
	"log/slog"
	"os"
	"text/template"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/media"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

const dataURIPrefix = "data:image/jpeg;base64,"

// MatchResolve is a command that turns the indexed, analyzed video into
// the final MatchResult with an optional screenshot and timestamp.
type MatchResolve struct {
	cor.BaseCommand
	config    *config.Config
	client    twelvelabs.API
	extractor *media.FrameExtractor
	template  *template.Template // The Go template for building the search query.
}

// NewMatchResolve is the constructor for the MatchResolve command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - config: The application's configuration object.
//   - client: The video-understanding API client.
//   - extractor: The FFmpeg-backed still-frame extractor.
//   - template: A parsed Go template for the search query.
//
// Outputs:
//   - *MatchResolve: A pointer to the newly instantiated command.
func NewMatchResolve(
	name string,
	config *config.Config,
	client twelvelabs.API,
	extractor *media.FrameExtractor,
	template *template.Template) *MatchResolve {

	return &MatchResolve{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		client:      client,
		extractor:   extractor,
		template:    template}
}

// IsExecutable verifies the session, request, and analysis are present.
func (c *MatchResolve) IsExecutable(context cor.Context) bool {
	if _, ok := context.Get(c.GetInputParam()).(*model.MatchSession); !ok {
		return false
	}
	if _, ok := context.Get(KeyMatchRequest).(*model.MatchRequest); !ok {
		return false
	}
	_, ok := context.Get(KeyAnalysis).(string)
	return ok
}

// Execute assembles the MatchResult, degrading to null media fields on any
// search or capture failure.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *MatchResolve) Execute(context cor.Context) {
	session := context.Get(c.GetInputParam()).(*model.MatchSession)
	request := context.Get(KeyMatchRequest).(*model.MatchRequest)

	result := &model.MatchResult{
		Analysis: context.Get(KeyAnalysis).(string),
	}

	if match := c.bestMatch(context, session, request); match != nil {
		timestamp := match.Start
		result.Timestamp = &timestamp
		result.Screenshot = c.screenshot(context, session, request, timestamp)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	// The chain consumes the output slot when it pipes to the next step,
	// so the result is published under its own key for the caller too.
	context.Add(KeyMatchResult, result)
	context.Add(c.GetOutputParam(), result)
}

// bestMatch runs the visual search and returns its top-ranked moment, or
// nil when the search failed or matched nothing.
func (c *MatchResolve) bestMatch(context cor.Context, session *model.MatchSession, request *model.MatchRequest) *twelvelabs.SearchMatch {
	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, request.VehicleDescriptor()); err != nil {
		slog.Warn("failed to render search query", "error", err)
		return nil
	}

	matches, err := c.client.Search(
		context.GetContext(),
		session.IndexID,
		buffer.String(),
		c.config.Search.Modalities,
		c.config.Search.PageLimit)
	if err != nil {
		slog.Warn("visual search failed", "index_id", session.IndexID, "error", err)
		return nil
	}
	if len(matches) == 0 {
		slog.Info("visual search found no matches", "index_id", session.IndexID)
		return nil
	}

	// Results arrive ranked by relevance, so the first one is the winner.
	return matches[0]
}

// screenshot captures the frame at the given offset as an inline data URI,
// falling back to the provider's HLS thumbnail when local capture fails.
func (c *MatchResolve) screenshot(context cor.Context, session *model.MatchSession, request *model.MatchRequest, timestamp float64) *string {
	frame, err := c.extractor.ExtractFrame(context.GetContext(), request.VideoPath, timestamp)
	if err == nil {
		context.AddTempFile(frame.Path)
		if encoded, readErr := encodeFrame(frame.Path); readErr == nil {
			return &encoded
		} else {
			slog.Warn("failed to encode captured frame", "path", frame.Path, "error", readErr)
		}
	} else {
		slog.Warn("frame capture failed", "video", request.VideoPath, "timestamp", timestamp, "error", err)
	}

	indexed, err := c.client.GetIndexedAsset(context.GetContext(), session.IndexID, session.IndexedAssetID)
	if err != nil {
		slog.Warn("thumbnail lookup failed", "indexed_asset_id", session.IndexedAssetID, "error", err)
		return nil
	}
	if thumbs := indexed.ThumbnailURLs(); len(thumbs) > 0 {
		return &thumbs[0]
	}
	return nil
}

// encodeFrame reads a JPEG file and wraps it in an image/jpeg data URI.
func encodeFrame(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}
