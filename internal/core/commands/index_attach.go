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

// This file defines the command that attaches an uploaded asset to the
// job's index, which kicks off provider-side processing.
package commands

import (
	"fmt"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// IndexAttach is a command that submits the uploaded asset for indexing.
// Video streaming is enabled per configuration so HLS thumbnails are
// available later as a screenshot fallback.
type IndexAttach struct {
	cor.BaseCommand
	config *config.Config
	client twelvelabs.API
}

// NewIndexAttach is the constructor for the IndexAttach command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - config: The application's configuration object.
//   - client: The video-understanding API client.
//
// Outputs:
//   - *IndexAttach: A pointer to the newly instantiated command.
func NewIndexAttach(name string, config *config.Config, client twelvelabs.API) *IndexAttach {
	return &IndexAttach{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		client:      client}
}

// IsExecutable verifies the session carries both the index and asset IDs.
func (c *IndexAttach) IsExecutable(context cor.Context) bool {
	session, ok := context.Get(c.GetInputParam()).(*model.MatchSession)
	return ok && session.IndexID != "" && session.AssetID != ""
}

// Execute attaches the asset and records the indexed-asset ID that the
// poller will watch.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *IndexAttach) Execute(context cor.Context) {
	session := context.Get(c.GetInputParam()).(*model.MatchSession)

	indexed, err := c.client.AttachAssetToIndex(
		context.GetContext(),
		session.IndexID,
		session.AssetID,
		c.config.Indexing.EnableVideoStream)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to attach asset to index: %w", err))
		return
	}

	session.IndexedAssetID = indexed.ID
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), session)
}
