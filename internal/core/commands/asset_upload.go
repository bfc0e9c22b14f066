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

// This file defines the command that uploads the persisted video file to
// the video-understanding provider's asset store.
//
// Logic Flow:
//  1. Take the MatchSession from the previous step and the local video
//     path recorded by the persist command.
//  2. Sniff the file's MIME type so the upload carries an accurate
//     content type.
//  3. Upload the file and record the returned asset ID on the session.
package commands

import (
	"fmt"

	"github.com/h2non/filetype"

	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// defaultVideoMIME is used when magic-byte sniffing cannot identify the
// container format.
const defaultVideoMIME = "video/mp4"

// AssetUpload is a command that pushes the local video into the provider's
// asset store ahead of indexing.
type AssetUpload struct {
	cor.BaseCommand
	client twelvelabs.API
}

// NewAssetUpload is the constructor for the AssetUpload command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - client: The video-understanding API client.
//
// Outputs:
//   - *AssetUpload: A pointer to the newly instantiated command.
func NewAssetUpload(name string, client twelvelabs.API) *AssetUpload {
	return &AssetUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client}
}

// IsExecutable verifies a session and a persisted video path are present.
func (c *AssetUpload) IsExecutable(context cor.Context) bool {
	if _, ok := context.Get(c.GetInputParam()).(*model.MatchSession); !ok {
		return false
	}
	_, ok := context.Get(KeyVideoPath).(string)
	return ok
}

// Execute uploads the video and records the asset ID on the session.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *AssetUpload) Execute(context cor.Context) {
	session := context.Get(c.GetInputParam()).(*model.MatchSession)
	videoPath := context.Get(KeyVideoPath).(string)

	mimeType := defaultVideoMIME
	if kind, err := filetype.MatchFile(videoPath); err == nil && kind != filetype.Unknown {
		mimeType = kind.MIME.Value
	}

	asset, err := c.client.UploadAsset(context.GetContext(), videoPath, mimeType)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to upload asset: %w", err))
		return
	}

	session.AssetID = asset.ID
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), session)
}
