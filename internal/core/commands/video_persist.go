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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that persists an uploaded video stream to local disk.
//
// Logic Flow:
// Downstream steps (the provider upload and the FFmpeg frame extraction)
// both need a seekable local file, so the very first step of the workflow
// is to drain the upload into the temp directory. The file gets a unique
// name so concurrent requests cannot collide, and its extension is
// recovered by sniffing the leading bytes, since multipart uploads do not
// reliably carry one.
//
//  1. Get the upload's io.Reader from the COR context.
//  2. Copy it to a uniquely named file in the system temp directory.
//  3. Sniff the file's magic bytes with the `filetype` library and rename
//     the file to carry the detected extension.
//  4. Track the file in the context for cleanup and record its path both
//     as the chain output and on the MatchRequest.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
)

const uploadPrefix = "upload-"

// VideoPersist is a command that writes the uploaded video stream to a
// tracked temp file so later steps can read it as a local path.
type VideoPersist struct {
	cor.BaseCommand
}

// NewVideoPersist is the constructor for the VideoPersist command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//
// Outputs:
//   - *VideoPersist: A pointer to the newly instantiated command.
func NewVideoPersist(name string) *VideoPersist {
	return &VideoPersist{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable verifies the context carries a readable upload stream.
func (c *VideoPersist) IsExecutable(context cor.Context) bool {
	_, ok := context.Get(c.GetInputParam()).(io.Reader)
	return ok
}

// Execute drains the upload to disk and publishes the resulting path.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *VideoPersist) Execute(context cor.Context) {
	source := context.Get(c.GetInputParam()).(io.Reader)

	tempPath := filepath.Join(os.TempDir(), uploadPrefix+uuid.NewString())
	tempFile, err := os.Create(tempPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create temp file: %w", err))
		return
	}
	context.AddTempFile(tempPath)

	if _, err = io.Copy(tempFile, source); err != nil {
		_ = tempFile.Close()
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist upload: %w", err))
		return
	}
	if err = tempFile.Close(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to flush upload: %w", err))
		return
	}

	// Recover the container format from magic bytes so the file carries a
	// meaningful extension for tools that care about one.
	finalPath := tempPath
	if kind, err := filetype.MatchFile(tempPath); err == nil && kind != filetype.Unknown {
		withExt := tempPath + "." + kind.Extension
		if err := os.Rename(tempPath, withExt); err == nil {
			finalPath = withExt
			context.AddTempFile(withExt)
		}
	}

	if req, ok := context.Get(KeyMatchRequest).(*model.MatchRequest); ok {
		req.VideoPath = finalPath
	}
	context.Add(KeyVideoPath, finalPath)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), finalPath)
}
