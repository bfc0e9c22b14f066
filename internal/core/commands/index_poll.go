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

// This file defines the command that waits for provider-side indexing to
// finish.
//
// Logic Flow:
// Indexing is asynchronous and can take minutes for long footage. The
// poller re-reads the indexed asset at a fixed interval until it reaches a
// terminal status, the deadline passes, or the request context is
// canceled. Only the "ready" status lets the chain continue; "failed", a
// timeout, and cancellation all abort the job.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// Terminal poll outcomes other than success.
var (
	ErrIndexingFailed  = errors.New("indexing failed")
	ErrIndexingTimeout = errors.New("indexing did not finish before the deadline")
)

// IndexPoll is a command that blocks until the indexed asset reaches a
// terminal status or the configured deadline expires.
type IndexPoll struct {
	cor.BaseCommand
	config *config.Config
	client twelvelabs.API
}

// NewIndexPoll is the constructor for the IndexPoll command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - config: The application's configuration object, which carries the
//     poll interval and deadline.
//   - client: The video-understanding API client.
//
// Outputs:
//   - *IndexPoll: A pointer to the newly instantiated command.
func NewIndexPoll(name string, config *config.Config, client twelvelabs.API) *IndexPoll {
	return &IndexPoll{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		client:      client}
}

// IsExecutable verifies the session carries an indexed-asset ID to watch.
func (c *IndexPoll) IsExecutable(context cor.Context) bool {
	session, ok := context.Get(c.GetInputParam()).(*model.MatchSession)
	return ok && session.IndexedAssetID != ""
}

// Execute polls the indexed asset until it settles.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *IndexPoll) Execute(context cor.Context) {
	session := context.Get(c.GetInputParam()).(*model.MatchSession)
	ctx := context.GetContext()

	interval := time.Duration(c.config.Indexing.PollIntervalInSeconds) * time.Second
	deadline := time.Now().Add(time.Duration(c.config.Indexing.PollTimeoutInSeconds) * time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		indexed, err := c.client.GetIndexedAsset(ctx, session.IndexID, session.IndexedAssetID)
		if err != nil {
			c.GetErrorCounter().Add(ctx, 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to read indexing status: %w", err))
			return
		}

		slog.Debug("indexing status",
			"index_id", session.IndexID,
			"indexed_asset_id", session.IndexedAssetID,
			"status", indexed.Status)

		if indexed.TerminalStatus() {
			if indexed.Status == twelvelabs.StatusFailed {
				c.GetErrorCounter().Add(ctx, 1)
				context.AddError(c.GetName(), ErrIndexingFailed)
				return
			}
			c.GetSuccessCounter().Add(ctx, 1)
			context.Add(c.GetOutputParam(), session)
			return
		}

		if time.Now().After(deadline) {
			c.GetErrorCounter().Add(ctx, 1)
			context.AddError(c.GetName(), ErrIndexingTimeout)
			return
		}

		select {
		case <-ctx.Done():
			c.GetErrorCounter().Add(ctx, 1)
			context.AddError(c.GetName(), ctx.Err())
			return
		case <-ticker.C:
		}
	}
}
