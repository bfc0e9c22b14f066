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

// This file defines the command that creates a per-request index on the
// video-understanding provider.
//
// Logic Flow:
// Every match job gets its own index so concurrent requests never see
// each other's footage. The index is configured with two models at
// creation time, one for open-ended analysis and one for visual search,
// because the provider does not allow models to be added after the fact.
//
//  1. Build a unique index name from a fixed prefix and a UUID.
//  2. Assemble the model specs from configuration, analysis model first.
//  3. Create the index and start a MatchSession carrying its ID.
package commands

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// Configuration keys for the two index models.
const (
	ModelRoleAnalysis = "analysis"
	ModelRoleSearch   = "search"

	indexNamePrefix = "vehicle-match-"
)

// IndexCreate is a command that provisions a fresh provider index for a
// single match job.
type IndexCreate struct {
	cor.BaseCommand
	config *config.Config
	client twelvelabs.API
}

// NewIndexCreate is the constructor for the IndexCreate command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - config: The application's configuration object.
//   - client: The video-understanding API client.
//
// Outputs:
//   - *IndexCreate: A pointer to the newly instantiated command.
func NewIndexCreate(name string, config *config.Config, client twelvelabs.API) *IndexCreate {
	return &IndexCreate{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		client:      client}
}

// modelSpecs assembles the index model list from configuration in a fixed
// order, analysis first.
func (c *IndexCreate) modelSpecs() []twelvelabs.IndexModelSpec {
	specs := make([]twelvelabs.IndexModelSpec, 0, 2)
	for _, role := range []string{ModelRoleAnalysis, ModelRoleSearch} {
		if im, ok := c.config.IndexModels[role]; ok {
			specs = append(specs, twelvelabs.IndexModelSpec{Name: im.Name, Options: im.Options})
		}
	}
	return specs
}

// Execute creates the index and seeds the session for the rest of the chain.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *IndexCreate) Execute(context cor.Context) {
	indexName := indexNamePrefix + uuid.NewString()

	index, err := c.client.CreateIndex(context.GetContext(), indexName, c.modelSpecs())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create index: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &model.MatchSession{IndexID: index.ID})
}
