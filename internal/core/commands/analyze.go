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

// This file defines the command that runs an open-ended natural-language
// analysis of the indexed video.
//
// Logic Flow:
//  1. Render the analysis prompt from a Go template, substituting the
//     vehicle's make, model, and color.
//  2. Open a streaming analysis against the indexed asset.
//  3. Drain the stream in arrival order, concatenating the generated text
//     fragments into the final analysis, and publish it for the result
//     assembly step.
package commands

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// Analyze is a command that asks the video-understanding model whether the
// requested vehicle appears in the footage.
type Analyze struct {
	cor.BaseCommand
	client   twelvelabs.API
	template *template.Template // The Go template for building the prompt.
}

// NewAnalyze is the constructor for the Analyze command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - client: The video-understanding API client.
//   - template: A parsed Go template for the analysis prompt.
//
// Outputs:
//   - *Analyze: A pointer to the newly instantiated command.
func NewAnalyze(name string, client twelvelabs.API, template *template.Template) *Analyze {
	return &Analyze{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		template:    template}
}

// IsExecutable verifies the session and the match request are present.
func (c *Analyze) IsExecutable(context cor.Context) bool {
	if session, ok := context.Get(c.GetInputParam()).(*model.MatchSession); !ok || session.IndexedAssetID == "" {
		return false
	}
	_, ok := context.Get(KeyMatchRequest).(*model.MatchRequest)
	return ok
}

// Execute renders the prompt, streams the analysis, and publishes the text.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *Analyze) Execute(context cor.Context) {
	session := context.Get(c.GetInputParam()).(*model.MatchSession)
	request := context.Get(KeyMatchRequest).(*model.MatchRequest)

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, request.VehicleDescriptor()); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	stream, err := c.client.Analyze(context.GetContext(), session.IndexedAssetID, buffer.String())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("analysis request failed: %w", err))
		return
	}

	analysis, err := stream.CollectText()
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("analysis stream failed: %w", err))
		return
	}

	context.Add(KeyAnalysis, analysis)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), session)
}
