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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the vehicle-match workflow: upload, index, analyze, and screenshot a
// video for a described vehicle.
package workflow

import (
	"context"
	"fmt"
	"io"
	"text/template"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/commands"
	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/media"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// VehicleMatchWorkflow orchestrates one complete vehicle-match job. It is
// structured as a Chain of Responsibility (cor.Chain) whose commands hand
// the job's session object from step to step: persist the upload, create
// an index, upload and attach the asset, wait for indexing, run the
// analysis, and resolve the final match.
type VehicleMatchWorkflow struct {
	cor.BaseCommand
	config          *config.Config
	client          twelvelabs.API
	extractor       *media.FrameExtractor
	analysisTmpl    *template.Template
	searchQueryTmpl *template.Template
	chain           cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire vehicle-match workflow by invoking the
// underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (w *VehicleMatchWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Run is a convenience wrapper for callers outside the chain machinery. It
// seeds a fresh chain context with the request and the upload stream, runs
// the workflow, and returns the assembled result. Temp files created along
// the way are removed before Run returns, on success and failure alike.
//
// Inputs:
//   - ctx: The request context; cancellation aborts the indexing poll.
//   - request: The vehicle being looked for.
//   - video: The uploaded video stream.
//
// Outputs:
//   - *model.MatchResult: The completed result on success.
//   - error: The first error recorded by the chain, if any step failed.
func (w *VehicleMatchWorkflow) Run(ctx context.Context, request *model.MatchRequest, video io.Reader) (*model.MatchResult, error) {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	defer chainCtx.Close()

	chainCtx.Add(commands.KeyMatchRequest, request)
	chainCtx.Add(cor.CtxIn, video)

	w.Execute(chainCtx)

	if chainCtx.HasErrors() {
		// The chain stops at the first error, so the map holds one entry.
		for _, err := range chainCtx.GetErrors() {
			return nil, err
		}
	}

	// The final command publishes the result under its own key because the
	// chain's piping clears the output slot after every step.
	result, ok := chainCtx.Get(commands.KeyMatchResult).(*model.MatchResult)
	if !ok {
		return nil, fmt.Errorf("workflow %s completed without a result", w.GetName())
	}
	return result, nil
}

// initializeChain builds the sequence of commands that make up this
// workflow. Each command is an atomic unit of work; the session object
// produced in step 2 is threaded through every later step.
func (w *VehicleMatchWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Drain the uploaded stream to a tracked local temp file so
	// both the provider upload and the frame capture can read it.
	out.AddCommand(commands.NewVideoPersist("persist-video"))

	// Step 2: Provision a dedicated index for this job, configured with
	// the analysis and search models.
	out.AddCommand(commands.NewIndexCreate("create-index", w.config, w.client))

	// Step 3: Upload the local video to the provider's asset store.
	out.AddCommand(commands.NewAssetUpload("upload-asset", w.client))

	// Step 4: Attach the asset to the index, which starts provider-side
	// processing of the footage.
	out.AddCommand(commands.NewIndexAttach("attach-asset", w.config, w.client))

	// Step 5: Poll the indexed asset until it is ready, fails, or the
	// configured deadline passes.
	out.AddCommand(commands.NewIndexPoll("poll-indexing", w.config, w.client))

	// Step 6: Ask the analysis model whether the described vehicle
	// appears in the footage.
	out.AddCommand(commands.NewAnalyze("analyze-video", w.client, w.analysisTmpl))

	// Step 7: Run the visual search, capture the best-match frame, and
	// assemble the final result. This step degrades instead of failing.
	out.AddCommand(commands.NewMatchResolve("resolve-match", w.config, w.client, w.extractor, w.searchQueryTmpl))

	w.chain = out
}

// NewVehicleMatchWorkflow is the constructor for the VehicleMatchWorkflow.
// It compiles the prompt templates and initializes the command chain.
//
// Inputs:
//   - config: The application's overall configuration.
//   - client: The video-understanding API client, typically rate limited.
//   - extractor: The FFmpeg-backed still-frame extractor.
//
// Returns:
//   - A pointer to a newly created and fully initialized VehicleMatchWorkflow.
func NewVehicleMatchWorkflow(
	config *config.Config,
	client twelvelabs.API,
	extractor *media.FrameExtractor) *VehicleMatchWorkflow {

	analysisTmpl, err := template.New("analysis-prompt").Parse(config.PromptTemplates.Analysis)
	if err != nil {
		panic(err) // The app cannot run without valid templates.
	}
	searchQueryTmpl, err := template.New("search-query").Parse(config.PromptTemplates.SearchQuery)
	if err != nil {
		panic(err)
	}

	pipeline := &VehicleMatchWorkflow{
		BaseCommand:     *cor.NewBaseCommand("vehicle-match-pipeline"),
		config:          config,
		client:          client,
		extractor:       extractor,
		analysisTmpl:    analysisTmpl,
		searchQueryTmpl: searchQueryTmpl,
	}
	pipeline.initializeChain()
	return pipeline
}
