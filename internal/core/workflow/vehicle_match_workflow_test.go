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

package workflow_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/core/workflow"
	"github.com/muziris/vehicle-media-search/internal/media"
	test "github.com/muziris/vehicle-media-search/internal/testutil"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

func workflowConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.IndexModels["analysis"] = config.IndexModel{Name: "pegasus1.2", Options: []string{"visual", "audio"}}
	cfg.IndexModels["search"] = config.IndexModel{Name: "marengo2.7", Options: []string{"visual", "audio"}}
	cfg.Indexing.PollIntervalInSeconds = 1
	cfg.Indexing.PollTimeoutInSeconds = 10
	cfg.Indexing.EnableVideoStream = true
	cfg.Search.PageLimit = 5
	cfg.Search.Modalities = []string{"visual"}
	cfg.PromptTemplates.Analysis = "Analyze the video completely. Is there a {{.COLOR}} {{.MAKE}} {{.MODEL}}?"
	cfg.PromptTemplates.SearchQuery = "a {{.COLOR}} {{.MAKE}} {{.MODEL}}"
	return cfg
}

func testExtractor(t *testing.T) *media.FrameExtractor {
	t.Helper()
	dir := t.TempDir()
	framePath := filepath.Join(dir, "prepared.jpg")
	test.WriteTestJPEG(t, framePath, 64, 48)
	return media.NewFrameExtractor(test.WriteStubFFmpeg(t, dir, framePath))
}

func TestWorkflowEndToEnd(t *testing.T) {
	fake := &test.FakeAPI{
		SearchFunc: func(_ context.Context, _, query string, _ []string, _ int) ([]*twelvelabs.SearchMatch, error) {
			assert.Equal(t, "a red Toyota Camry", query)
			return []*twelvelabs.SearchMatch{{Start: 12.0, End: 18.0, Score: 0.9}}, nil
		},
	}

	matcher := workflow.NewVehicleMatchWorkflow(workflowConfig(), fake, testExtractor(t))
	request := &model.MatchRequest{Make: "Toyota", Model: "Camry", Color: "red"}

	result, err := matcher.Run(context.Background(), request, bytes.NewReader([]byte("fake video bytes")))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Analysis)
	require.NotNil(t, result.Timestamp)
	assert.Equal(t, 12.0, *result.Timestamp)
	require.NotNil(t, result.Screenshot)
	assert.True(t, strings.HasPrefix(*result.Screenshot, "data:image/jpeg;base64,"))

	// The persisted upload was reclaimed when the run finished.
	require.NotEmpty(t, request.VideoPath)
	_, statErr := os.Stat(request.VideoPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWorkflowNoVisualMatch(t *testing.T) {
	fake := &test.FakeAPI{} // default search returns no matches

	matcher := workflow.NewVehicleMatchWorkflow(workflowConfig(), fake, testExtractor(t))
	request := &model.MatchRequest{Make: "Ford", Model: "F-150", Color: "blue"}

	result, err := matcher.Run(context.Background(), request, bytes.NewReader([]byte("fake video bytes")))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Analysis)
	assert.Nil(t, result.Screenshot)
	assert.Nil(t, result.Timestamp)
}

func TestWorkflowIndexingFailureAbortsBeforeAnalysis(t *testing.T) {
	analyzeCalled := false
	searchCalled := false
	fake := &test.FakeAPI{
		GetIndexedAssetFunc: func(_ context.Context, _, indexedAssetID string) (*twelvelabs.IndexedAsset, error) {
			return &twelvelabs.IndexedAsset{ID: indexedAssetID, Status: twelvelabs.StatusFailed}, nil
		},
		AnalyzeFunc: func(_ context.Context, _, _ string) (twelvelabs.AnalyzeStream, error) {
			analyzeCalled = true
			return test.NewStaticAnalyzeStream("should not run"), nil
		},
		SearchFunc: func(_ context.Context, _, _ string, _ []string, _ int) ([]*twelvelabs.SearchMatch, error) {
			searchCalled = true
			return nil, nil
		},
	}

	matcher := workflow.NewVehicleMatchWorkflow(workflowConfig(), fake, testExtractor(t))
	request := &model.MatchRequest{Make: "Kia", Model: "Soul", Color: "green"}

	_, err := matcher.Run(context.Background(), request, bytes.NewReader([]byte("fake video bytes")))
	require.Error(t, err)
	assert.False(t, analyzeCalled)
	assert.False(t, searchCalled)

	// Cleanup still ran on the failure path.
	require.NotEmpty(t, request.VideoPath)
	_, statErr := os.Stat(request.VideoPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWorkflowUploadFailure(t *testing.T) {
	fake := &test.FakeAPI{
		UploadAssetFunc: func(_ context.Context, _, _ string) (*twelvelabs.Asset, error) {
			return nil, &twelvelabs.APIError{StatusCode: 500, Message: "upload rejected"}
		},
	}

	matcher := workflow.NewVehicleMatchWorkflow(workflowConfig(), fake, testExtractor(t))
	request := &model.MatchRequest{Make: "Audi", Model: "A4", Color: "silver"}

	_, err := matcher.Run(context.Background(), request, bytes.NewReader([]byte("fake video bytes")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload")
}
