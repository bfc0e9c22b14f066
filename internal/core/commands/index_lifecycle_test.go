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

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/commands"
	"github.com/muziris/vehicle-media-search/internal/core/cor"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	test "github.com/muziris/vehicle-media-search/internal/testutil"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

func modelsConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.IndexModels[commands.ModelRoleAnalysis] = config.IndexModel{Name: "pegasus1.2", Options: []string{"visual", "audio"}}
	cfg.IndexModels[commands.ModelRoleSearch] = config.IndexModel{Name: "marengo2.7", Options: []string{"visual", "audio"}}
	cfg.Indexing.EnableVideoStream = true
	return cfg
}

func TestIndexCreate(t *testing.T) {
	var gotName string
	var gotModels []twelvelabs.IndexModelSpec
	fake := &test.FakeAPI{
		CreateIndexFunc: func(_ context.Context, name string, models []twelvelabs.IndexModelSpec) (*twelvelabs.Index, error) {
			gotName = name
			gotModels = models
			return &twelvelabs.Index{ID: "idx-new", Name: name}, nil
		},
	}

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, "/tmp/some-video.mp4")

	create := commands.NewIndexCreate("create-index", modelsConfig(), fake)
	create.Execute(ctx)

	require.False(t, ctx.HasErrors())
	assert.True(t, strings.HasPrefix(gotName, "vehicle-match-"))
	require.Len(t, gotModels, 2)
	// The analysis model always comes first.
	assert.Equal(t, "pegasus1.2", gotModels[0].Name)
	assert.Equal(t, "marengo2.7", gotModels[1].Name)

	session, ok := ctx.Get(cor.CtxOut).(*model.MatchSession)
	require.True(t, ok)
	assert.Equal(t, "idx-new", session.IndexID)
}

func TestIndexCreateUniqueNames(t *testing.T) {
	names := make(map[string]bool)
	fake := &test.FakeAPI{
		CreateIndexFunc: func(_ context.Context, name string, _ []twelvelabs.IndexModelSpec) (*twelvelabs.Index, error) {
			names[name] = true
			return &twelvelabs.Index{ID: "idx", Name: name}, nil
		},
	}

	create := commands.NewIndexCreate("create-index", modelsConfig(), fake)
	for i := 0; i < 3; i++ {
		ctx := cor.NewBaseContext()
		ctx.SetContext(context.Background())
		ctx.Add(cor.CtxIn, "/tmp/video.mp4")
		create.Execute(ctx)
		require.False(t, ctx.HasErrors())
	}
	assert.Len(t, names, 3)
}

func TestAssetUploadRecordsAssetID(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video"), 0o644))

	var gotPath string
	fake := &test.FakeAPI{
		UploadAssetFunc: func(_ context.Context, filePath, _ string) (*twelvelabs.Asset, error) {
			gotPath = filePath
			return &twelvelabs.Asset{ID: "asset-7"}, nil
		},
	}

	session := &model.MatchSession{IndexID: "idx-1"}
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(commands.KeyVideoPath, videoPath)
	ctx.Add(cor.CtxIn, session)

	upload := commands.NewAssetUpload("upload-asset", fake)
	require.True(t, upload.IsExecutable(ctx))
	upload.Execute(ctx)

	require.False(t, ctx.HasErrors())
	assert.Equal(t, videoPath, gotPath)
	assert.Equal(t, "asset-7", session.AssetID)
	assert.Same(t, session, ctx.Get(cor.CtxOut))
}

func TestIndexAttachPassesVideoStreamFlag(t *testing.T) {
	var gotStream bool
	fake := &test.FakeAPI{
		AttachAssetToIndexFunc: func(_ context.Context, indexID, assetID string, enableVideoStream bool) (*twelvelabs.IndexedAsset, error) {
			assert.Equal(t, "idx-1", indexID)
			assert.Equal(t, "asset-7", assetID)
			gotStream = enableVideoStream
			return &twelvelabs.IndexedAsset{ID: "ia-3", Status: twelvelabs.StatusQueued}, nil
		},
	}

	session := &model.MatchSession{IndexID: "idx-1", AssetID: "asset-7"}
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, session)

	attach := commands.NewIndexAttach("attach-asset", modelsConfig(), fake)
	require.True(t, attach.IsExecutable(ctx))
	attach.Execute(ctx)

	require.False(t, ctx.HasErrors())
	assert.True(t, gotStream)
	assert.Equal(t, "ia-3", session.IndexedAssetID)
}

func TestAnalyzeRendersPromptAndCollectsText(t *testing.T) {
	tmpl, err := template.New("analysis-prompt").Parse(
		"Analyze the video completely. Is there a {{.COLOR}} {{.MAKE}} {{.MODEL}}?")
	require.NoError(t, err)

	var gotPrompt string
	fake := &test.FakeAPI{
		AnalyzeFunc: func(_ context.Context, indexedAssetID, prompt string) (twelvelabs.AnalyzeStream, error) {
			assert.Equal(t, "ia-1", indexedAssetID)
			gotPrompt = prompt
			return test.NewStaticAnalyzeStream("Yes. ", "A red Toyota Camry ", "appears at 12 seconds."), nil
		},
	}

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(commands.KeyMatchRequest, &model.MatchRequest{Make: "Toyota", Model: "Camry", Color: "red"})
	ctx.Add(cor.CtxIn, &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"})

	analyze := commands.NewAnalyze("analyze-video", fake, tmpl)
	require.True(t, analyze.IsExecutable(ctx))
	analyze.Execute(ctx)

	require.False(t, ctx.HasErrors())
	assert.Equal(t, "Analyze the video completely. Is there a red Toyota Camry?", gotPrompt)
	assert.Equal(t, "Yes. A red Toyota Camry appears at 12 seconds.", ctx.Get(commands.KeyAnalysis))
}

func TestAnalyzeErrorIsFatal(t *testing.T) {
	tmpl := template.Must(template.New("analysis-prompt").Parse("prompt"))
	fake := &test.FakeAPI{
		AnalyzeFunc: func(_ context.Context, _, _ string) (twelvelabs.AnalyzeStream, error) {
			return nil, &twelvelabs.APIError{StatusCode: 500, Message: "model unavailable"}
		},
	}

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(commands.KeyMatchRequest, &model.MatchRequest{Make: "Kia", Model: "Soul", Color: "green"})
	ctx.Add(cor.CtxIn, &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"})

	analyze := commands.NewAnalyze("analyze-video", fake, tmpl)
	analyze.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cor.CtxOut))
}
