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
	"github.com/muziris/vehicle-media-search/internal/media"
	test "github.com/muziris/vehicle-media-search/internal/testutil"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

func searchConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Search.PageLimit = 5
	cfg.Search.Modalities = []string{"visual"}
	return cfg
}

func queryTemplate(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := template.New("search-query").Parse("a {{.COLOR}} {{.MAKE}} {{.MODEL}}")
	require.NoError(t, err)
	return tmpl
}

// resolveContext builds a chain context mid-workflow: request, analysis,
// and session are already in place.
func resolveContext(request *model.MatchRequest, session *model.MatchSession) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(commands.KeyMatchRequest, request)
	ctx.Add(commands.KeyAnalysis, "Yes, the vehicle appears at the start.")
	ctx.Add(cor.CtxIn, session)
	return ctx
}

// workingExtractor returns an extractor whose FFmpeg stub produces a real
// JPEG, plus the video path the request should carry.
func workingExtractor(t *testing.T) (*media.FrameExtractor, string) {
	t.Helper()
	dir := t.TempDir()

	framePath := filepath.Join(dir, "prepared.jpg")
	test.WriteTestJPEG(t, framePath, 64, 48)
	stubPath := test.WriteStubFFmpeg(t, dir, framePath)

	videoPath := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video"), 0o644))

	return media.NewFrameExtractor(stubPath), videoPath
}

// brokenExtractor returns an extractor whose FFmpeg stub always fails.
func brokenExtractor(t *testing.T) (*media.FrameExtractor, string) {
	t.Helper()
	dir := t.TempDir()

	failPath := filepath.Join(dir, "ffmpeg-fail")
	require.NoError(t, os.WriteFile(failPath, []byte("#!/bin/sh\nexit 1\n"), 0o755))

	videoPath := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video"), 0o644))

	return media.NewFrameExtractor(failPath), videoPath
}

func TestMatchResolveFirstResultWins(t *testing.T) {
	extractor, videoPath := workingExtractor(t)

	var gotQuery string
	fake := &test.FakeAPI{
		SearchFunc: func(_ context.Context, indexID, query string, modalities []string, pageLimit int) ([]*twelvelabs.SearchMatch, error) {
			gotQuery = query
			assert.Equal(t, "idx-1", indexID)
			assert.Equal(t, []string{"visual"}, modalities)
			assert.Equal(t, 5, pageLimit)
			// A later match carries a higher score; provider order still wins.
			return []*twelvelabs.SearchMatch{
				{Start: 12.0, End: 18.0, Score: 0.90},
				{Start: 30.0, End: 36.0, Score: 0.95},
			}, nil
		},
	}

	request := &model.MatchRequest{Make: "Toyota", Model: "Camry", Color: "red", VideoPath: videoPath}
	session := &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"}
	ctx := resolveContext(request, session)

	resolve := commands.NewMatchResolve("resolve-match", searchConfig(), fake, extractor, queryTemplate(t))
	resolve.Execute(ctx)
	t.Cleanup(ctx.Close)

	require.False(t, ctx.HasErrors())
	result, ok := ctx.Get(cor.CtxOut).(*model.MatchResult)
	require.True(t, ok)

	assert.Equal(t, "a red Toyota Camry", gotQuery)
	require.NotNil(t, result.Timestamp)
	assert.Equal(t, 12.0, *result.Timestamp)
	require.NotNil(t, result.Screenshot)
	assert.True(t, strings.HasPrefix(*result.Screenshot, "data:image/jpeg;base64,"))
	assert.Equal(t, "Yes, the vehicle appears at the start.", result.Analysis)

	// The result must also sit under its own key so it survives the
	// chain's output-to-input piping after the final command.
	keyed, ok := ctx.Get(commands.KeyMatchResult).(*model.MatchResult)
	require.True(t, ok)
	assert.Same(t, result, keyed)
}

func TestMatchResolveNoMatches(t *testing.T) {
	extractor, videoPath := workingExtractor(t)

	fake := &test.FakeAPI{
		SearchFunc: func(_ context.Context, _, _ string, _ []string, _ int) ([]*twelvelabs.SearchMatch, error) {
			return []*twelvelabs.SearchMatch{}, nil
		},
	}

	request := &model.MatchRequest{Make: "Ford", Model: "F-150", Color: "blue", VideoPath: videoPath}
	ctx := resolveContext(request, &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"})

	resolve := commands.NewMatchResolve("resolve-match", searchConfig(), fake, extractor, queryTemplate(t))
	resolve.Execute(ctx)

	require.False(t, ctx.HasErrors())
	result := ctx.Get(cor.CtxOut).(*model.MatchResult)
	assert.Nil(t, result.Screenshot)
	assert.Nil(t, result.Timestamp)
	assert.NotEmpty(t, result.Analysis)
}

func TestMatchResolveSearchFailureDegrades(t *testing.T) {
	extractor, videoPath := workingExtractor(t)

	fake := &test.FakeAPI{
		SearchFunc: func(_ context.Context, _, _ string, _ []string, _ int) ([]*twelvelabs.SearchMatch, error) {
			return nil, &twelvelabs.APIError{StatusCode: 500, Message: "search exploded"}
		},
	}

	request := &model.MatchRequest{Make: "Honda", Model: "Civic", Color: "black", VideoPath: videoPath}
	ctx := resolveContext(request, &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"})

	resolve := commands.NewMatchResolve("resolve-match", searchConfig(), fake, extractor, queryTemplate(t))
	resolve.Execute(ctx)

	// The analysis survives; only the visual fields degrade.
	require.False(t, ctx.HasErrors())
	result := ctx.Get(cor.CtxOut).(*model.MatchResult)
	assert.Nil(t, result.Screenshot)
	assert.Nil(t, result.Timestamp)
}

func TestMatchResolveThumbnailFallback(t *testing.T) {
	extractor, videoPath := brokenExtractor(t)

	fake := &test.FakeAPI{
		SearchFunc: func(_ context.Context, _, _ string, _ []string, _ int) ([]*twelvelabs.SearchMatch, error) {
			return []*twelvelabs.SearchMatch{{Start: 5.0, End: 9.0, Score: 0.8}}, nil
		},
		GetIndexedAssetFunc: func(_ context.Context, _, indexedAssetID string) (*twelvelabs.IndexedAsset, error) {
			return &twelvelabs.IndexedAsset{
				ID:     indexedAssetID,
				Status: twelvelabs.StatusReady,
				HLS:    &twelvelabs.HLSInfo{ThumbnailURLs: []string{"https://cdn.example/thumb.jpg"}},
			}, nil
		},
	}

	request := &model.MatchRequest{Make: "Tesla", Model: "Model 3", Color: "white", VideoPath: videoPath}
	ctx := resolveContext(request, &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"})

	resolve := commands.NewMatchResolve("resolve-match", searchConfig(), fake, extractor, queryTemplate(t))
	resolve.Execute(ctx)

	require.False(t, ctx.HasErrors())
	result := ctx.Get(cor.CtxOut).(*model.MatchResult)
	require.NotNil(t, result.Screenshot)
	assert.Equal(t, "https://cdn.example/thumb.jpg", *result.Screenshot)
	require.NotNil(t, result.Timestamp)
	assert.Equal(t, 5.0, *result.Timestamp)
}

func TestMatchResolveNoThumbnailLeavesScreenshotNull(t *testing.T) {
	extractor, videoPath := brokenExtractor(t)

	fake := &test.FakeAPI{
		SearchFunc: func(_ context.Context, _, _ string, _ []string, _ int) ([]*twelvelabs.SearchMatch, error) {
			return []*twelvelabs.SearchMatch{{Start: 7.5, End: 11.0, Score: 0.7}}, nil
		},
		GetIndexedAssetFunc: func(_ context.Context, _, indexedAssetID string) (*twelvelabs.IndexedAsset, error) {
			return &twelvelabs.IndexedAsset{ID: indexedAssetID, Status: twelvelabs.StatusReady}, nil
		},
	}

	request := &model.MatchRequest{Make: "Mazda", Model: "CX-5", Color: "gray", VideoPath: videoPath}
	ctx := resolveContext(request, &model.MatchSession{IndexID: "idx-1", IndexedAssetID: "ia-1"})

	resolve := commands.NewMatchResolve("resolve-match", searchConfig(), fake, extractor, queryTemplate(t))
	resolve.Execute(ctx)

	require.False(t, ctx.HasErrors())
	result := ctx.Get(cor.CtxOut).(*model.MatchResult)
	assert.Nil(t, result.Screenshot)
	// The timestamp is still known even though no screenshot could be made.
	require.NotNil(t, result.Timestamp)
	assert.Equal(t, 7.5, *result.Timestamp)
}
