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

// Package test provides utility functions and mock implementations to
// support the application's test suite. It loads the test-specific
// configuration, provides a scriptable fake of the video-understanding
// API, and generates small local media artifacts for the FFmpeg tests.
package test

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so TOML files are read only once.
type StateManager struct {
	config *config.Config
}

var state = &StateManager{}

// HandleErr fails the test when an error is present. A convenience to
// reduce boilerplate error-checking code in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS configures the environment variables the configuration loader
// depends on, directing it at the test override file ".env.test.toml".
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. The first
// call sets up the environment and loads the TOML files; later calls
// return the cached struct.
//
// Returns:
//   - A pointer to the loaded and cached config.Config struct.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}

// FakeAPI is a scriptable implementation of the video-understanding API.
// Each method delegates to the matching function field when set and falls
// back to a benign canned response otherwise, so tests only script the
// calls they care about.
type FakeAPI struct {
	CreateIndexFunc        func(ctx context.Context, name string, models []twelvelabs.IndexModelSpec) (*twelvelabs.Index, error)
	UploadAssetFunc        func(ctx context.Context, filePath string, mimeType string) (*twelvelabs.Asset, error)
	AttachAssetToIndexFunc func(ctx context.Context, indexID string, assetID string, enableVideoStream bool) (*twelvelabs.IndexedAsset, error)
	GetIndexedAssetFunc    func(ctx context.Context, indexID string, indexedAssetID string) (*twelvelabs.IndexedAsset, error)
	AnalyzeFunc            func(ctx context.Context, indexedAssetID string, prompt string) (twelvelabs.AnalyzeStream, error)
	SearchFunc             func(ctx context.Context, indexID string, query string, modalities []string, pageLimit int) ([]*twelvelabs.SearchMatch, error)
	DeleteIndexFunc        func(ctx context.Context, indexID string) error
}

var _ twelvelabs.API = (*FakeAPI)(nil)

func (f *FakeAPI) CreateIndex(ctx context.Context, name string, models []twelvelabs.IndexModelSpec) (*twelvelabs.Index, error) {
	if f.CreateIndexFunc != nil {
		return f.CreateIndexFunc(ctx, name, models)
	}
	return &twelvelabs.Index{ID: "index-0001", Name: name}, nil
}

func (f *FakeAPI) UploadAsset(ctx context.Context, filePath string, mimeType string) (*twelvelabs.Asset, error) {
	if f.UploadAssetFunc != nil {
		return f.UploadAssetFunc(ctx, filePath, mimeType)
	}
	return &twelvelabs.Asset{ID: "asset-0001"}, nil
}

func (f *FakeAPI) AttachAssetToIndex(ctx context.Context, indexID string, assetID string, enableVideoStream bool) (*twelvelabs.IndexedAsset, error) {
	if f.AttachAssetToIndexFunc != nil {
		return f.AttachAssetToIndexFunc(ctx, indexID, assetID, enableVideoStream)
	}
	return &twelvelabs.IndexedAsset{ID: "indexed-0001", Status: twelvelabs.StatusQueued}, nil
}

func (f *FakeAPI) GetIndexedAsset(ctx context.Context, indexID string, indexedAssetID string) (*twelvelabs.IndexedAsset, error) {
	if f.GetIndexedAssetFunc != nil {
		return f.GetIndexedAssetFunc(ctx, indexID, indexedAssetID)
	}
	return &twelvelabs.IndexedAsset{ID: indexedAssetID, Status: twelvelabs.StatusReady}, nil
}

func (f *FakeAPI) Analyze(ctx context.Context, indexedAssetID string, prompt string) (twelvelabs.AnalyzeStream, error) {
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, indexedAssetID, prompt)
	}
	return NewStaticAnalyzeStream("Yes, the vehicle appears in the video."), nil
}

func (f *FakeAPI) Search(ctx context.Context, indexID string, query string, modalities []string, pageLimit int) ([]*twelvelabs.SearchMatch, error) {
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, indexID, query, modalities, pageLimit)
	}
	return []*twelvelabs.SearchMatch{}, nil
}

func (f *FakeAPI) DeleteIndex(ctx context.Context, indexID string) error {
	if f.DeleteIndexFunc != nil {
		return f.DeleteIndexFunc(ctx, indexID)
	}
	return nil
}

// staticAnalyzeStream replays a fixed sequence of analysis events.
type staticAnalyzeStream struct {
	events []*twelvelabs.AnalyzeEvent
	pos    int
}

// NewStaticAnalyzeStream builds an AnalyzeStream that emits one
// text_generation event per fragment and then EOF.
func NewStaticAnalyzeStream(fragments ...string) twelvelabs.AnalyzeStream {
	events := make([]*twelvelabs.AnalyzeEvent, 0, len(fragments))
	for _, fragment := range fragments {
		events = append(events, &twelvelabs.AnalyzeEvent{
			EventType: twelvelabs.EventTypeTextGeneration,
			Text:      fragment,
		})
	}
	return &staticAnalyzeStream{events: events}
}

func (s *staticAnalyzeStream) Recv() (*twelvelabs.AnalyzeEvent, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	event := s.events[s.pos]
	s.pos++
	return event, nil
}

func (s *staticAnalyzeStream) Close() error { return nil }

func (s *staticAnalyzeStream) CollectText() (string, error) {
	out := ""
	for {
		event, err := s.Recv()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return "", err
		}
		if event.EventType == twelvelabs.EventTypeTextGeneration {
			out += event.Text
		}
	}
}

// WriteTestJPEG encodes a solid-color JPEG of the given size at path.
//
// Inputs:
//   - t: The current test, failed fatally on any write error.
//   - path: Destination file path.
//   - width, height: Image dimensions in pixels.
func WriteTestJPEG(t *testing.T, path string, width int, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 40, B: 40, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer func() { _ = file.Close() }()
	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
}

// WriteStubFFmpeg writes an executable shell script that mimics FFmpeg by
// copying a prepared JPEG to the output path, which FFmpeg-style argument
// lists always place last.
//
// Inputs:
//   - t: The current test, failed fatally on any write error.
//   - dir: Directory to place the stub in.
//   - framePath: The JPEG the stub copies to its output argument.
//
// Returns:
//   - The path of the stub executable.
func WriteStubFFmpeg(t *testing.T, dir string, framePath string) string {
	t.Helper()
	script := "#!/bin/sh\nfor last in \"$@\"; do :; done\ncp \"" + framePath + "\" \"$last\"\n"
	path := filepath.Join(dir, "ffmpeg-stub")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write ffmpeg stub: %v", err)
	}
	return path
}
