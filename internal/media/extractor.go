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

// Package media provides local video handling built on the FFmpeg
// command-line tool. This file defines the still-frame extractor used to
// capture a screenshot at a known timestamp inside a video file.
//
// Logic Flow:
//  1. Seek to the requested timestamp with `-ss` placed before the input,
//     which makes FFmpeg use keyframe seeking and keeps extraction fast
//     even on long videos.
//  2. Decode exactly one frame (`-frames:v 1`) and encode it as a
//     high-quality JPEG (`-q:v 2`, roughly quality 95).
//  3. Probe the resulting JPEG header to confirm the frame decoded and to
//     report its dimensions. A zero-byte or unparsable output means the
//     seek landed past the end of the stream or the source is corrupt.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // registers the JPEG decoder for DecodeConfig
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Extraction failure modes. ErrSourceUnavailable covers a missing or
// unreadable input file; ErrDecodeFailure covers an FFmpeg run that
// produced no usable frame.
var (
	ErrSourceUnavailable = errors.New("media: source video unavailable")
	ErrDecodeFailure     = errors.New("media: frame decode failed")
)

const (
	// frameArgs is a format string for the FFmpeg invocation.
	// -y: Overwrite output files without asking.
	// -hide_banner: Suppresses the printing of the FFmpeg banner.
	// -ss %s: Seeks to the target timestamp before opening the input.
	// -i %s: Specifies the input file.
	// -frames:v 1: Decodes exactly one video frame.
	// -q:v 2: JPEG quantizer 2, the highest practical quality setting.
	frameArgs        = "-y -hide_banner -ss %s -i %s -frames:v 1 -q:v 2 %s"
	framePrefix      = "frame-"
	commandSeparator = " "
)

// Frame is a single still image captured from a video.
type Frame struct {
	Path   string // Local path of the JPEG file.
	Width  int
	Height int
}

// FrameExtractor captures still frames from local video files by shelling
// out to FFmpeg.
type FrameExtractor struct {
	commandPath string
}

// NewFrameExtractor creates an extractor that runs the FFmpeg binary at
// the given path ("ffmpeg" resolves via PATH).
func NewFrameExtractor(commandPath string) *FrameExtractor {
	return &FrameExtractor{commandPath: commandPath}
}

// ExtractFrame captures the frame at the given timestamp (in seconds) from
// the video at videoPath and writes it to a uniquely named JPEG in the
// system temp directory. The caller owns the returned file and is
// responsible for removing it.
//
// Inputs:
//   - ctx: Context used to cancel a long-running FFmpeg process.
//   - videoPath: Local path of the source video.
//   - timestamp: Offset into the video, in seconds.
//
// Outputs:
//   - *Frame: The captured frame with its dimensions.
//   - error: ErrSourceUnavailable or ErrDecodeFailure on failure.
func (f *FrameExtractor) ExtractFrame(ctx context.Context, videoPath string, timestamp float64) (*Frame, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, videoPath)
	}

	outputPath := fmt.Sprintf("%s%c%s%s.jpg", os.TempDir(), os.PathSeparator, framePrefix, uuid.NewString())
	seek := strconv.FormatFloat(timestamp, 'f', 3, 64)

	args := fmt.Sprintf(frameArgs, seek, videoPath, outputPath)
	cmd := exec.CommandContext(ctx, f.commandPath, strings.Split(args, commandSeparator)...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outputPath)
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	width, height, err := probeJPEG(outputPath)
	if err != nil {
		_ = os.Remove(outputPath)
		return nil, err
	}

	return &Frame{Path: outputPath, Width: width, Height: height}, nil
}

// probeJPEG reads just the image header to validate the frame and report
// its dimensions without decoding pixel data.
func probeJPEG(path string) (width int, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	defer func() { _ = file.Close() }()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return cfg.Width, cfg.Height, nil
}
