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

// Package twelvelabs is a thin client for the Twelve Labs
// video-understanding API. This file implements the streaming analysis
// reader: the provider returns newline-delimited JSON events, which are
// surfaced one at a time until the stream is exhausted.
package twelvelabs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// AnalyzeStream is an ordered, finite sequence of analysis events. Recv
// returns io.EOF after the final event. A stream is not restartable; a new
// analysis requires a new Analyze call.
type AnalyzeStream interface {
	// Recv returns the next event, or io.EOF when the stream is exhausted.
	Recv() (*AnalyzeEvent, error)

	// Close releases the underlying connection. Safe after EOF.
	Close() error

	// CollectText drains the stream and concatenates the text of every
	// text_generation event, in arrival order.
	CollectText() (string, error)
}

// analyzeStream reads newline-delimited JSON events from a response body.
type analyzeStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newAnalyzeStream(body io.ReadCloser) AnalyzeStream {
	scanner := bufio.NewScanner(body)
	// Generated text fragments can be sizable; allow lines up to 1 MiB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &analyzeStream{body: body, scanner: scanner}
}

// Recv parses the next non-empty line as an event.
func (s *analyzeStream) Recv() (*AnalyzeEvent, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		// Tolerate SSE-style framing as well as bare NDJSON.
		line = strings.TrimPrefix(line, "data: ")
		event := &AnalyzeEvent{}
		if err := json.Unmarshal([]byte(line), event); err != nil {
			return nil, fmt.Errorf("malformed analyze event: %w", err)
		}
		return event, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the underlying response body.
func (s *analyzeStream) Close() error {
	return s.body.Close()
}

// CollectText drains the stream, keeping only generated text, and closes it.
func (s *analyzeStream) CollectText() (string, error) {
	defer func() { _ = s.Close() }()

	var builder strings.Builder
	for {
		event, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if event.EventType == EventTypeTextGeneration {
			builder.WriteString(event.Text)
		}
	}
	return builder.String(), nil
}
