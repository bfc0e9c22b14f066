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

package twelvelabs

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeStreamRecv(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		`{"event_type":"stream_start"}
{"event_type":"text_generation","text":"The video shows "}

{"event_type":"text_generation","text":"a red sedan."}
{"event_type":"stream_end"}
`))
	stream := newAnalyzeStream(body)

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "stream_start", first.EventType)

	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, EventTypeTextGeneration, second.EventType)
	assert.Equal(t, "The video shows ", second.Text)

	// The blank line between events is skipped.
	third, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a red sedan.", third.Text)

	fourth, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "stream_end", fourth.EventType)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestAnalyzeStreamSSEFraming(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"event_type\":\"text_generation\",\"text\":\"hello\"}\n"))
	stream := newAnalyzeStream(body)

	event, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "hello", event.Text)
}

func TestAnalyzeStreamMalformedLine(t *testing.T) {
	body := io.NopCloser(strings.NewReader("not json\n"))
	stream := newAnalyzeStream(body)

	_, err := stream.Recv()
	assert.Error(t, err)
}

func TestCollectTextKeepsFragmentOrder(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		`{"event_type":"stream_start"}
{"event_type":"text_generation","text":"one "}
{"event_type":"text_generation","text":"two "}
{"event_type":"text_generation","text":"three"}
{"event_type":"stream_end"}
`))
	stream := newAnalyzeStream(body)

	text, err := stream.CollectText()
	require.NoError(t, err)
	assert.Equal(t, "one two three", text)
}
