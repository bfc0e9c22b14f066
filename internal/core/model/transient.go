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

// Package model defines the data structures that move through the
// vehicle-match workflow. These are transient, request-scoped objects;
// nothing in this package is persisted.
package model

// MatchRequest describes a single vehicle-match job: the vehicle being
// looked for and the uploaded video to look for it in. Descriptors that
// the caller omits default to "unknown" so prompts stay well formed.
type MatchRequest struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Color string `json:"color"`

	// VideoPath is the local path of the persisted upload. Populated by
	// the workflow once the request body has been written to disk.
	VideoPath string `json:"-"`
}

// VehicleDescriptor flattens the request into the template parameters used
// to render analysis prompts and search queries.
//
// Outputs:
//   - map[string]string: Keys MAKE, MODEL, and COLOR.
func (r *MatchRequest) VehicleDescriptor() map[string]string {
	return map[string]string{
		"MAKE":  r.Make,
		"MODEL": r.Model,
		"COLOR": r.Color,
	}
}

// MatchResult is the outcome of a completed vehicle-match job. Screenshot
// and Timestamp are nil when visual search found no usable moment, which
// is a valid degraded outcome rather than an error.
type MatchResult struct {
	// Analysis is the full generated text describing whether and where
	// the vehicle appears in the video.
	Analysis string `json:"analysis"`

	// Screenshot is a base64 data URI (image/jpeg) of the best-match
	// frame, or an HLS thumbnail URL when local extraction failed.
	Screenshot *string `json:"screenshot"`

	// Timestamp is the offset, in seconds, of the best visual match.
	Timestamp *float64 `json:"timestamp"`
}

// MatchSession carries the provider-side identifiers created while
// processing one request. The workflow uses it to hand IDs between steps
// and to tear the index down afterwards.
type MatchSession struct {
	IndexID        string
	AssetID        string
	IndexedAssetID string
}
