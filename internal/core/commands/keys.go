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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the vehicle-match
// workflow. This file defines the shared context keys the commands use to
// exchange values that live outside the chain's input/output piping.
package commands

const (
	// KeyMatchRequest holds the *model.MatchRequest for the job.
	KeyMatchRequest = "vehicle_match_request"
	// KeyVideoPath holds the local path of the persisted upload.
	KeyVideoPath = "vehicle_match_video_path"
	// KeyAnalysis holds the generated analysis text.
	KeyAnalysis = "vehicle_match_analysis"
	// KeyMatchResult holds the assembled *model.MatchResult.
	KeyMatchResult = "vehicle_match_result"
)
