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

// Package api contains the REST route definitions for the server. This
// file defines the vehicle-match search endpoint, which accepts a video
// upload plus a vehicle description and runs the full match workflow.
//
// Functions:
//   - SearchRouter: Registers the POST /search route on the given group.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/core/workflow"
)

// unknownDescriptor stands in for any vehicle field the caller omitted so
// prompts and search queries stay well formed.
const unknownDescriptor = "unknown"

// SearchRouter configures the vehicle-match search endpoint.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the "/search" route group is added.
//   - matcher: The workflow that processes one match job end to end.
//
// The endpoint accepts multipart/form-data with the fields:
//   - media: The video file to search (required).
//   - make, model, color: Vehicle descriptors, each defaulting to "unknown".
//
// Responses:
//   - 200 {"status":"success","analysis":...,"screenshot":...,"timestamp":...}
//   - 400 {"status":"error","message":"No file uploaded"} when media is missing.
//   - 500 {"status":"error","message":...} when the workflow fails.
func SearchRouter(r *gin.RouterGroup, matcher *workflow.VehicleMatchWorkflow) {
	search := r.Group("/search")
	{
		search.POST("", func(c *gin.Context) {
			request := &model.MatchRequest{
				Make:  c.DefaultPostForm("make", unknownDescriptor),
				Model: c.DefaultPostForm("model", unknownDescriptor),
				Color: c.DefaultPostForm("color", unknownDescriptor),
			}

			fileHeader, err := c.FormFile("media")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"status":  "error",
					"message": "No file uploaded",
				})
				return
			}

			upload, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": err.Error(),
				})
				return
			}
			defer func() { _ = upload.Close() }()

			slog.Info("vehicle match requested",
				"make", request.Make,
				"model", request.Model,
				"color", request.Color,
				"file", fileHeader.Filename)

			result, err := matcher.Run(c.Request.Context(), request, upload)
			if err != nil {
				slog.Error("vehicle match failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": err.Error(),
				})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"status":     "success",
				"analysis":   result.Analysis,
				"screenshot": result.Screenshot,
				"timestamp":  result.Timestamp,
			})
		})
	}
}
