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

// This file defines a small statistics endpoint used by deployment health
// checks and by the frontend to confirm the backend is reachable.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Dashboard configures the statistics route group.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/stats" route group will be added.
//
// The GET /stats endpoint reports the service name and how long the
// process has been up.
func Dashboard(r *gin.RouterGroup, serviceName string) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service": serviceName,
				"uptime":  time.Since(startTime).String(),
			})
		})
	}
}
