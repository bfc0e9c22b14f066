// Copyright 2025 Muziris, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package main is the entry point for the vehicle media search server.
//
// This application runs a web server using the Gin framework. It exposes
// a REST API that accepts a video upload plus a vehicle description and
// answers with an AI-generated analysis of whether the vehicle appears in
// the footage, together with a screenshot of the best visual match. The
// server is instrumented with OpenTelemetry for logging, tracing, and
// metrics.
//
// Functions:
//   - main: Sets up the server, configures routes, initializes state, and
//     handles graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/muziris/vehicle-media-search/internal/api"
	"github.com/muziris/vehicle-media-search/internal/telemetry"
)

const serviceName = "vehicle-match-server"

// main orchestrates logging, telemetry, configuration, state, the web
// server, and graceful shutdown on interrupt.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from TOML files.
	cfg := GetConfig()

	telemetry.SetupLogging(cfg.Application.LogFormat)
	slog.Info("Logging initialized")

	// Initialize OpenTelemetry for distributed tracing and metrics.
	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, cfg)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Initialize the application's state, including the API client and
	// the match workflow.
	InitState()
	slog.Info("Initialized State")

	r := gin.Default()

	// Trace incoming requests; a span is created for each one.
	r.Use(otelgin.Middleware(serviceName))

	// cors.Default() is permissive, which suits the local frontend.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		api.SearchRouter(apiV1, state.matcher)
		api.Dashboard(apiV1, serviceName)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Application.Port),
		Handler: r,
		// Uploads and indexing are slow; allow generous request windows.
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", cfg.Application.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed", "error", err)
	}

	log.Println("Server exiting")
}
