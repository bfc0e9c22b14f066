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

// Package main contains the setup and initialization logic for the
// application's state. This file creates a centralized state manager that
// holds all shared dependencies: configuration, the rate-limited Twelve
// Labs client, the FFmpeg frame extractor, and the vehicle-match workflow.
//
// Functions:
//   - SetupOS: Configures the environment variables the configuration
//     loader uses to find the correct TOML files.
//   - GetConfig: A singleton function that loads the application's
//     configuration from TOML files, ensuring it is loaded only once.
//   - InitState: The core initialization function that creates the API
//     client, wraps it with quota awareness, and builds the workflow.
package main

import (
	"log"
	"os"
	"time"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/workflow"
	"github.com/muziris/vehicle-media-search/internal/media"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

// StateManager holds the shared dependencies for the application, acting
// as a centralized container for clients and configuration. This avoids
// global variables and keeps dependency wiring in one place.
type StateManager struct {
	config  *config.Config
	client  twelvelabs.API
	matcher *workflow.VehicleMatchWorkflow
}

// state holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables that the configuration loader
// uses to find the correct TOML files: the config directory prefix and
// the runtime name whose override file gets layered on top of the base.
//
// Outputs:
//   - error: An error if setting any of the environment variables fails.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// The config loader will look for ".env.local.toml" to override the
	// base settings.
	err = os.Setenv(config.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application
// configuration, loading it from the file system on first call.
//
// Outputs:
//   - *config.Config: A pointer to the loaded application configuration.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to set up config environment: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}

// InitState initializes the entire application state.
//
// It performs the following steps:
//  1. Loads the application configuration.
//  2. Creates the Twelve Labs REST client, keyed from the environment.
//  3. Wraps the client with rate limiting and bounded retries.
//  4. Builds the FFmpeg frame extractor and the vehicle-match workflow.
func InitState() {
	cfg := GetConfig()

	base := twelvelabs.NewClient(
		cfg.TwelveLabs.BaseURL,
		cfg.APIKey(),
		time.Duration(cfg.TwelveLabs.TimeoutInSeconds)*time.Second)

	state.client = twelvelabs.NewQuotaAwareClient(
		base,
		cfg.TwelveLabs.RequestsPerSecond,
		cfg.TwelveLabs.MaxRetries)

	extractor := media.NewFrameExtractor(cfg.FFmpeg.CommandPath)

	state.matcher = workflow.NewVehicleMatchWorkflow(cfg, state.client, extractor)
}
