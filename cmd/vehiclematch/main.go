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

// Package main is a command-line front end for the vehicle-match
// workflow. It runs the same pipeline as the server against a local video
// file and prints the result as JSON, which is handy for scripting and
// for exercising the pipeline without a browser.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muziris/vehicle-media-search/internal/config"
	"github.com/muziris/vehicle-media-search/internal/core/model"
	"github.com/muziris/vehicle-media-search/internal/core/workflow"
	"github.com/muziris/vehicle-media-search/internal/media"
	"github.com/muziris/vehicle-media-search/internal/twelvelabs"
)

func main() {
	var (
		filePath     string
		vehicleMake  string
		vehicleModel string
		vehicleColor string
		runtime      string
	)

	rootCmd := &cobra.Command{
		Use:   "vehiclematch",
		Short: "Search a video for a described vehicle",
		Long: "vehiclematch uploads a local video to the Twelve Labs " +
			"video-understanding service, waits for indexing, and reports " +
			"whether the described vehicle appears in the footage, along " +
			"with a screenshot of the best visual match.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.Setenv(config.EnvConfigRuntime, runtime); err != nil {
				return err
			}
			if os.Getenv(config.EnvConfigFilePrefix) == "" {
				if err := os.Setenv(config.EnvConfigFilePrefix, "configs"); err != nil {
					return err
				}
			}

			cfg := config.NewConfig()
			config.LoadConfig(cfg)

			base := twelvelabs.NewClient(
				cfg.TwelveLabs.BaseURL,
				cfg.APIKey(),
				time.Duration(cfg.TwelveLabs.TimeoutInSeconds)*time.Second)
			client := twelvelabs.NewQuotaAwareClient(
				base,
				cfg.TwelveLabs.RequestsPerSecond,
				cfg.TwelveLabs.MaxRetries)
			extractor := media.NewFrameExtractor(cfg.FFmpeg.CommandPath)
			matcher := workflow.NewVehicleMatchWorkflow(cfg, client, extractor)

			video, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open video: %w", err)
			}
			defer func() { _ = video.Close() }()

			request := &model.MatchRequest{
				Make:  vehicleMake,
				Model: vehicleModel,
				Color: vehicleColor,
			}

			slog.Info("starting vehicle match",
				"file", filePath,
				"make", request.Make,
				"model", request.Model,
				"color", request.Color)

			result, err := matcher.Run(context.Background(), request, video)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "path of the video file to search")
	rootCmd.Flags().StringVar(&vehicleMake, "make", "unknown", "vehicle make, e.g. Toyota")
	rootCmd.Flags().StringVar(&vehicleModel, "model", "unknown", "vehicle model, e.g. Camry")
	rootCmd.Flags().StringVar(&vehicleColor, "color", "unknown", "vehicle color, e.g. red")
	rootCmd.Flags().StringVar(&runtime, "runtime", "local", "configuration runtime to load")
	_ = rootCmd.MarkFlagRequired("file")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("vehicle match failed", "error", err)
		os.Exit(1)
	}
}
