/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
accelbench - Accelerated Compression Benchmark Runner.

USAGE:
======

	accelbench

accelbench takes no flags. Configuration comes from, in increasing
precedence: built-in defaults, the JSON file named by ACCELBENCH_CONFIG,
a .env file in the working directory, and ACCELBENCH_* environment
variables.

ENVIRONMENT VARIABLES:
======================

	ACCELBENCH_CODECS         Codecs to run (default: deflate)
	ACCELBENCH_BACKENDS       Engine backends (default: software,hardware)
	ACCELBENCH_SIZES          Source sizes, e.g. 64K,1M
	ACCELBENCH_CHUNK_COUNTS   Parallel chunk counts, e.g. 1,4,16
	ACCELBENCH_REPORT_PATH    Write the report here when set
	ACCELBENCH_REPORT_FORMAT  json or avro

RUN SEQUENCE:
=============
1. Load configuration
2. Initialize logging
3. Start the metrics server when enabled
4. Run every case of every codec
5. Print the summary and write the report
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"accelbench/internal/banner"
	"accelbench/internal/bench"
	"accelbench/internal/config"
	"accelbench/internal/logging"
	"accelbench/internal/metrics"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	banner.PrintRunWithConfigTo(os.Stdout, cfg)

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	logger := logging.NewLogger("main")
	logger.Info("Starting accelbench", "version", banner.Version)

	metricsServer := metrics.NewServer(&cfg.Metrics)
	if err := metricsServer.Start(); err != nil {
		logger.Error("Failed to start metrics server", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := metricsServer.Stop(); err != nil {
			logger.Error("Error stopping metrics server", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Run failed", "error", err)
		stop()
		metricsServer.Stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	runner, err := bench.NewRunner(cfg, metrics.Get())
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	banner.PrintSummaryTo(os.Stdout, report)

	if cfg.Report.Path == "" {
		return nil
	}
	if err := report.WriteFile(cfg.Report.Path, cfg.Report.Format); err != nil {
		return err
	}
	logger.Info("Report written", "path", cfg.Report.Path, "format", cfg.Report.Format, "run_id", report.RunID)
	return nil
}
