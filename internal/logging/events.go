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
Benchmark event logging for accelbench.

OVERVIEW:
=========
Provides structured logging for benchmark cases and engine jobs so that
every entry of one case can be correlated by its case name and run ID.

CASE LOGGING:
=============
- Case started: name, parameters
- Case finished: ratio, throughput, latency
- Case skipped: reason (failed compress, failed decompress, data mismatch)

JOB LOGGING:
============
- Job failed: operation, chunk index, error
- Slow job: latency above the configured threshold
*/
package logging

import (
	"time"
)

// CaseLogger logs benchmark case lifecycle events.
type CaseLogger struct {
	logger *Logger
}

// NewCaseLogger creates a new case logger.
func NewCaseLogger(logger *Logger) *CaseLogger {
	return &CaseLogger{logger: logger}
}

// LogCaseStarted logs the start of a case.
func (cl *CaseLogger) LogCaseStarted(name string, sizeBytes int, iterations int) {
	cl.logger.Debug("Case started",
		"case", name,
		"size_bytes", sizeBytes,
		"iterations", iterations,
	)
}

// LogCaseFinished logs the outcome of a verified case.
func (cl *CaseLogger) LogCaseFinished(name string, ratio float64, throughputMB float64, avgLatency time.Duration) {
	cl.logger.Info("Case finished",
		"case", name,
		"ratio", ratio,
		"throughput_mb_s", throughputMB,
		"avg_latency", avgLatency,
	)
}

// LogCaseSkipped logs a case that could not complete or verify.
func (cl *CaseLogger) LogCaseSkipped(name string, reason string, err error) {
	fields := []interface{}{"case", name, "reason", reason}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	cl.logger.Warn("Case skipped", fields...)
}

// JobLogger logs engine job events.
type JobLogger struct {
	logger        *Logger
	slowThreshold time.Duration
}

// NewJobLogger creates a new job logger. A zero threshold disables slow job
// logging.
func NewJobLogger(logger *Logger, slowThreshold time.Duration) *JobLogger {
	return &JobLogger{logger: logger, slowThreshold: slowThreshold}
}

// LogJobFailed logs a job that reached a failed state.
func (jl *JobLogger) LogJobFailed(operation string, chunk int, err error) {
	jl.logger.Warn("Job failed",
		"operation", operation,
		"chunk", chunk,
		"error", err,
	)
}

// LogJobLatency logs a completed job, at WARN when it exceeded the threshold.
func (jl *JobLogger) LogJobLatency(operation string, chunk int, latency time.Duration) {
	if jl.slowThreshold > 0 && latency > jl.slowThreshold {
		jl.logger.Warn("Slow job",
			"operation", operation,
			"chunk", chunk,
			"latency", latency,
		)
		return
	}
	jl.logger.Debug("Job completed",
		"operation", operation,
		"chunk", chunk,
		"latency", latency,
	)
}
