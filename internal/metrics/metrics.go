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
Package metrics provides Prometheus-compatible metrics for accelbench.

METRIC CATEGORIES:
==================
- Dispatch: calls, failures, chunks, bytes in/out, poll sweeps
- Jobs: failed jobs observed while polling
- Latency: compress/decompress call latency
- Cases: iterations, bytes processed, skips, per case

PROMETHEUS ENDPOINT:
====================
Metrics are exposed at /metrics in Prometheus text format while a run is
in progress.

EXAMPLE METRICS:
================

	accelbench_dispatch_calls_total 1280
	accelbench_chunks_dispatched_total 5120
	accelbench_compress_latency_avg_microseconds 412.50
	accelbench_case_iterations_total{case="parallel/hardware/deflate/dynamic"} 64
*/
package metrics

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"accelbench/internal/config"
	"accelbench/internal/logging"
)

// Operation names used for latency accounting.
const (
	OpCompress   = "compress"
	OpDecompress = "decompress"
)

// Metrics holds all accelbench metrics.
type Metrics struct {
	// Dispatch metrics
	DispatchCalls    atomic.Uint64
	DispatchFailures atomic.Uint64
	ChunksDispatched atomic.Uint64
	BytesIn          atomic.Uint64
	BytesOut         atomic.Uint64
	PollSweeps       atomic.Uint64

	// Job metrics
	JobFailures atomic.Uint64

	// Latency metrics (in microseconds)
	CompressLatencySum     atomic.Uint64
	CompressLatencyCount   atomic.Uint64
	DecompressLatencySum   atomic.Uint64
	DecompressLatencyCount atomic.Uint64

	// Case metrics
	CasesRun     atomic.Uint64
	CasesSkipped atomic.Uint64

	// Per-case metrics
	caseMetrics sync.Map // case name -> *CaseMetrics
}

// CaseMetrics holds metrics for a single benchmark case.
type CaseMetrics struct {
	Iterations     atomic.Uint64
	BytesProcessed atomic.Uint64
	LatencySum     atomic.Uint64
	Skipped        atomic.Bool

	ratioBits atomic.Uint64
}

// Ratio returns the last recorded compression ratio of the case.
func (cm *CaseMetrics) Ratio() float64 {
	return math.Float64frombits(cm.ratioBits.Load())
}

// Global metrics instance
var globalMetrics = &Metrics{}

// Get returns the global metrics instance.
func Get() *Metrics {
	return globalMetrics
}

// GetCaseMetrics returns metrics for a specific case.
func (m *Metrics) GetCaseMetrics(name string) *CaseMetrics {
	if cm, ok := m.caseMetrics.Load(name); ok {
		return cm.(*CaseMetrics)
	}
	cm := &CaseMetrics{}
	actual, _ := m.caseMetrics.LoadOrStore(name, cm)
	return actual.(*CaseMetrics)
}

// RecordDispatch records a successful dispatch call.
func (m *Metrics) RecordDispatch(op string, chunks, bytesIn, bytesOut, sweeps int, latency time.Duration) {
	m.DispatchCalls.Add(1)
	m.ChunksDispatched.Add(uint64(chunks))
	m.BytesIn.Add(uint64(bytesIn))
	m.BytesOut.Add(uint64(bytesOut))
	m.PollSweeps.Add(uint64(sweeps))
	m.recordLatency(op, latency)
}

// RecordDispatchFailure records a dispatch call that returned an error.
func (m *Metrics) RecordDispatchFailure() {
	m.DispatchCalls.Add(1)
	m.DispatchFailures.Add(1)
}

// RecordJobFailure records a job that reached a failed state.
func (m *Metrics) RecordJobFailure() {
	m.JobFailures.Add(1)
}

func (m *Metrics) recordLatency(op string, latency time.Duration) {
	switch op {
	case OpCompress:
		m.CompressLatencySum.Add(uint64(latency.Microseconds()))
		m.CompressLatencyCount.Add(1)
	case OpDecompress:
		m.DecompressLatencySum.Add(uint64(latency.Microseconds()))
		m.DecompressLatencyCount.Add(1)
	}
}

// RecordIteration records one timed iteration of a case.
func (m *Metrics) RecordIteration(name string, bytes int, latency time.Duration) {
	cm := m.GetCaseMetrics(name)
	cm.Iterations.Add(1)
	cm.BytesProcessed.Add(uint64(bytes))
	cm.LatencySum.Add(uint64(latency.Microseconds()))
}

// RecordCaseFinished records a verified case and its compression ratio.
func (m *Metrics) RecordCaseFinished(name string, ratio float64) {
	m.CasesRun.Add(1)
	m.GetCaseMetrics(name).ratioBits.Store(math.Float64bits(ratio))
}

// RecordCaseSkipped records a case that was skipped.
func (m *Metrics) RecordCaseSkipped(name string) {
	m.CasesRun.Add(1)
	m.CasesSkipped.Add(1)
	m.GetCaseMetrics(name).Skipped.Store(true)
}

// AverageCompressLatency returns the average compress latency in microseconds.
func (m *Metrics) AverageCompressLatency() float64 {
	count := m.CompressLatencyCount.Load()
	if count == 0 {
		return 0
	}
	return float64(m.CompressLatencySum.Load()) / float64(count)
}

// AverageDecompressLatency returns the average decompress latency in microseconds.
func (m *Metrics) AverageDecompressLatency() float64 {
	count := m.DecompressLatencyCount.Load()
	if count == 0 {
		return 0
	}
	return float64(m.DecompressLatencySum.Load()) / float64(count)
}

// WriteTo writes all metrics in Prometheus text format.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	counter(cw, "accelbench_dispatch_calls_total", "Total dispatch calls", m.DispatchCalls.Load())
	counter(cw, "accelbench_dispatch_failures_total", "Dispatch calls that returned an error", m.DispatchFailures.Load())
	counter(cw, "accelbench_chunks_dispatched_total", "Total chunks dispatched", m.ChunksDispatched.Load())
	counter(cw, "accelbench_bytes_in_total", "Total bytes read by jobs", m.BytesIn.Load())
	counter(cw, "accelbench_bytes_out_total", "Total bytes written by jobs", m.BytesOut.Load())
	counter(cw, "accelbench_poll_sweeps_total", "Total poll sweeps over pending jobs", m.PollSweeps.Load())
	counter(cw, "accelbench_job_failures_total", "Jobs that reached a failed state", m.JobFailures.Load())

	// Latency metrics
	fmt.Fprintf(cw, "# HELP accelbench_compress_latency_avg_microseconds Average compress latency\n")
	fmt.Fprintf(cw, "# TYPE accelbench_compress_latency_avg_microseconds gauge\n")
	fmt.Fprintf(cw, "accelbench_compress_latency_avg_microseconds %.2f\n", m.AverageCompressLatency())

	fmt.Fprintf(cw, "# HELP accelbench_decompress_latency_avg_microseconds Average decompress latency\n")
	fmt.Fprintf(cw, "# TYPE accelbench_decompress_latency_avg_microseconds gauge\n")
	fmt.Fprintf(cw, "accelbench_decompress_latency_avg_microseconds %.2f\n", m.AverageDecompressLatency())

	counter(cw, "accelbench_cases_total", "Benchmark cases run", m.CasesRun.Load())
	counter(cw, "accelbench_cases_skipped_total", "Benchmark cases skipped", m.CasesSkipped.Load())

	// Per-case metrics, sorted so scrapes are stable.
	var names []string
	m.caseMetrics.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)

	fmt.Fprintf(cw, "# HELP accelbench_case_iterations_total Timed iterations per case\n")
	fmt.Fprintf(cw, "# TYPE accelbench_case_iterations_total counter\n")
	for _, name := range names {
		fmt.Fprintf(cw, "accelbench_case_iterations_total{case=%q} %d\n", name, m.GetCaseMetrics(name).Iterations.Load())
	}

	fmt.Fprintf(cw, "# HELP accelbench_case_bytes_total Bytes processed per case\n")
	fmt.Fprintf(cw, "# TYPE accelbench_case_bytes_total counter\n")
	for _, name := range names {
		fmt.Fprintf(cw, "accelbench_case_bytes_total{case=%q} %d\n", name, m.GetCaseMetrics(name).BytesProcessed.Load())
	}

	fmt.Fprintf(cw, "# HELP accelbench_case_ratio Compression ratio per case\n")
	fmt.Fprintf(cw, "# TYPE accelbench_case_ratio gauge\n")
	for _, name := range names {
		fmt.Fprintf(cw, "accelbench_case_ratio{case=%q} %.4f\n", name, m.GetCaseMetrics(name).Ratio())
	}

	return cw.n, cw.err
}

func counter(w io.Writer, name, help string, v uint64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, v)
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Server provides an HTTP server for Prometheus metrics.
type Server struct {
	config  *config.MetricsConfig
	metrics *Metrics
	server  *http.Server
	logger  *logging.Logger
}

// NewServer creates a new metrics server over the global metrics.
func NewServer(cfg *config.MetricsConfig) *Server {
	return &Server{
		config:  cfg,
		metrics: Get(),
		logger:  logging.NewLogger("metrics"),
	}
}

// Start starts the metrics HTTP server.
func (s *Server) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: mux,
	}

	go func() {
		s.logger.Info("Starting metrics server", "addr", s.config.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server error", "error", err)
		}
	}()

	return nil
}

// Stop stops the metrics HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Stopping metrics server")
	return s.server.Shutdown(ctx)
}

// handleMetrics handles the /metrics endpoint in Prometheus format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := s.metrics.WriteTo(w); err != nil {
		s.logger.Debug("Metrics write failed", "error", err)
	}
}
