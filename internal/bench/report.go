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

package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hamba/avro/v2"

	"accelbench/internal/config"
)

// Report is the outcome of one benchmark run.
type Report struct {
	RunID      string       `json:"run_id" avro:"run_id"`
	Timestamp  string       `json:"timestamp" avro:"timestamp"`
	Hardware   HardwareInfo `json:"hardware" avro:"hardware"`
	Iterations int          `json:"iterations" avro:"iterations"`
	WarmupRuns int          `json:"warmup_runs" avro:"warmup_runs"`
	TotalTimeS float64      `json:"total_time_s" avro:"total_time_s"`
	Results    []Result     `json:"results" avro:"results"`
}

// NewReport creates an empty report with a fresh run ID.
func NewReport(iterations, warmup int) *Report {
	return &Report{
		RunID:      uuid.New().String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Hardware:   DetectHardware(),
		Iterations: iterations,
		WarmupRuns: warmup,
	}
}

// Skipped returns the number of skipped results.
func (r *Report) Skipped() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Skipped {
			n++
		}
	}
	return n
}

// ReportSchema is the Avro schema of an encoded Report.
const ReportSchema = `{
  "type": "record",
  "name": "Report",
  "namespace": "accelbench",
  "fields": [
    {"name": "run_id", "type": "string"},
    {"name": "timestamp", "type": "string"},
    {"name": "hardware", "type": {
      "type": "record",
      "name": "HardwareInfo",
      "fields": [
        {"name": "cpu_model", "type": "string"},
        {"name": "cpu_threads", "type": "int"},
        {"name": "memory_gb", "type": "double"},
        {"name": "os", "type": "string"},
        {"name": "os_version", "type": "string"},
        {"name": "arch", "type": "string"},
        {"name": "go_version", "type": "string"},
        {"name": "gomaxprocs", "type": "int"},
        {"name": "hostname", "type": "string"}
      ]
    }},
    {"name": "iterations", "type": "int"},
    {"name": "warmup_runs", "type": "int"},
    {"name": "total_time_s", "type": "double"},
    {"name": "results", "type": {"type": "array", "items": {
      "type": "record",
      "name": "Result",
      "fields": [
        {"name": "name", "type": "string"},
        {"name": "strategy", "type": "string"},
        {"name": "operation", "type": "string"},
        {"name": "codec", "type": "string"},
        {"name": "mode", "type": "string"},
        {"name": "backend", "type": "string"},
        {"name": "decode_backend", "type": "string"},
        {"name": "size_bytes", "type": "int"},
        {"name": "chunks", "type": "int"},
        {"name": "entropy", "type": "int"},
        {"name": "iterations", "type": "int"},
        {"name": "compression_time_ns", "type": "long"},
        {"name": "compression_ratio", "type": "double"},
        {"name": "file_size", "type": "int"},
        {"name": "status", "type": "int"},
        {"name": "throughput_mb_s", "type": "double"},
        {"name": "latency_min_ms", "type": "double"},
        {"name": "latency_avg_ms", "type": "double"},
        {"name": "latency_p50_ms", "type": "double"},
        {"name": "latency_p99_ms", "type": "double"},
        {"name": "latency_max_ms", "type": "double"},
        {"name": "skipped", "type": "boolean"},
        {"name": "skip_reason", "type": "string"},
        {"name": "error", "type": "string"}
      ]
    }}}
  ]
}`

var (
	schemaOnce sync.Once
	schema     avro.Schema
	schemaErr  error
)

func reportSchema() (avro.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = avro.Parse(ReportSchema)
	})
	return schema, schemaErr
}

// EncodeAvro encodes the report with ReportSchema.
func (r *Report) EncodeAvro() ([]byte, error) {
	sch, err := reportSchema()
	if err != nil {
		return nil, fmt.Errorf("bench: parse report schema: %w", err)
	}
	return avro.Marshal(sch, r)
}

// DecodeAvro decodes a report encoded by EncodeAvro.
func DecodeAvro(data []byte) (*Report, error) {
	sch, err := reportSchema()
	if err != nil {
		return nil, fmt.Errorf("bench: parse report schema: %w", err)
	}
	r := &Report{}
	if err := avro.Unmarshal(sch, data, r); err != nil {
		return nil, fmt.Errorf("bench: decode report: %w", err)
	}
	return r, nil
}

// Encode writes the report to w in format (json or avro).
func (r *Report) Encode(w io.Writer, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case config.ReportJSON, "":
		data, err = json.MarshalIndent(r, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case config.ReportAvro:
		data, err = r.EncodeAvro()
	default:
		return fmt.Errorf("bench: unknown report format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes the report to path, creating parent directories.
func (r *Report) WriteFile(path, format string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("bench: create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bench: create report: %w", err)
	}
	if err := r.Encode(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
