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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"accelbench/internal/codec"
	"accelbench/internal/config"
	"accelbench/internal/engine"
)

func sampleReport() *Report {
	r := NewReport(20, 2)
	r.TotalTimeS = 1.5

	ok := newResult(Case{Strategy: Parallel, Op: engine.OpCompress, Codec: codec.Zstd, Mode: codec.Dynamic, Size: 65536, Chunks: 4, Entropy: 4})
	ok.setTimings(65536, []time.Duration{time.Millisecond, 2 * time.Millisecond})
	ok.CompressionRatio = 3.25
	ok.FileSize = 20165
	ok.Status = StatusVerified

	skipped := newResult(Case{Codec: codec.LZ4, Mode: codec.Canned, Size: 65536, Chunks: 1, Entropy: 4})
	skipped.skip(ReasonCompress, codec.ErrTableUnsupported)

	r.Results = []Result{*ok, *skipped}
	return r
}

func TestNewReport(t *testing.T) {
	r := NewReport(5, 1)
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", r.RunID, err)
	}
	if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", r.Timestamp, err)
	}
	if r.Iterations != 5 || r.WarmupRuns != 1 {
		t.Errorf("Iterations/WarmupRuns = %d/%d, want 5/1", r.Iterations, r.WarmupRuns)
	}
	if r.Hardware.CPUThreads < 1 || r.Hardware.GoVersion == "" {
		t.Errorf("Hardware not detected: %+v", r.Hardware)
	}
	if NewReport(5, 1).RunID == r.RunID {
		t.Error("Expected distinct run IDs")
	}
}

func TestReportJSON(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	if err := r.Encode(&buf, config.ReportJSON); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.RunID != r.RunID || len(decoded.Results) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if got := decoded.Results[0]; got.Status != StatusVerified || got.CompressionRatio != 3.25 || got.FileSize != 20165 {
		t.Errorf("Results[0] = %+v", got)
	}
	if got := decoded.Results[1]; !got.Skipped || got.SkipReason != ReasonCompress || got.Status != StatusUnverified {
		t.Errorf("Results[1] = %+v", got)
	}
	if decoded.Skipped() != 1 {
		t.Errorf("Skipped = %d, want 1", decoded.Skipped())
	}
}

func TestReportAvro(t *testing.T) {
	r := sampleReport()
	data, err := r.EncodeAvro()
	if err != nil {
		t.Fatalf("EncodeAvro failed: %v", err)
	}

	decoded, err := DecodeAvro(data)
	if err != nil {
		t.Fatalf("DecodeAvro failed: %v", err)
	}
	if decoded.RunID != r.RunID || decoded.Hardware != r.Hardware || decoded.TotalTimeS != r.TotalTimeS {
		t.Errorf("decoded header = %+v, want %+v", decoded, r)
	}
	if len(decoded.Results) != len(r.Results) {
		t.Fatalf("len(Results) = %d, want %d", len(decoded.Results), len(r.Results))
	}
	for i := range r.Results {
		want := r.Results[i]
		want.key = Case{}
		if !reflect.DeepEqual(decoded.Results[i], want) {
			t.Errorf("Results[%d] = %+v, want %+v", i, decoded.Results[i], want)
		}
	}

	if _, err := DecodeAvro([]byte{0xff}); err == nil {
		t.Error("Expected error decoding garbage")
	}
}

func TestReportEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().Encode(&buf, "csv"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestReportWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.avro")
	r := sampleReport()
	if err := r.WriteFile(path, config.ReportAvro); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	decoded, err := DecodeAvro(data)
	if err != nil {
		t.Fatalf("DecodeAvro failed: %v", err)
	}
	if decoded.RunID != r.RunID {
		t.Errorf("RunID = %s, want %s", decoded.RunID, r.RunID)
	}
}
