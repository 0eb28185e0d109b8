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

package metrics

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"accelbench/internal/config"
)

func TestGet(t *testing.T) {
	m := Get()
	if m == nil {
		t.Fatal("Expected non-nil metrics")
	}
}

func TestRecordDispatch(t *testing.T) {
	m := &Metrics{}

	m.RecordDispatch(OpCompress, 4, 1024, 300, 7, 5*time.Millisecond)

	if m.DispatchCalls.Load() != 1 {
		t.Errorf("Expected DispatchCalls 1, got %d", m.DispatchCalls.Load())
	}
	if m.ChunksDispatched.Load() != 4 {
		t.Errorf("Expected ChunksDispatched 4, got %d", m.ChunksDispatched.Load())
	}
	if m.BytesIn.Load() != 1024 || m.BytesOut.Load() != 300 {
		t.Errorf("Expected bytes 1024/300, got %d/%d", m.BytesIn.Load(), m.BytesOut.Load())
	}
	if m.PollSweeps.Load() != 7 {
		t.Errorf("Expected PollSweeps 7, got %d", m.PollSweeps.Load())
	}
	if m.CompressLatencyCount.Load() != 1 || m.DecompressLatencyCount.Load() != 0 {
		t.Error("Expected latency recorded under compress only")
	}
}

func TestRecordDispatchFailure(t *testing.T) {
	m := &Metrics{}

	m.RecordDispatchFailure()
	m.RecordJobFailure()
	m.RecordJobFailure()

	if m.DispatchCalls.Load() != 1 || m.DispatchFailures.Load() != 1 {
		t.Errorf("Expected 1 call and 1 failure, got %d/%d", m.DispatchCalls.Load(), m.DispatchFailures.Load())
	}
	if m.JobFailures.Load() != 2 {
		t.Errorf("Expected JobFailures 2, got %d", m.JobFailures.Load())
	}
}

func TestAverageLatency(t *testing.T) {
	m := &Metrics{}

	if m.AverageCompressLatency() != 0 || m.AverageDecompressLatency() != 0 {
		t.Error("Expected 0 latency with no data")
	}

	m.RecordDispatch(OpCompress, 1, 1, 1, 1, 1000*time.Microsecond)
	m.RecordDispatch(OpCompress, 1, 1, 1, 1, 3000*time.Microsecond)
	m.RecordDispatch(OpDecompress, 1, 1, 1, 1, 500*time.Microsecond)

	if avg := m.AverageCompressLatency(); avg != 2000 {
		t.Errorf("Expected average compress latency 2000, got %f", avg)
	}
	if avg := m.AverageDecompressLatency(); avg != 500 {
		t.Errorf("Expected average decompress latency 500, got %f", avg)
	}
}

func TestCaseMetrics(t *testing.T) {
	m := &Metrics{}

	cm1 := m.GetCaseMetrics("single/fixed")
	cm2 := m.GetCaseMetrics("single/fixed")
	if cm1 != cm2 {
		t.Error("Expected same CaseMetrics instance for same case")
	}
	if cm1 == m.GetCaseMetrics("parallel/fixed") {
		t.Error("Expected different CaseMetrics instance for different case")
	}

	m.RecordIteration("single/fixed", 4096, time.Millisecond)
	m.RecordIteration("single/fixed", 4096, time.Millisecond)
	m.RecordCaseFinished("single/fixed", 2.5)
	m.RecordCaseSkipped("parallel/fixed")

	if cm1.Iterations.Load() != 2 || cm1.BytesProcessed.Load() != 8192 {
		t.Errorf("Expected 2 iterations over 8192 bytes, got %d/%d", cm1.Iterations.Load(), cm1.BytesProcessed.Load())
	}
	if cm1.Ratio() != 2.5 {
		t.Errorf("Expected ratio 2.5, got %f", cm1.Ratio())
	}
	if !m.GetCaseMetrics("parallel/fixed").Skipped.Load() {
		t.Error("Expected parallel/fixed to be marked skipped")
	}
	if m.CasesRun.Load() != 2 || m.CasesSkipped.Load() != 1 {
		t.Errorf("Expected 2 cases and 1 skip, got %d/%d", m.CasesRun.Load(), m.CasesSkipped.Load())
	}
}

func TestWriteTo(t *testing.T) {
	m := &Metrics{}
	m.RecordDispatch(OpCompress, 4, 1024, 300, 7, time.Millisecond)
	m.RecordIteration("b-case", 10, time.Millisecond)
	m.RecordIteration("a-case", 10, time.Millisecond)

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, buffer has %d", n, buf.Len())
	}

	output := buf.String()
	for _, want := range []string{
		"accelbench_dispatch_calls_total 1",
		"accelbench_chunks_dispatched_total 4",
		`accelbench_case_iterations_total{case="a-case"} 1`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
	if strings.Index(output, `case="a-case"`) > strings.Index(output, `case="b-case"`) {
		t.Error("Expected per-case series sorted by name")
	}
}

func TestServerHandler(t *testing.T) {
	s := NewServer(&config.MetricsConfig{Enabled: true, Addr: "127.0.0.1:0"})
	s.metrics = &Metrics{}
	s.metrics.RecordJobFailure()

	rec := httptest.NewRecorder()
	s.handleMetrics(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "accelbench_job_failures_total 1") {
		t.Errorf("Expected job failures in body, got: %s", rec.Body.String())
	}
}

func TestServerDisabled(t *testing.T) {
	s := NewServer(&config.MetricsConfig{Enabled: false})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
