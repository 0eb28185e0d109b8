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
	"slices"
	"sync"
	"time"

	"github.com/google/btree"
)

// Status values of a result. A case reports StatusUnverified until its
// output has been decompressed and compared with the source.
const (
	StatusUnverified = -1
	StatusVerified   = 0
)

// Skip reasons.
const (
	ReasonCompress   = "failed compress"
	ReasonDecompress = "failed decompress"
	ReasonMismatch   = "data mismatch"
	ReasonSetup      = "setup failed"
)

// Result holds the counters of one case.
type Result struct {
	key Case

	Name          string `json:"name" avro:"name"`
	Strategy      string `json:"strategy" avro:"strategy"`
	Operation     string `json:"operation" avro:"operation"`
	Codec         string `json:"codec" avro:"codec"`
	Mode          string `json:"mode" avro:"mode"`
	Backend       string `json:"backend" avro:"backend"`
	DecodeBackend string `json:"decode_backend" avro:"decode_backend"`
	SizeBytes     int    `json:"size_bytes" avro:"size_bytes"`
	Chunks        int    `json:"chunks" avro:"chunks"`
	Entropy       int    `json:"entropy" avro:"entropy"`
	Iterations    int    `json:"iterations" avro:"iterations"`

	// CompressionTimeNs is the mean time of one timed iteration.
	CompressionTimeNs int64   `json:"compression_time_ns" avro:"compression_time_ns"`
	CompressionRatio  float64 `json:"compression_ratio" avro:"compression_ratio"`
	// FileSize is the compressed size in bytes.
	FileSize      int     `json:"file_size" avro:"file_size"`
	Status        int     `json:"status" avro:"status"`
	ThroughputMBs float64 `json:"throughput_mb_s" avro:"throughput_mb_s"`

	LatencyMinMs float64 `json:"latency_min_ms" avro:"latency_min_ms"`
	LatencyAvgMs float64 `json:"latency_avg_ms" avro:"latency_avg_ms"`
	LatencyP50Ms float64 `json:"latency_p50_ms" avro:"latency_p50_ms"`
	LatencyP99Ms float64 `json:"latency_p99_ms" avro:"latency_p99_ms"`
	LatencyMaxMs float64 `json:"latency_max_ms" avro:"latency_max_ms"`

	Skipped    bool   `json:"skipped" avro:"skipped"`
	SkipReason string `json:"skip_reason,omitempty" avro:"skip_reason"`
	Error      string `json:"error,omitempty" avro:"error"`
}

func newResult(c Case) *Result {
	return &Result{
		key:           c,
		Name:          c.Name(),
		Strategy:      c.Strategy.String(),
		Operation:     c.Op.String(),
		Codec:         c.Codec.String(),
		Mode:          c.Mode.String(),
		Backend:       c.Backend.String(),
		DecodeBackend: c.DecodeBackend.String(),
		SizeBytes:     c.Size,
		Chunks:        c.Chunks,
		Entropy:       c.Entropy,
		Status:        StatusUnverified,
	}
}

// Case returns the case the result belongs to.
func (r *Result) Case() Case { return r.key }

func (r *Result) skip(reason string, err error) {
	r.Skipped = true
	r.SkipReason = reason
	if err != nil {
		r.Error = err.Error()
	}
}

// setTimings fills the time, throughput and latency counters from the
// per-iteration latencies of a case processing size bytes per iteration.
func (r *Result) setTimings(size int, latencies []time.Duration) {
	r.Iterations = len(latencies)
	if len(latencies) == 0 {
		return
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	avg := total / time.Duration(len(latencies))
	r.CompressionTimeNs = avg.Nanoseconds()
	if total > 0 {
		r.ThroughputMBs = float64(size) * float64(len(latencies)) / total.Seconds() / (1 << 20)
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	r.LatencyMinMs = ms(sorted[0])
	r.LatencyAvgMs = ms(avg)
	r.LatencyP50Ms = ms(percentile(sorted, 0.50))
	r.LatencyP99Ms = ms(percentile(sorted, 0.99))
	r.LatencyMaxMs = ms(sorted[len(sorted)-1])
}

// percentile returns the p-th percentile of sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// ResultSet keeps results ordered by case regardless of the order they were
// added in. It is safe for concurrent use.
type ResultSet struct {
	mu   sync.Mutex
	tree *btree.BTreeG[*Result]
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{
		tree: btree.NewG(16, func(a, b *Result) bool { return a.key.compare(b.key) < 0 }),
	}
}

// Add stores r, replacing an earlier result for the same case.
func (s *ResultSet) Add(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(r)
}

// Get returns the result for c.
func (s *ResultSet) Get(c Case) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Get(&Result{key: c})
}

// Len returns the number of results.
func (s *ResultSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Len()
}

// Results returns copies of all results in case order.
func (s *ResultSet) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, 0, s.tree.Len())
	s.tree.Ascend(func(r *Result) bool {
		out = append(out, *r)
		return true
	})
	return out
}

// Skipped returns the number of skipped results.
func (s *ResultSet) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	s.tree.Ascend(func(r *Result) bool {
		if r.Skipped {
			n++
		}
		return true
	})
	return n
}
