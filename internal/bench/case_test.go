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
	"strings"
	"testing"

	"accelbench/internal/codec"
	"accelbench/internal/config"
	"accelbench/internal/engine"
)

func TestCaseName(t *testing.T) {
	c := Case{
		Strategy:      Parallel,
		Op:            engine.OpCompress,
		Codec:         codec.Deflate,
		Mode:          codec.Dynamic,
		Backend:       engine.Hardware,
		DecodeBackend: engine.Hardware,
		Size:          65536,
		Chunks:        4,
		Entropy:       8,
	}
	want := "parallel/compress/deflate/dynamic/hardware/size:65536/chunks:4/entropy:8"
	if got := c.Name(); got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}

	c.Op, c.DecodeBackend = engine.OpDecompress, engine.Software
	if !c.Cross() {
		t.Error("Expected cross-backend case")
	}
	if got := c.Name(); !strings.Contains(got, "/hardware>software/") {
		t.Errorf("Name() = %q, want hardware>software backend", got)
	}
}

func TestNewMatrix(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.Codecs = []string{"zstd", "deflate", "zstd"}
	cfg.Engine.Backends = []string{"sw", "software", "hw"}

	m, err := NewMatrix(cfg)
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}
	if len(m.Codecs) != 2 || m.Codecs[0] != codec.Zstd {
		t.Errorf("Codecs = %v, want [zstd deflate]", m.Codecs)
	}
	if len(m.Backends) != 2 {
		t.Errorf("Backends = %v, want deduplicated [software hardware]", m.Backends)
	}
	if len(m.Modes) != 3 {
		t.Errorf("Modes = %v, want all three", m.Modes)
	}

	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"codec", func(c *config.Config) { c.Engine.Codecs = []string{"brotli"} }},
		{"backend", func(c *config.Config) { c.Engine.Backends = []string{"fpga"} }},
		{"mode", func(c *config.Config) { c.Workload.Modes = []string{"adaptive"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)
			if _, err := NewMatrix(cfg); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestMatrixCases(t *testing.T) {
	m := &Matrix{
		Backends:    []engine.Backend{engine.Software, engine.Hardware},
		Modes:       []codec.Mode{codec.Fixed, codec.Canned},
		Sizes:       []int{1024, 4096},
		ChunkCounts: []int{1, 4, 16},
		Entropies:   []int{4},
	}

	// modes * backends * sizes * entropies * (2 blocking + 2 per chunk count)
	want := 2 * 2 * 2 * 1 * (2 + 2*3)
	cases := m.Cases(codec.Zstd)
	if len(cases) != want {
		t.Fatalf("len(Cases) = %d, want %d", len(cases), want)
	}

	names := make(map[string]bool)
	for _, c := range cases {
		if c.Codec != codec.Zstd {
			t.Errorf("case %s has codec %s", c.Name(), c.Codec)
		}
		if c.Strategy == Blocking && c.Chunks != 1 {
			t.Errorf("blocking case %s has %d chunks", c.Name(), c.Chunks)
		}
		if c.Cross() {
			t.Errorf("unexpected cross-backend case %s", c.Name())
		}
		if names[c.Name()] {
			t.Errorf("duplicate case %s", c.Name())
		}
		names[c.Name()] = true
	}

	m.CrossBackend = true
	cross := 0
	for _, c := range m.Cases(codec.Zstd) {
		if c.Cross() {
			cross++
			if c.Op != engine.OpDecompress || c.Strategy != Parallel {
				t.Errorf("cross case %s is not a parallel decompress", c.Name())
			}
		}
	}
	// one per backend pair per chunk count
	if wantCross := 2 * 2 * 2 * 1 * 3; cross != wantCross {
		t.Errorf("cross cases = %d, want %d", cross, wantCross)
	}
}

func TestMatrixSkipsUnsupportedModes(t *testing.T) {
	m := &Matrix{
		Backends:    []engine.Backend{engine.Software},
		Modes:       []codec.Mode{codec.Fixed, codec.Canned},
		Sizes:       []int{4096},
		ChunkCounts: []int{4},
		Entropies:   []int{4},
	}

	for _, c := range m.Cases(codec.LZ4) {
		if c.Mode == codec.Canned {
			t.Errorf("unexpected case %s", c.Name())
		}
	}
	if got, want := len(m.Cases(codec.LZ4)), len(m.Cases(codec.Deflate))/2; got != want {
		t.Errorf("lz4 cases = %d, want %d", got, want)
	}

	m.Modes = []codec.Mode{codec.Canned}
	if cases := m.Cases(codec.LZ4); len(cases) != 0 {
		t.Errorf("Expected no lz4 cases for canned only, got %d", len(cases))
	}
}

func TestCaseCompare(t *testing.T) {
	a := Case{Codec: codec.Deflate, Strategy: Parallel, Size: 4096, Chunks: 16}
	b := Case{Codec: codec.Deflate, Strategy: Parallel, Size: 4096, Chunks: 4}
	c := Case{Codec: codec.Zstd, Strategy: Blocking, Size: 1024, Chunks: 1}

	if a.compare(b) <= 0 {
		t.Error("Expected 16 chunks to sort after 4 chunks")
	}
	if a.compare(c) >= 0 {
		t.Error("Expected codec to dominate the ordering")
	}
	if a.compare(a) != 0 {
		t.Error("Expected equal cases to compare equal")
	}
}
