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
	"cmp"
	"fmt"
	"strings"

	"accelbench/internal/codec"
	"accelbench/internal/config"
	"accelbench/internal/engine"
)

// Strategy is how a case drives the engine.
type Strategy uint8

const (
	// Blocking runs one synchronous job over the whole buffer.
	Blocking Strategy = iota
	// Parallel splits the buffer into chunks and dispatches one job each.
	Parallel
)

func (s Strategy) String() string {
	switch s {
	case Blocking:
		return "blocking"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Case is one benchmark configuration.
type Case struct {
	Strategy Strategy
	Op       engine.Op
	Codec    codec.Type
	Mode     codec.Mode
	// Backend compresses. DecodeBackend decompresses and differs from
	// Backend only for cross-backend cases.
	Backend       engine.Backend
	DecodeBackend engine.Backend
	Size          int
	Chunks        int
	Entropy       int
}

// Cross reports whether compression and decompression run on different
// backends.
func (c Case) Cross() bool {
	return c.Backend != c.DecodeBackend
}

// Name returns the case name, for example
// "parallel/compress/deflate/dynamic/hardware/size:65536/chunks:4/entropy:8".
func (c Case) Name() string {
	backend := c.Backend.String()
	if c.Cross() {
		backend += ">" + c.DecodeBackend.String()
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/size:%d/chunks:%d/entropy:%d",
		c.Strategy, c.Op, c.Codec, c.Mode, backend, c.Size, c.Chunks, c.Entropy)
}

// compare orders cases by codec, then strategy, operation, mode, backends
// and workload shape.
func (c Case) compare(o Case) int {
	return cmp.Or(
		cmp.Compare(c.Codec, o.Codec),
		cmp.Compare(c.Strategy, o.Strategy),
		cmp.Compare(c.Op, o.Op),
		cmp.Compare(c.Mode, o.Mode),
		cmp.Compare(c.Backend, o.Backend),
		cmp.Compare(c.DecodeBackend, o.DecodeBackend),
		cmp.Compare(c.Size, o.Size),
		cmp.Compare(c.Chunks, o.Chunks),
		cmp.Compare(c.Entropy, o.Entropy),
	)
}

// Matrix is the parsed case dimensions of a configuration.
type Matrix struct {
	Codecs       []codec.Type
	Backends     []engine.Backend
	Modes        []codec.Mode
	Sizes        []int
	ChunkCounts  []int
	Entropies    []int
	CrossBackend bool
}

// NewMatrix parses the case dimensions out of cfg.
func NewMatrix(cfg *config.Config) (*Matrix, error) {
	m := &Matrix{
		Sizes:        cfg.Workload.Sizes,
		ChunkCounts:  cfg.Workload.ChunkCounts,
		Entropies:    cfg.Workload.Entropies,
		CrossBackend: cfg.Engine.CrossBackend,
	}
	for _, name := range cfg.Engine.Codecs {
		t, err := codec.ParseType(name)
		if err != nil {
			return nil, err
		}
		m.Codecs = appendUnique(m.Codecs, t)
	}
	for _, name := range cfg.Engine.Backends {
		b, err := engine.ParseBackend(name)
		if err != nil {
			return nil, err
		}
		m.Backends = appendUnique(m.Backends, b)
	}
	for _, name := range cfg.Workload.Modes {
		mode, err := codec.ParseMode(name)
		if err != nil {
			return nil, err
		}
		m.Modes = appendUnique(m.Modes, mode)
	}
	return m, nil
}

func appendUnique[T comparable](s []T, v T) []T {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// Cases returns every case for one codec: blocking compress and decompress
// per backend, parallel compress and decompress per chunk count, and when
// enabled a parallel decompress on every other backend. Modes the codec
// cannot produce are left out.
func (m *Matrix) Cases(typ codec.Type) []Case {
	var cases []Case
	for _, mode := range m.Modes {
		if !typ.SupportsMode(mode) {
			continue
		}
		for _, backend := range m.Backends {
			for _, size := range m.Sizes {
				for _, entropy := range m.Entropies {
					base := Case{
						Codec:         typ,
						Mode:          mode,
						Backend:       backend,
						DecodeBackend: backend,
						Size:          size,
						Entropy:       entropy,
					}
					for _, op := range []engine.Op{engine.OpCompress, engine.OpDecompress} {
						c := base
						c.Strategy, c.Op, c.Chunks = Blocking, op, 1
						cases = append(cases, c)
					}
					for _, chunks := range m.ChunkCounts {
						for _, op := range []engine.Op{engine.OpCompress, engine.OpDecompress} {
							c := base
							c.Strategy, c.Op, c.Chunks = Parallel, op, chunks
							cases = append(cases, c)
						}
						if !m.CrossBackend {
							continue
						}
						for _, other := range m.Backends {
							if other == backend {
								continue
							}
							c := base
							c.Strategy, c.Op, c.Chunks, c.DecodeBackend = Parallel, engine.OpDecompress, chunks, other
							cases = append(cases, c)
						}
					}
				}
			}
		}
	}
	return cases
}

// String summarizes the matrix for logging.
func (m *Matrix) String() string {
	names := func(n int, f func(int) string) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = f(i)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("codecs=%s backends=%s modes=%s sizes=%v chunks=%v entropies=%v",
		names(len(m.Codecs), func(i int) string { return m.Codecs[i].String() }),
		names(len(m.Backends), func(i int) string { return m.Backends[i].String() }),
		names(len(m.Modes), func(i int) string { return m.Modes[i].String() }),
		m.Sizes, m.ChunkCounts, m.Entropies)
}
