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
Package datagen produces seeded synthetic buffers with an entropy knob.

DATA SHAPE:
===========
The buffer is a sequence of little-endian 32-bit words drawn from a normal
distribution with sigma 2^entropy, rounded and stored two's complement.
Before each word, with probability 1/entropy, a 512-byte zero region is
written instead. Low entropy gives small words and frequent zero runs,
which compress well; high entropy approaches random data.

Entropy 0 yields an all-zero buffer.

DETERMINISM:
============
The buffer is split into fixed-size segments generated in parallel. Each
segment has its own generator seeded from (seed, segment index), so the
output depends only on the seed, the entropy and the size, never on the
number of CPUs.
*/
package datagen

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// ZeroRegionSize is the length of an inserted zero run.
	ZeroRegionSize = 512

	// SegmentSize is the unit of parallel generation.
	SegmentSize = 256 * 1024

	// MaxEntropy keeps sigma within the 32-bit word.
	MaxEntropy = 31
)

// ErrInvalidConfig is returned for negative sizes or out-of-range entropy.
var ErrInvalidConfig = errors.New("datagen: invalid config")

// Config describes a buffer to generate.
type Config struct {
	Size    int
	Entropy int
	Seed    uint64
}

func (c Config) validate() error {
	if c.Size < 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidConfig, c.Size)
	}
	if c.Entropy < 0 || c.Entropy > MaxEntropy {
		return fmt.Errorf("%w: entropy %d not in [0, %d]", ErrInvalidConfig, c.Entropy, MaxEntropy)
	}
	return nil
}

// Generate allocates and fills a buffer.
func Generate(cfg Config) ([]byte, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, cfg.Size)
	if err := Fill(context.Background(), buf, cfg.Entropy, cfg.Seed); err != nil {
		return nil, err
	}
	return buf, nil
}

// Fill writes synthetic data into dst. dst may be any buffer, including a
// mapped one.
func Fill(ctx context.Context, dst []byte, entropy int, seed uint64) error {
	if err := (Config{Size: len(dst), Entropy: entropy}).validate(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, off := 0, 0; off < len(dst); i, off = i+1, off+SegmentSize {
		segment := dst[off:min(off+SegmentSize, len(dst))]
		index := uint64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, index))
			fillSegment(segment, entropy, rng)
			return nil
		})
	}
	return g.Wait()
}

func fillSegment(buf []byte, entropy int, rng *rand.Rand) {
	if entropy == 0 {
		clear(buf)
		return
	}

	sigma := float64(uint64(1) << entropy)
	var word [4]byte
	for i := 0; i < len(buf); {
		if i+ZeroRegionSize < len(buf) && rng.IntN(entropy) == 0 {
			clear(buf[i : i+ZeroRegionSize])
			i += ZeroRegionSize
			continue
		}
		v := uint32(int64(math.Round(rng.NormFloat64() * sigma)))
		binary.LittleEndian.PutUint32(word[:], v)
		i += copy(buf[i:], word[:])
	}
}
