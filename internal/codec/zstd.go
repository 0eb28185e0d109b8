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

package codec

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
)

// tableCoderCacheSize bounds the number of per-table coder pairs kept warm.
const tableCoderCacheSize = 32

type tableCoders struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// zstdCodec uses stateless EncodeAll/DecodeAll, which are safe for
// concurrent callers, so a single encoder per level serves every lane.
type zstdCodec struct {
	fixed   *zstd.Encoder
	dynamic *zstd.Encoder
	dec     *zstd.Decoder

	mu     sync.Mutex
	tables *lru.Cache[uint32, *tableCoders]
}

func newZstdCodec() (*zstdCodec, error) {
	fixed, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd fixed encoder: %w", err)
	}
	dynamic, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd dynamic encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	tables, err := lru.New[uint32, *tableCoders](tableCoderCacheSize)
	if err != nil {
		return nil, err
	}
	return &zstdCodec{fixed: fixed, dynamic: dynamic, dec: dec, tables: tables}, nil
}

func (z *zstdCodec) Type() Type { return Zstd }

func (z *zstdCodec) Compress(dst, src []byte, mode Mode, table *Table) (int, error) {
	var enc *zstd.Encoder
	switch mode {
	case Fixed:
		enc = z.fixed
	case Dynamic:
		enc = z.dynamic
	case Canned:
		if table == nil {
			return 0, ErrTableRequired
		}
		tc, err := z.coders(table)
		if err != nil {
			return 0, err
		}
		enc = tc.enc
	default:
		return 0, ErrUnknownMode
	}

	out := enc.EncodeAll(src, dst[:0])
	if len(out) > len(dst) {
		return 0, ErrShortBuffer
	}
	// EncodeAll reallocates only when dst is too small, so this copy is a
	// no-op in the common case.
	copy(dst, out)
	return len(out), nil
}

func (z *zstdCodec) Decompress(dst, src []byte, table *Table) (int, error) {
	dec := z.dec
	if table != nil {
		tc, err := z.coders(table)
		if err != nil {
			return 0, err
		}
		dec = tc.dec
	}

	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, ErrShortBuffer
	}
	copy(dst, out)
	return len(out), nil
}

// coders returns the encoder/decoder pair bound to table, creating it once.
func (z *zstdCodec) coders(table *Table) (*tableCoders, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if tc, ok := z.tables.Get(table.id); ok {
		return tc, nil
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderDictRaw(table.id, table.dict),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd canned encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderDictRaw(table.id, table.dict),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd canned decoder: %w", err)
	}

	tc := &tableCoders{enc: enc, dec: dec}
	z.tables.Add(table.id, tc)
	return tc, nil
}
