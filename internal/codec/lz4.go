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
	"github.com/pierrec/lz4/v4"
)

// lz4Codec emits bare LZ4 blocks. The block format has no room for a
// dictionary reference, so canned tables are rejected.
type lz4Codec struct{}

func (l *lz4Codec) Type() Type { return LZ4 }

func (l *lz4Codec) Compress(dst, src []byte, mode Mode, table *Table) (int, error) {
	var (
		n   int
		err error
	)
	switch mode {
	case Fixed:
		n, err = lz4.CompressBlock(src, dst, nil)
	case Dynamic:
		n, err = lz4.CompressBlockHC(src, dst, lz4.Level9, nil, nil)
	case Canned:
		return 0, ErrTableUnsupported
	default:
		return 0, ErrUnknownMode
	}
	if err != nil {
		return 0, err
	}
	if n == 0 && len(src) > 0 {
		// lz4 reports incompressible input as a zero-length block
		return 0, ErrShortBuffer
	}
	return n, nil
}

func (l *lz4Codec) Decompress(dst, src []byte, table *Table) (int, error) {
	if table != nil {
		return 0, ErrTableUnsupported
	}
	return lz4.UncompressBlock(src, dst)
}
