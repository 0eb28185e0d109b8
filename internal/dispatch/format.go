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

package dispatch

import "accelbench/internal/codec"

// capacitySlack covers frame headers that dominate tiny chunks.
const capacitySlack = 64

// chunkCapacity is the output capacity reserved for compressing n bytes.
func chunkCapacity(n int) int {
	return 2*n + capacitySlack
}

// CompressedChunk is one self-contained compressed stream.
type CompressedChunk struct {
	// Data holds the stream; cap(Data) is the capacity reserved for it.
	Data []byte
	// OriginalLength is the uncompressed size of the chunk.
	OriginalLength int
}

// Capacity returns the output capacity that was reserved for the chunk.
func (c CompressedChunk) Capacity() int {
	return cap(c.Data)
}

// Format is the ordered list of compressed chunks produced by one call.
type Format struct {
	Chunks []CompressedChunk
	Codec  codec.Type
	Mode   codec.Mode
	// Table is set for canned streams, which need it to decode.
	Table *codec.Table
}

// CompressedSize returns the total size of all chunk streams.
func (f *Format) CompressedSize() int {
	total := 0
	for _, c := range f.Chunks {
		total += len(c.Data)
	}
	return total
}

// OriginalSize returns the total uncompressed size.
func (f *Format) OriginalSize() int {
	total := 0
	for _, c := range f.Chunks {
		total += c.OriginalLength
	}
	return total
}

// Ratio returns OriginalSize/CompressedSize, or 0 for an empty format.
func (f *Format) Ratio() float64 {
	compressed := f.CompressedSize()
	if compressed == 0 {
		return 0
	}
	return float64(f.OriginalSize()) / float64(compressed)
}
