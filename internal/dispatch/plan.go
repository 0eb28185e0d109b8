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

import "fmt"

// Chunk is a contiguous region of the source buffer handled by one job.
type Chunk struct {
	Offset int
	Length int
}

// Plan splits sourceLength bytes into chunkCount contiguous chunks. Every
// chunk gets sourceLength/chunkCount bytes and the last one also takes the
// remainder.
func Plan(sourceLength, chunkCount int) ([]Chunk, error) {
	if sourceLength < 0 || chunkCount < 1 || chunkCount > sourceLength {
		return nil, newError(ErrInvalidArgument, "plan", -1,
			fmt.Errorf("cannot split %d bytes into %d chunks", sourceLength, chunkCount))
	}

	base := sourceLength / chunkCount
	rem := sourceLength % chunkCount

	chunks := make([]Chunk, chunkCount)
	for i := range chunks {
		chunks[i] = Chunk{Offset: i * base, Length: base}
	}
	chunks[chunkCount-1].Length += rem
	return chunks, nil
}

// checkLayout verifies that layout tiles [0, n) without gaps, overlaps or
// empty chunks.
func checkLayout(layout []Chunk, n int) error {
	if len(layout) == 0 {
		return fmt.Errorf("empty layout")
	}
	next := 0
	for i, c := range layout {
		if c.Offset != next {
			return fmt.Errorf("chunk %d starts at %d, want %d", i, c.Offset, next)
		}
		if c.Length <= 0 {
			return fmt.Errorf("chunk %d has length %d", i, c.Length)
		}
		next += c.Length
	}
	if next != n {
		return fmt.Errorf("layout covers %d bytes, source has %d", next, n)
	}
	return nil
}
