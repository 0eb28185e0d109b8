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

// Package verify checks decompressed output against the original buffer.
// Content checks hash each chunk with xxhash first so a mismatch is
// reported against the chunk that produced it.
package verify

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"accelbench/internal/dispatch"
)

var (
	// ErrSizeMismatch is returned when the decoded size differs from the
	// original size.
	ErrSizeMismatch = errors.New("verify: size mismatch")

	// ErrContentMismatch is returned when decoded bytes differ from the
	// original bytes.
	ErrContentMismatch = errors.New("verify: data mismatch")
)

// MismatchError locates the first differing byte.
type MismatchError struct {
	Chunk  int
	Offset int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v in chunk %d at offset %d", ErrContentMismatch, e.Chunk, e.Offset)
}

func (e *MismatchError) Unwrap() error { return ErrContentMismatch }

// Size checks the number of decoded bytes.
func Size(expected, actual int) error {
	if expected != actual {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, expected, actual)
	}
	return nil
}

// Bytes compares decoded with original as a single chunk.
func Bytes(original, decoded []byte) error {
	if err := Size(len(original), len(decoded)); err != nil {
		return err
	}
	if i := firstDiff(original, decoded); i >= 0 {
		return &MismatchError{Chunk: 0, Offset: i}
	}
	return nil
}

// Digest returns the xxhash digest of buf.
func Digest(buf []byte) uint64 {
	return xxhash.Sum64(buf)
}

// ChunkDigests hashes every chunk of buf.
func ChunkDigests(buf []byte, layout []dispatch.Chunk) []uint64 {
	digests := make([]uint64, len(layout))
	for i, c := range layout {
		digests[i] = xxhash.Sum64(buf[c.Offset : c.Offset+c.Length])
	}
	return digests
}

// Format verifies a decompression of format. n is the byte count the
// decompressor reported and decoded holds its output.
func Format(original []byte, format *dispatch.Format, decoded []byte, n int) error {
	if err := Size(len(original), n); err != nil {
		return err
	}
	if err := Size(len(original), format.OriginalSize()); err != nil {
		return err
	}
	if len(decoded) < n {
		return fmt.Errorf("%w: output buffer holds %d bytes, %d reported", ErrSizeMismatch, len(decoded), n)
	}

	offset := 0
	for i, c := range format.Chunks {
		end := offset + c.OriginalLength
		want, got := original[offset:end], decoded[offset:end]
		if xxhash.Sum64(want) != xxhash.Sum64(got) || !bytes.Equal(want, got) {
			return &MismatchError{Chunk: i, Offset: offset + firstDiff(want, got)}
		}
		offset = end
	}
	return nil
}

// firstDiff returns the index of the first differing byte of two slices of
// equal length, or -1.
func firstDiff(a, b []byte) int {
	const block = 4096
	for off := 0; off < len(a); off += block {
		end := min(off+block, len(a))
		if bytes.Equal(a[off:end], b[off:end]) {
			continue
		}
		for i := off; i < end; i++ {
			if a[i] != b[i] {
				return i
			}
		}
	}
	return -1
}
