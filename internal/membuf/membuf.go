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
Package membuf allocates the source and destination buffers used by
benchmark cases.

BACKINGS:
=========
  - Heap: a Go slice.
  - Anonymous: a private anonymous mapping (mmap with MAP_ANON), released
    with munmap on Close.
  - File: a shared mapping of a temporary file created with gommap. The file
    is removed on Close.

Mapped backings are only available on linux and darwin; elsewhere Alloc
returns ErrUnsupported for them.

PREFAULT:
=========
A fresh mapping is backed by the shared zero page until it is written, so
reading it first measures page faults, not the engine. Prefault writes
every byte so the pages are resident before timing starts.
*/
package membuf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned for backings the platform cannot provide.
	ErrUnsupported = errors.New("membuf: backing not supported on this platform")

	// ErrClosed is returned when using a closed buffer.
	ErrClosed = errors.New("membuf: buffer closed")
)

// Backing selects how a buffer's memory is obtained.
type Backing uint8

const (
	Heap Backing = iota
	Anonymous
	File
)

func (b Backing) String() string {
	switch b {
	case Heap:
		return "heap"
	case Anonymous:
		return "anonymous"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// ParseBacking parses a backing name.
func ParseBacking(s string) (Backing, error) {
	switch strings.ToLower(s) {
	case "heap", "":
		return Heap, nil
	case "anonymous", "anon", "mmap":
		return Anonymous, nil
	case "file":
		return File, nil
	default:
		return 0, fmt.Errorf("membuf: unknown backing %q", s)
	}
}

// PrefaultValue is written by Prefault.
const PrefaultValue = 1

// Buffer is a fixed-size byte buffer with an explicit lifetime.
type Buffer struct {
	data    []byte
	backing Backing
	release func() error
	closed  bool
}

// Alloc allocates size bytes. dir is used for File backings and may be
// empty for the system temporary directory.
func Alloc(backing Backing, size int, dir string) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("membuf: invalid size %d", size)
	}

	var (
		data    []byte
		release func() error
		err     error
	)
	switch backing {
	case Heap:
		data = make([]byte, size)
	case Anonymous:
		data, release, err = mapAnonymous(size)
	case File:
		data, release, err = mapFile(size, dir)
	default:
		return nil, fmt.Errorf("membuf: unknown backing %d", backing)
	}
	if err != nil {
		return nil, fmt.Errorf("membuf: alloc %d bytes (%s): %w", size, backing, err)
	}
	return &Buffer{data: data, backing: backing, release: release}, nil
}

// Bytes returns the buffer memory. It must not be used after Close.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer size.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Backing returns how the buffer was allocated.
func (b *Buffer) Backing() Backing {
	return b.backing
}

// Prefault touches every page of the buffer by filling it with
// PrefaultValue.
func (b *Buffer) Prefault() error {
	if b.closed {
		return ErrClosed
	}
	if b.backing != Heap {
		advise(b.data)
	}
	for i := range b.data {
		b.data[i] = PrefaultValue
	}
	return nil
}

// Close releases the buffer memory.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.data = nil
	if b.release == nil {
		return nil
	}
	return b.release()
}
