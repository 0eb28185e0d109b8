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
Package codec provides the one-shot block codecs that back the accelbench
codec engine.

SUPPORTED CODECS:
=================
- deflate: klauspost/compress/flate, the format offload engines implement
- zstd:    klauspost/compress/zstd, raw-dictionary canned tables
- lz4:     pierrec/lz4/v4 block format, no canned tables

ENCODING MODES:
===============

	Mode    | Table       | Statistics
	--------|-------------|------------------------------
	Fixed   | none        | codec default, fastest level
	Dynamic | none        | gathered per block by the codec
	Canned  | *Table      | precomputed once, shared read-only

Every call produces or consumes one complete, self-contained stream. A codec
never keeps state between calls that would tie two blocks together, which is
what lets chunks be decoded in any order.

All codecs are safe for concurrent use.
*/
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrShortBuffer is returned when the output does not fit the destination.
	ErrShortBuffer = errors.New("codec: destination buffer too small")

	// ErrTableRequired is returned for canned compression without a table.
	ErrTableRequired = errors.New("codec: canned mode requires a static table")

	// ErrTableUnsupported is returned by codecs that cannot use static tables.
	ErrTableUnsupported = errors.New("codec: static tables not supported")

	// ErrUnknownCodec is returned by ParseType for unknown names.
	ErrUnknownCodec = errors.New("codec: unknown codec")

	// ErrUnknownMode is returned by ParseMode for unknown names.
	ErrUnknownMode = errors.New("codec: unknown encoding mode")
)

// Type identifies a codec implementation.
type Type byte

const (
	Deflate Type = iota
	Zstd
	LZ4
)

func (t Type) String() string {
	switch t {
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// SupportsMode reports whether streams of type t can be produced in mode m.
// LZ4 blocks cannot reference a static table.
func (t Type) SupportsMode(m Mode) bool {
	return t != LZ4 || m != Canned
}

// ParseType parses a codec name.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "deflate", "":
		return Deflate, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

// Mode selects how entropy-coding tables are obtained for a block.
type Mode uint8

const (
	Fixed Mode = iota
	Dynamic
	Canned
)

func (m Mode) String() string {
	switch m {
	case Fixed:
		return "fixed"
	case Dynamic:
		return "dynamic"
	case Canned:
		return "canned"
	default:
		return "unknown"
	}
}

// ParseMode parses an encoding mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "fixed":
		return Fixed, nil
	case "dynamic":
		return Dynamic, nil
	case "canned":
		return Canned, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Codec compresses and decompresses whole blocks into caller buffers.
//
// Compress writes one complete stream for src into dst and returns the number
// of bytes written. Decompress decodes one complete stream into dst and
// returns the number of bytes produced. table is only consulted in Canned mode
// and when decoding streams produced in Canned mode.
type Codec interface {
	Compress(dst, src []byte, mode Mode, table *Table) (int, error)
	Decompress(dst, src []byte, table *Table) (int, error)
	Type() Type
}

// New creates a codec of the given type.
func New(t Type) (Codec, error) {
	switch t {
	case Deflate:
		return newDeflateCodec(), nil
	case Zstd:
		return newZstdCodec()
	case LZ4:
		return &lz4Codec{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, t)
	}
}

// sliceWriter writes into a fixed destination without growing it.
type sliceWriter struct {
	buf []byte
	n   int
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.n:], p)
	w.n += n
	if n < len(p) {
		return n, ErrShortBuffer
	}
	return n, nil
}

// readBlock fills dst from a stream reader and fails if the stream holds
// more data than dst can take.
func readBlock(r io.Reader, dst []byte) (int, error) {
	n := 0
	for n < len(dst) {
		m, err := r.Read(dst[n:])
		n += m
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}

	var probe [1]byte
	switch _, err := io.ReadFull(r, probe[:]); err {
	case io.EOF:
		return n, nil
	case nil:
		return n, ErrShortBuffer
	default:
		return n, err
	}
}
