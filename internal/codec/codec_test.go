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
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func testPayload(n int) []byte {
	rng := rand.New(rand.NewSource(7))
	words := []string{"offload ", "engine ", "chunk ", "table ", "lane ", "poll "}
	var buf bytes.Buffer
	for buf.Len() < n {
		buf.WriteString(words[rng.Intn(len(words))])
		if rng.Intn(8) == 0 {
			buf.WriteByte(byte(rng.Intn(256)))
		}
	}
	return buf.Bytes()[:n]
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Deflate, "deflate"},
		{Zstd, "zstd"},
		{LZ4, "lz4"},
		{Type(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.expected {
			t.Errorf("Type(%d).String() = %s, want %s", tt.typ, got, tt.expected)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
		wantErr  bool
	}{
		{"deflate", Deflate, false},
		{"", Deflate, false},
		{"ZSTD", Zstd, false},
		{"lz4", LZ4, false},
		{"brotli", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownCodec) {
				t.Errorf("ParseType(%q) error = %v, want ErrUnknownCodec", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseType(%q) = %v, %v, want %v", tt.input, got, err, tt.expected)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Fixed, Dynamic, Canned} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("adaptive"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
	if Mode(42).String() != "unknown" {
		t.Errorf("Expected unknown mode name, got %s", Mode(42).String())
	}
}

func TestRoundTrip(t *testing.T) {
	payload := testPayload(64 * 1024)
	table, err := BuildTable(payload)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	for _, typ := range []Type{Deflate, Zstd, LZ4} {
		c, err := New(typ)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", typ, err)
		}
		for _, mode := range []Mode{Fixed, Dynamic, Canned} {
			if typ == LZ4 && mode == Canned {
				continue
			}
			t.Run(typ.String()+"/"+mode.String(), func(t *testing.T) {
				var tbl *Table
				if mode == Canned {
					tbl = table
				}

				compressed := make([]byte, 2*len(payload)+64)
				n, err := c.Compress(compressed, payload, mode, tbl)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				if n >= len(payload) {
					t.Errorf("Expected compression, got %d bytes from %d", n, len(payload))
				}

				out := make([]byte, len(payload))
				m, err := c.Decompress(out, compressed[:n], tbl)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if m != len(payload) {
					t.Fatalf("Decompress size = %d, want %d", m, len(payload))
				}
				if !bytes.Equal(out, payload) {
					t.Error("Decompressed data does not match original")
				}
			})
		}
	}
}

func TestCannedRequiresTable(t *testing.T) {
	for _, typ := range []Type{Deflate, Zstd} {
		c, err := New(typ)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", typ, err)
		}
		_, err = c.Compress(make([]byte, 256), []byte("payload"), Canned, nil)
		if !errors.Is(err, ErrTableRequired) {
			t.Errorf("%s: expected ErrTableRequired, got %v", typ, err)
		}
	}
}

func TestLZ4RejectsTables(t *testing.T) {
	c, _ := New(LZ4)
	table, _ := BuildTable([]byte("sample data"))

	if _, err := c.Compress(make([]byte, 256), []byte("payload"), Canned, table); !errors.Is(err, ErrTableUnsupported) {
		t.Errorf("Expected ErrTableUnsupported on compress, got %v", err)
	}
	if _, err := c.Decompress(make([]byte, 256), []byte{0x10}, table); !errors.Is(err, ErrTableUnsupported) {
		t.Errorf("Expected ErrTableUnsupported on decompress, got %v", err)
	}
}

func TestSupportsMode(t *testing.T) {
	for _, typ := range []Type{Deflate, Zstd, LZ4} {
		c, err := New(typ)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", typ, err)
		}
		table, err := BuildTable(bytes.Repeat([]byte("accelbench sample "), 64))
		if err != nil {
			t.Fatalf("BuildTable failed: %v", err)
		}
		for _, mode := range []Mode{Fixed, Dynamic, Canned} {
			dst := make([]byte, 4096)
			_, err := c.Compress(dst, []byte("supported modes compress"), mode, table)
			if got := typ.SupportsMode(mode); got != (err == nil) {
				t.Errorf("%s/%s: SupportsMode = %v, Compress error = %v", typ, mode, got, err)
			}
		}
	}
}

func TestCompressShortBuffer(t *testing.T) {
	payload := testPayload(4096)
	for _, typ := range []Type{Deflate, Zstd} {
		c, _ := New(typ)
		if _, err := c.Compress(make([]byte, 4), payload, Dynamic, nil); err == nil {
			t.Errorf("%s: expected error for 4-byte destination", typ)
		}
	}
}

func TestDecompressShortBuffer(t *testing.T) {
	payload := testPayload(4096)
	for _, typ := range []Type{Deflate, Zstd} {
		c, _ := New(typ)
		compressed := make([]byte, 2*len(payload)+64)
		n, err := c.Compress(compressed, payload, Dynamic, nil)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", typ, err)
		}
		if _, err := c.Decompress(make([]byte, len(payload)/2), compressed[:n], nil); err == nil {
			t.Errorf("%s: expected error for undersized destination", typ)
		}
	}
}

func TestDeflateCannedNeedsTableToDecode(t *testing.T) {
	payload := testPayload(8192)
	table, _ := BuildTable(payload)
	c, _ := New(Deflate)

	compressed := make([]byte, 2*len(payload)+64)
	n, err := c.Compress(compressed, payload, Canned, table)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	out := make([]byte, len(payload))
	m, err := c.Decompress(out, compressed[:n], nil)
	if err == nil && bytes.Equal(out[:m], payload) {
		t.Error("Expected decoding without the table to fail")
	}
}

func TestTinyBlocks(t *testing.T) {
	for _, typ := range []Type{Deflate, Zstd, LZ4} {
		c, _ := New(typ)
		src := []byte{0x42}
		dst := make([]byte, 2*len(src)+64)
		n, err := c.Compress(dst, src, Fixed, nil)
		if err != nil {
			t.Fatalf("%s: Compress failed: %v", typ, err)
		}
		out := make([]byte, 1)
		m, err := c.Decompress(out, dst[:n], nil)
		if err != nil || m != 1 || out[0] != 0x42 {
			t.Errorf("%s: round trip of one byte = %v, %d, %v", typ, out, m, err)
		}
	}
}
