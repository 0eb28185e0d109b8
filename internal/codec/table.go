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
	"errors"

	"github.com/cespare/xxhash/v2"
)

const (
	// maxTableDict matches the deflate window; larger dictionaries are
	// never referenced by deflate and only slow zstd table setup.
	maxTableDict = 32 * 1024

	// minTableDict keeps tiny samples usable as zstd raw dictionaries.
	minTableDict = 64
)

// ErrEmptySample is returned when a static table is built from no data.
var ErrEmptySample = errors.New("codec: static table sample is empty")

// Table is a precomputed canned table built from a representative sample.
//
// A Table is immutable after BuildTable returns and may be shared by any
// number of concurrent jobs. Callers must keep it alive until every job that
// references it has completed, and must keep it to decode the streams it
// produced.
type Table struct {
	id        uint32
	dict      []byte
	sampleLen int
}

// BuildTable derives a static table from sample. The sample is copied.
func BuildTable(sample []byte) (*Table, error) {
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}

	// The tail of the sample is the most recent history a block would see,
	// so it is what the window can reference.
	src := sample
	if len(src) > maxTableDict {
		src = src[len(src)-maxTableDict:]
	}

	size := len(src)
	if size < minTableDict {
		size = minTableDict
	}
	dict := make([]byte, size)
	for n := 0; n < size; {
		n += copy(dict[n:], src)
	}

	id := uint32(xxhash.Sum64(dict))
	if id == 0 {
		// zero means "no dictionary" in zstd frame headers
		id = 1
	}

	return &Table{id: id, dict: dict, sampleLen: len(sample)}, nil
}

// ID returns the table identity written into frames that reference it.
func (t *Table) ID() uint32 { return t.id }

// Dictionary returns the table content. It must not be modified.
func (t *Table) Dictionary() []byte { return t.dict }

// SampleLen returns the length of the sample the table was built from.
func (t *Table) SampleLen() int { return t.sampleLen }
