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
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// deflateCodec produces raw deflate streams, one final block sequence per call.
type deflateCodec struct {
	fixed   sync.Pool // *flate.Writer at BestSpeed
	dynamic sync.Pool // *flate.Writer at DefaultCompression
	readers sync.Pool // io.ReadCloser implementing flate.Resetter
}

func newDeflateCodec() *deflateCodec {
	return &deflateCodec{}
}

func (d *deflateCodec) Type() Type { return Deflate }

func (d *deflateCodec) Compress(dst, src []byte, mode Mode, table *Table) (int, error) {
	w := &sliceWriter{buf: dst}

	var (
		fw   *flate.Writer
		pool *sync.Pool
		err  error
	)
	switch mode {
	case Fixed:
		pool = &d.fixed
		fw, err = d.writer(pool, w, flate.BestSpeed)
	case Dynamic:
		pool = &d.dynamic
		fw, err = d.writer(pool, w, flate.DefaultCompression)
	case Canned:
		if table == nil {
			return 0, ErrTableRequired
		}
		fw, err = flate.NewWriterDict(w, flate.DefaultCompression, table.dict)
	default:
		return 0, ErrUnknownMode
	}
	if err != nil {
		return 0, err
	}

	if _, err := fw.Write(src); err != nil {
		return 0, err
	}
	if err := fw.Close(); err != nil {
		return 0, err
	}
	if pool != nil {
		pool.Put(fw)
	}
	return w.n, nil
}

func (d *deflateCodec) writer(pool *sync.Pool, w io.Writer, level int) (*flate.Writer, error) {
	if v := pool.Get(); v != nil {
		fw := v.(*flate.Writer)
		fw.Reset(w)
		return fw, nil
	}
	return flate.NewWriter(w, level)
}

func (d *deflateCodec) Decompress(dst, src []byte, table *Table) (int, error) {
	var dict []byte
	if table != nil {
		dict = table.dict
	}

	in := bytes.NewReader(src)
	var r io.ReadCloser
	if v := d.readers.Get(); v != nil {
		r = v.(io.ReadCloser)
		if err := r.(flate.Resetter).Reset(in, dict); err != nil {
			return 0, err
		}
	} else {
		r = flate.NewReaderDict(in, dict)
	}

	n, err := readBlock(r, dst)
	if err != nil {
		return n, err
	}
	d.readers.Put(r)
	return n, nil
}
