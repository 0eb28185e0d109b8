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

import (
	"fmt"

	"accelbench/internal/codec"
	"accelbench/internal/engine"
)

// CompressBlocking compresses src as a single stream with one synchronous
// job. It is the non-parallel baseline for Compress.
func CompressBlocking(eng engine.Engine, backend engine.Backend, mode codec.Mode, src []byte, table *codec.Table) (*Format, error) {
	if len(src) == 0 {
		return nil, newError(ErrInvalidArgument, opCompress, -1, fmt.Errorf("empty source"))
	}

	flags := engine.FlagFirst | engine.FlagLast | engine.FlagOmitVerify
	switch mode {
	case codec.Fixed:
		table = nil
	case codec.Dynamic:
		table = nil
		flags |= engine.FlagDynamic
	case codec.Canned:
		if table == nil {
			built, err := codec.BuildTable(src)
			if err != nil {
				return nil, newError(ErrEngineInit, opCompress, -1, err)
			}
			table = built
		}
	default:
		return nil, newError(ErrInvalidArgument, opCompress, -1, fmt.Errorf("%w: %d", codec.ErrUnknownMode, mode))
	}

	jobs, err := Acquire(eng, backend, 1)
	if err != nil {
		return nil, err
	}
	job := jobs[0]
	out := make([]byte, chunkCapacity(len(src)))
	job.Op = engine.OpCompress
	job.In = src
	job.Out = out
	job.Flags = flags
	job.Table = table

	err = eng.Execute(job)
	n := job.TotalOut
	if rerr := Release(eng, jobs); rerr != nil && err == nil {
		return nil, rerr
	}
	if err != nil {
		return nil, newError(ErrCompletion, opCompress, 0, err)
	}

	format := &Format{
		Chunks: []CompressedChunk{{Data: out[:n], OriginalLength: len(src)}},
		Mode:   mode,
	}
	if mode == codec.Canned {
		format.Table = table
	}
	if cr, ok := eng.(codecReporter); ok {
		format.Codec = cr.Codec()
	}
	return format, nil
}

// DecompressBlocking decodes one stream into dst with a synchronous job and
// returns the number of bytes written. table must be the one the stream was
// compressed with, or nil.
func DecompressBlocking(eng engine.Engine, backend engine.Backend, stream []byte, table *codec.Table, dst []byte) (int, error) {
	if len(stream) == 0 || len(dst) == 0 {
		return 0, newError(ErrInvalidArgument, opDecompress, -1, fmt.Errorf("empty stream or destination"))
	}

	jobs, err := Acquire(eng, backend, 1)
	if err != nil {
		return 0, err
	}
	job := jobs[0]
	job.Op = engine.OpDecompress
	job.In = stream
	job.Out = dst
	job.Flags = engine.FlagFirst | engine.FlagLast
	job.Table = table

	err = eng.Execute(job)
	n := job.TotalOut
	if rerr := Release(eng, jobs); rerr != nil && err == nil {
		return 0, rerr
	}
	if err != nil {
		return 0, newError(ErrCompletion, opDecompress, 0, err)
	}
	return n, nil
}
