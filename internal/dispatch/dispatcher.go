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
Package dispatch implements chunked parallel compression and decompression
over an engine.Engine.

DISPATCH MODEL:
===============
A call splits the source into chunks (Plan), acquires one job per chunk
(Acquire), submits every job without waiting, then sweeps the pending jobs
round-robin until all have completed or one has failed. Jobs are finalized
(Release) before the call returns, on success and on failure.

	Plan → Acquire → Submit all → Poll sweep ... → Truncate → Release

Every chunk is compressed as a self-contained stream (FlagFirst|FlagLast),
so chunks may complete in any order and still decode independently. The
Format keeps them in chunk order; Decompress writes chunk i at the running
sum of the original lengths before it.

The dispatcher spawns no goroutines. All polling happens on the caller's
goroutine and no call returns partial output alongside an error.
*/
package dispatch

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"accelbench/internal/codec"
	"accelbench/internal/engine"
	"accelbench/internal/logging"
	"accelbench/internal/metrics"
)

const (
	opCompress   = "compress"
	opDecompress = "decompress"
)

// codecReporter is implemented by engines that expose their stream format.
type codecReporter interface {
	Codec() codec.Type
}

// Dispatcher drives parallel jobs on one engine backend.
type Dispatcher struct {
	Engine  engine.Engine
	Backend engine.Backend

	// Metrics receives per-call counters when set.
	Metrics *metrics.Metrics
	// SlowJobThreshold logs jobs that took longer at WARN. Zero disables it.
	SlowJobThreshold time.Duration

	logger *logging.Logger
}

// New creates a dispatcher for backend on eng.
func New(eng engine.Engine, backend engine.Backend) *Dispatcher {
	return &Dispatcher{
		Engine:  eng,
		Backend: backend,
		logger:  logging.NewLogger("dispatch").With("backend", backend),
	}
}

func (d *Dispatcher) log() *logging.Logger {
	if d.logger == nil {
		d.logger = logging.NewLogger("dispatch").With("backend", d.Backend)
	}
	return d.logger
}

// Compress compresses src as one self-contained stream per layout chunk. A
// canned call without a table builds one from the whole source.
func (d *Dispatcher) Compress(mode codec.Mode, src []byte, layout []Chunk, table *codec.Table) (*Format, error) {
	start := time.Now()
	format, sweeps, err := d.compress(mode, src, layout, table)
	if err != nil {
		d.recordFailure()
		return nil, err
	}
	if d.Metrics != nil {
		d.Metrics.RecordDispatch(metrics.OpCompress, len(layout), len(src), format.CompressedSize(), sweeps, time.Since(start))
	}
	return format, nil
}

func (d *Dispatcher) compress(mode codec.Mode, src []byte, layout []Chunk, table *codec.Table) (*Format, int, error) {
	if err := checkLayout(layout, len(src)); err != nil {
		return nil, 0, newError(ErrInvalidArgument, opCompress, -1, err)
	}

	switch mode {
	case codec.Fixed, codec.Dynamic:
		table = nil
	case codec.Canned:
		if table == nil {
			built, err := codec.BuildTable(src)
			if err != nil {
				return nil, 0, newError(ErrEngineInit, opCompress, -1, err)
			}
			table = built
		}
	default:
		return nil, 0, newError(ErrInvalidArgument, opCompress, -1, fmt.Errorf("%w: %d", codec.ErrUnknownMode, mode))
	}

	jobs, err := Acquire(d.Engine, d.Backend, len(layout))
	if err != nil {
		return nil, 0, err
	}

	flags := engine.FlagFirst | engine.FlagLast | engine.FlagOmitVerify
	if mode == codec.Dynamic {
		flags |= engine.FlagDynamic
	}

	chunks := make([]CompressedChunk, len(layout))
	for i, c := range layout {
		chunks[i] = CompressedChunk{
			Data:           make([]byte, chunkCapacity(c.Length)),
			OriginalLength: c.Length,
		}
		job := jobs[i]
		job.Op = engine.OpCompress
		job.In = src[c.Offset : c.Offset+c.Length]
		job.Out = chunks[i].Data
		job.Flags = flags
		job.Table = table
	}

	sweeps, err := d.run(opCompress, jobs)
	if err == nil {
		for i, job := range jobs {
			chunks[i].Data = chunks[i].Data[:job.TotalOut]
		}
	}

	if rerr := Release(d.Engine, jobs); rerr != nil {
		if err != nil {
			d.log().Warn("Release after failure", "op", opCompress, "error", rerr)
			return nil, sweeps, err
		}
		return nil, sweeps, rerr
	}
	if err != nil {
		return nil, sweeps, err
	}

	format := &Format{Chunks: chunks, Mode: mode}
	if mode == codec.Canned {
		format.Table = table
	}
	if cr, ok := d.Engine.(codecReporter); ok {
		format.Codec = cr.Codec()
	}
	return format, sweeps, nil
}

// Decompress decodes every chunk of format into dst and returns the total
// number of bytes written.
func (d *Dispatcher) Decompress(format *Format, dst []byte) (int, error) {
	start := time.Now()
	total, sweeps, err := d.decompress(format, dst)
	if err != nil {
		d.recordFailure()
		return 0, err
	}
	if d.Metrics != nil {
		d.Metrics.RecordDispatch(metrics.OpDecompress, len(format.Chunks), format.CompressedSize(), total, sweeps, time.Since(start))
	}
	return total, nil
}

func (d *Dispatcher) decompress(format *Format, dst []byte) (int, int, error) {
	if format == nil || len(format.Chunks) == 0 {
		return 0, 0, newError(ErrInvalidArgument, opDecompress, -1, fmt.Errorf("empty format"))
	}
	for i, c := range format.Chunks {
		if c.OriginalLength <= 0 || len(c.Data) == 0 {
			return 0, 0, newError(ErrInvalidArgument, opDecompress, i, fmt.Errorf("empty chunk"))
		}
	}
	if need := format.OriginalSize(); len(dst) < need {
		return 0, 0, newError(ErrInvalidArgument, opDecompress, -1,
			fmt.Errorf("destination holds %d bytes, format needs %d", len(dst), need))
	}

	jobs, err := Acquire(d.Engine, d.Backend, len(format.Chunks))
	if err != nil {
		return 0, 0, err
	}

	offset := 0
	for i, c := range format.Chunks {
		end := offset + c.OriginalLength
		job := jobs[i]
		job.Op = engine.OpDecompress
		job.In = c.Data
		job.Out = dst[offset:end:end]
		job.Flags = engine.FlagFirst | engine.FlagLast
		job.Table = format.Table
		offset = end
	}

	sweeps, err := d.run(opDecompress, jobs)
	total := 0
	if err == nil {
		for _, job := range jobs {
			total += job.TotalOut
		}
	}

	if rerr := Release(d.Engine, jobs); rerr != nil {
		if err != nil {
			d.log().Warn("Release after failure", "op", opDecompress, "error", rerr)
			return 0, sweeps, err
		}
		return 0, sweeps, rerr
	}
	if err != nil {
		return 0, sweeps, err
	}
	return total, sweeps, nil
}

// run submits every job and polls them to completion. It returns the number
// of poll sweeps. On failure every job still in flight is drained first, so
// the caller can release all of them.
func (d *Dispatcher) run(op string, jobs []*engine.Job) (int, error) {
	states := make([]JobState, len(jobs))
	jl := logging.NewJobLogger(d.log(), d.SlowJobThreshold)
	start := time.Now()

	for i, job := range jobs {
		if err := d.Engine.Submit(job); err != nil {
			err = errors.Join(err, states[i].advance(StateFailed))
			jl.LogJobFailed(op, i, err)
			d.drain(jobs, states)
			return 0, newError(ErrSubmission, op, i, err)
		}
		if err := states[i].advance(StateSubmitted); err != nil {
			d.drain(jobs, states)
			return 0, newError(ErrSubmission, op, i, err)
		}
	}

	done := make([]bool, len(jobs))
	remaining := len(jobs)
	sweeps := 0
	for remaining > 0 {
		sweeps++
		for i, job := range jobs {
			if done[i] {
				continue
			}
			status, err := d.Engine.Poll(job)
			switch status {
			case engine.StatusInProgress:
				if aerr := states[i].advance(StatePending); aerr != nil {
					d.drain(jobs, states)
					return sweeps, newError(ErrCompletion, op, i, aerr)
				}
				continue
			case engine.StatusOK:
				if aerr := states[i].advance(StateCompleted); aerr != nil {
					d.drain(jobs, states)
					return sweeps, newError(ErrCompletion, op, i, aerr)
				}
				done[i] = true
				remaining--
				jl.LogJobLatency(op, i, time.Since(start))
			default:
				if err == nil {
					err = errJobFailed
				}
				err = errors.Join(err, states[i].advance(StateFailed))
				jl.LogJobFailed(op, i, err)
				if d.Metrics != nil {
					d.Metrics.RecordJobFailure()
				}
				d.drain(jobs, states)
				return sweeps, newError(ErrCompletion, op, i, err)
			}
		}
		if remaining > 0 {
			runtime.Gosched()
		}
	}
	return sweeps, nil
}

// drain sweeps the in-flight jobs until the engine lets go of all of them.
// Results are discarded.
func (d *Dispatcher) drain(jobs []*engine.Job, states []JobState) {
	for {
		inFlight := 0
		for i, job := range jobs {
			if !states[i].InFlight() {
				continue
			}
			status, err := d.Engine.Poll(job)
			next := StateFailed
			switch status {
			case engine.StatusInProgress:
				inFlight++
				continue
			case engine.StatusOK:
				next = StateCompleted
			default:
				if err != nil && !errors.Is(err, engine.ErrEngineClosed) {
					d.log().Debug("Drained failed job", "chunk", i, "error", err)
				}
			}
			if aerr := states[i].advance(next); aerr != nil {
				// Leaving the job in flight would spin forever.
				d.log().Warn("Drained job in unexpected state", "chunk", i, "error", aerr)
				states[i] = next
			}
		}
		if inFlight == 0 {
			return
		}
		runtime.Gosched()
	}
}

func (d *Dispatcher) recordFailure() {
	if d.Metrics != nil {
		d.Metrics.RecordDispatchFailure()
	}
}
