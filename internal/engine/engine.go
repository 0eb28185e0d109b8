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
Package engine provides the codec engine: a job-context based offload model
with a software backend and a simulated hardware backend.

JOB MODEL:
==========
A Job is an opaque context with engine-sized working memory. Callers
configure its public fields, then either Execute it (blocking) or Submit it
and Poll until it leaves the in-progress state.

	Idle → Ready (InitJob) → Queued (Submit) → Running → Done | Failed
	  ↑                                                      │
	  └──────────────────── Finalized (FiniJob) ←────────────┘

BACKENDS:
=========
  - Software: a submitted job runs inline on the first Poll, on the caller's
    goroutine. Jobs are emulated sequentially in poll order.
  - Hardware: jobs are queued to a fixed set of lanes (worker goroutines), the
    way work queues feed offload engines. Submit never blocks; a full queue is
    reported as ErrQueueFull.

FLAGS:
======
Every job must carry FlagFirst|FlagLast: the engine only runs jobs that
produce or consume one complete, self-contained stream.
*/
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"accelbench/internal/codec"
)

var (
	// ErrBackendUnavailable is returned when a backend cannot serve jobs.
	ErrBackendUnavailable = errors.New("engine: backend unavailable")

	// ErrJobSize is returned when a job's working memory is undersized.
	ErrJobSize = errors.New("engine: job working memory too small")

	// ErrJobState is returned for an operation the job's state does not allow.
	ErrJobState = errors.New("engine: invalid job state")

	// ErrJobBusy is returned when finalizing a job that is still in flight.
	ErrJobBusy = errors.New("engine: job in flight")

	// ErrQueueFull is returned when no lane queue slot is free.
	ErrQueueFull = errors.New("engine: queues are busy")

	// ErrUnsupportedFlags is returned for jobs that are not whole streams.
	ErrUnsupportedFlags = errors.New("engine: job must be flagged first and last")

	// ErrUnknownOp is returned for jobs with an invalid operation.
	ErrUnknownOp = errors.New("engine: unknown operation")

	// ErrVerifyFailed is returned when a compress job fails its verify pass.
	ErrVerifyFailed = errors.New("engine: compressed stream failed verification")

	// ErrEngineClosed is returned by a closed engine.
	ErrEngineClosed = errors.New("engine: closed")

	// ErrDeviceBusy is returned when another process holds the device lock.
	ErrDeviceBusy = errors.New("engine: device is locked by another process")
)

// Backend selects the execution path of a job.
type Backend uint8

const (
	Software Backend = iota
	Hardware
)

func (b Backend) String() string {
	switch b {
	case Software:
		return "software"
	case Hardware:
		return "hardware"
	default:
		return "unknown"
	}
}

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "software", "sw":
		return Software, nil
	case "hardware", "hw":
		return Hardware, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBackendUnavailable, s)
	}
}

// Op is the operation a job performs.
type Op uint8

const (
	OpCompress Op = iota
	OpDecompress
)

func (o Op) String() string {
	switch o {
	case OpCompress:
		return "compress"
	case OpDecompress:
		return "decompress"
	default:
		return "unknown"
	}
}

// Flags modify how a job runs.
type Flags uint32

const (
	// FlagFirst marks the job as the start of a stream.
	FlagFirst Flags = 1 << iota
	// FlagLast marks the job as the end of a stream.
	FlagLast
	// FlagDynamic gathers per-job statistics for dynamic tables.
	FlagDynamic
	// FlagOmitVerify skips the decompress-and-compare pass after compression.
	FlagOmitVerify
)

// Status is the result of polling a job.
type Status uint8

const (
	StatusInProgress Status = iota
	StatusOK
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Engine is the codec engine capability consumed by the dispatcher.
type Engine interface {
	// JobSize reports the working memory a job needs on backend b.
	JobSize(b Backend) (int, error)
	// InitJob binds a freshly allocated job to backend b.
	InitJob(b Backend, job *Job) error
	// Submit enqueues a configured job without waiting for it.
	Submit(job *Job) error
	// Poll checks a submitted job without blocking.
	Poll(job *Job) (Status, error)
	// Execute runs a configured job to completion.
	Execute(job *Job) error
	// FiniJob releases a job. Finalized jobs cannot be reused.
	FiniJob(job *Job) error
}

const (
	stateIdle uint32 = iota
	stateReady
	stateQueued
	stateRunning
	stateDone
	stateFailed
	stateFinalized
)

// Job is one engine job context.
type Job struct {
	Op    Op
	In    []byte
	Out   []byte
	Flags Flags
	// Table is attached for canned compression and for decoding canned
	// streams. It is only read.
	Table *codec.Table

	// TotalOut is written by the engine when the job completes.
	TotalOut int

	backend   Backend
	workspace []byte
	state     atomic.Uint32
	err       error
}

// NewJob allocates a job with size bytes of working memory.
func NewJob(size int) *Job {
	return &Job{workspace: make([]byte, size)}
}

// Backend returns the backend the job was initialized for.
func (j *Job) Backend() Backend { return j.backend }

// Err returns the failure of a job in the failed state.
func (j *Job) Err() error {
	if j.state.Load() != stateFailed {
		return nil
	}
	return j.err
}

// mode derives the codec encoding mode from the job's flags and table.
func (j *Job) mode() codec.Mode {
	switch {
	case j.Table != nil:
		return codec.Canned
	case j.Flags&FlagDynamic != 0:
		return codec.Dynamic
	default:
		return codec.Fixed
	}
}

// finish publishes the job result. err and TotalOut are written before the
// state store so a Poll that observes the terminal state also sees them.
func (j *Job) finish(n int, err error) {
	if err != nil {
		j.TotalOut = 0
		j.err = err
		j.state.Store(stateFailed)
		return
	}
	j.TotalOut = n
	j.err = nil
	j.state.Store(stateDone)
}
