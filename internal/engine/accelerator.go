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

package engine

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"accelbench/internal/codec"
	"accelbench/internal/logging"
)

// Working memory per job. The hardware path keeps most state on the device,
// the software path carries its own history buffers.
const (
	softwareJobSize = 64 * 1024
	hardwareJobSize = 4 * 1024
)

// Config holds configuration for an Accelerator.
type Config struct {
	// Codec is the stream format every job produces and consumes.
	Codec codec.Type
	// Lanes is the number of hardware lanes. Zero disables the hardware
	// backend.
	Lanes int
	// QueueDepth is the capacity of the shared lane work queue. Submit fails
	// with ErrQueueFull once it is reached, so a single call can keep at most
	// QueueDepth hardware jobs in flight.
	QueueDepth int
	// Jitter adds a random delay of up to this duration before a lane runs
	// a job, so completion order differs from submission order.
	Jitter time.Duration
	// LockPath, when set, is locked for the lifetime of the accelerator so
	// two processes never drive the same device.
	LockPath string
}

// DefaultConfig returns default accelerator configuration.
func DefaultConfig() Config {
	lanes := runtime.NumCPU()
	if lanes > 8 {
		lanes = 8
	}
	return Config{
		Codec:      codec.Deflate,
		Lanes:      lanes,
		QueueDepth: 128,
	}
}

// Stats holds accelerator counters.
type Stats struct {
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	QueueRejects  uint64
	BytesIn       uint64
	BytesOut      uint64
	BusyNs        uint64
}

// Accelerator implements Engine over a codec with software and lane-based
// hardware execution.
type Accelerator struct {
	config Config
	codec  codec.Codec
	queue  chan *Job
	lanes  []*lane
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *logging.Logger
	lock   *flock.Flock
	stats  Stats

	// mu orders queue sends against Close.
	mu     sync.RWMutex
	closed bool
}

// lane runs hardware jobs from the shared queue.
type lane struct {
	id     int
	accel  *Accelerator
	logger *logging.Logger
}

// Open creates an accelerator and starts its hardware lanes.
func Open(config Config) (*Accelerator, error) {
	c, err := codec.New(config.Codec)
	if err != nil {
		return nil, err
	}
	if config.QueueDepth <= 0 {
		config.QueueDepth = 1
	}

	a := &Accelerator{
		config: config,
		codec:  c,
		queue:  make(chan *Job, config.QueueDepth),
		stopCh: make(chan struct{}),
		logger: logging.NewLogger("engine"),
	}

	if config.LockPath != "" {
		lock := flock.New(config.LockPath)
		held, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("engine: lock %s: %w", config.LockPath, err)
		}
		if !held {
			return nil, fmt.Errorf("%w: %s", ErrDeviceBusy, config.LockPath)
		}
		a.lock = lock
	}

	a.lanes = make([]*lane, config.Lanes)
	for i := range a.lanes {
		a.lanes[i] = &lane{
			id:     i,
			accel:  a,
			logger: a.logger.With("lane", i),
		}
		a.wg.Add(1)
		go a.lanes[i].run()
	}

	a.logger.Info("Accelerator opened",
		"codec", config.Codec,
		"lanes", config.Lanes,
		"queue_depth", config.QueueDepth)
	return a, nil
}

// Codec returns the stream format of the accelerator.
func (a *Accelerator) Codec() codec.Type { return a.config.Codec }

// Close stops the lanes, fails jobs that were still queued and releases the
// device lock.
func (a *Accelerator) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	close(a.stopCh)
	a.wg.Wait()

	for drained := false; !drained; {
		select {
		case job := <-a.queue:
			job.finish(0, ErrEngineClosed)
			atomic.AddUint64(&a.stats.JobsFailed, 1)
		default:
			drained = true
		}
	}

	a.logger.Info("Accelerator closed")
	if a.lock != nil {
		return a.lock.Unlock()
	}
	return nil
}

// Stats returns accelerator counters.
func (a *Accelerator) Stats() Stats {
	return Stats{
		JobsSubmitted: atomic.LoadUint64(&a.stats.JobsSubmitted),
		JobsCompleted: atomic.LoadUint64(&a.stats.JobsCompleted),
		JobsFailed:    atomic.LoadUint64(&a.stats.JobsFailed),
		QueueRejects:  atomic.LoadUint64(&a.stats.QueueRejects),
		BytesIn:       atomic.LoadUint64(&a.stats.BytesIn),
		BytesOut:      atomic.LoadUint64(&a.stats.BytesOut),
		BusyNs:        atomic.LoadUint64(&a.stats.BusyNs),
	}
}

func (a *Accelerator) isClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// JobSize implements Engine.
func (a *Accelerator) JobSize(b Backend) (int, error) {
	if a.isClosed() {
		return 0, ErrEngineClosed
	}
	switch b {
	case Software:
		return softwareJobSize, nil
	case Hardware:
		if len(a.lanes) == 0 {
			return 0, fmt.Errorf("%w: no hardware lanes", ErrBackendUnavailable)
		}
		return hardwareJobSize, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrBackendUnavailable, b)
	}
}

// InitJob implements Engine.
func (a *Accelerator) InitJob(b Backend, job *Job) error {
	size, err := a.JobSize(b)
	if err != nil {
		return err
	}
	if len(job.workspace) < size {
		return fmt.Errorf("%w: have %d, need %d", ErrJobSize, len(job.workspace), size)
	}
	if !job.state.CompareAndSwap(stateIdle, stateReady) {
		return ErrJobState
	}
	job.backend = b
	return nil
}

func validate(job *Job) error {
	if job.Flags&(FlagFirst|FlagLast) != FlagFirst|FlagLast {
		return ErrUnsupportedFlags
	}
	if job.Op != OpCompress && job.Op != OpDecompress {
		return fmt.Errorf("%w: %d", ErrUnknownOp, job.Op)
	}
	return nil
}

// Submit implements Engine.
func (a *Accelerator) Submit(job *Job) error {
	if err := validate(job); err != nil {
		return err
	}
	prev := job.state.Load()
	if prev != stateReady && prev != stateDone && prev != stateFailed {
		return ErrJobState
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrEngineClosed
	}

	job.TotalOut = 0
	job.err = nil
	job.state.Store(stateQueued)

	if job.backend == Hardware {
		select {
		case a.queue <- job:
		default:
			job.state.Store(prev)
			atomic.AddUint64(&a.stats.QueueRejects, 1)
			return ErrQueueFull
		}
	}
	atomic.AddUint64(&a.stats.JobsSubmitted, 1)
	return nil
}

// Poll implements Engine. Software jobs run here, on the caller's goroutine.
func (a *Accelerator) Poll(job *Job) (Status, error) {
	switch job.state.Load() {
	case stateQueued:
		if job.backend != Software {
			return StatusInProgress, nil
		}
		a.run(job)
		return a.Poll(job)
	case stateRunning:
		return StatusInProgress, nil
	case stateDone:
		return StatusOK, nil
	case stateFailed:
		return StatusFailed, job.err
	default:
		return StatusFailed, ErrJobState
	}
}

// Execute implements Engine.
func (a *Accelerator) Execute(job *Job) error {
	if err := a.Submit(job); err != nil {
		return err
	}
	for {
		status, err := a.Poll(job)
		if status != StatusInProgress {
			return err
		}
		runtime.Gosched()
	}
}

// FiniJob implements Engine.
func (a *Accelerator) FiniJob(job *Job) error {
	for {
		s := job.state.Load()
		switch s {
		case stateQueued, stateRunning:
			return ErrJobBusy
		case stateIdle, stateFinalized:
			return ErrJobState
		}
		if job.state.CompareAndSwap(s, stateFinalized) {
			break
		}
	}
	job.workspace = nil
	job.In = nil
	job.Out = nil
	job.Table = nil
	return nil
}

// run executes a queued job. The CAS makes a job run at most once even if a
// lane and a poller race for it.
func (a *Accelerator) run(job *Job) {
	if !job.state.CompareAndSwap(stateQueued, stateRunning) {
		return
	}

	start := time.Now()
	n, err := a.process(job)
	atomic.AddUint64(&a.stats.BusyNs, uint64(time.Since(start).Nanoseconds()))
	atomic.AddUint64(&a.stats.BytesIn, uint64(len(job.In)))
	if err != nil {
		atomic.AddUint64(&a.stats.JobsFailed, 1)
	} else {
		atomic.AddUint64(&a.stats.JobsCompleted, 1)
		atomic.AddUint64(&a.stats.BytesOut, uint64(n))
	}
	job.finish(n, err)
}

func (a *Accelerator) process(job *Job) (int, error) {
	switch job.Op {
	case OpCompress:
		n, err := a.codec.Compress(job.Out, job.In, job.mode(), job.Table)
		if err != nil {
			return 0, err
		}
		if job.Flags&FlagOmitVerify == 0 {
			if err := a.verify(job, job.Out[:n]); err != nil {
				return 0, err
			}
		}
		return n, nil
	case OpDecompress:
		return a.codec.Decompress(job.Out, job.In, job.Table)
	default:
		return 0, ErrUnknownOp
	}
}

// verify decodes a freshly compressed stream into the job's working memory
// and compares it with the input.
func (a *Accelerator) verify(job *Job, stream []byte) error {
	if cap(job.workspace) < len(job.In) {
		job.workspace = make([]byte, len(job.In))
	}
	scratch := job.workspace[:len(job.In)]

	n, err := a.codec.Decompress(scratch, stream, job.Table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	if n != len(job.In) || !bytes.Equal(scratch[:n], job.In) {
		return ErrVerifyFailed
	}
	return nil
}

func (l *lane) run() {
	defer l.accel.wg.Done()
	l.logger.Debug("Lane started")

	jitter := l.accel.config.Jitter
	for {
		select {
		case <-l.accel.stopCh:
			l.logger.Debug("Lane stopped")
			return
		case job := <-l.accel.queue:
			if jitter > 0 {
				time.Sleep(rand.N(jitter))
			}
			l.accel.run(job)
		}
	}
}
