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
	"errors"
	"testing"

	"accelbench/internal/codec"
	"accelbench/internal/engine"
)

var errForced = errors.New("forced failure")

// fakeEngine is a deterministic engine.Engine. Jobs complete in rank order:
// a job finishes when it is polled and holds the lowest rank among the jobs
// still in progress. order is indexed by submission count modulo its length,
// so one engine can serve several calls. Failures can be forced at every
// engine call.
type fakeEngine struct {
	codec codec.Codec

	jobSizeErr error
	failInit   int // InitJob call index, -1 for none
	failSubmit int // Submit call index
	failPoll   int // submitted job index that fails when it completes
	failFini   int // FiniJob call index
	order      []int

	inits, submits, finis int
	live                  int
	submitted             []*engine.Job
	completed             []int
	jobs                  map[*engine.Job]*fakeJob
}

type fakeJob struct {
	index  int
	rank   int
	status engine.Status
	err    error
}

func newFakeEngine(t *testing.T, typ codec.Type) *fakeEngine {
	t.Helper()
	c, err := codec.New(typ)
	if err != nil {
		t.Fatalf("codec.New failed: %v", err)
	}
	return &fakeEngine{
		codec:      c,
		failInit:   -1,
		failSubmit: -1,
		failPoll:   -1,
		failFini:   -1,
		jobs:       make(map[*engine.Job]*fakeJob),
	}
}

func (f *fakeEngine) Codec() codec.Type { return f.codec.Type() }

func (f *fakeEngine) JobSize(engine.Backend) (int, error) {
	if f.jobSizeErr != nil {
		return 0, f.jobSizeErr
	}
	return 128, nil
}

func (f *fakeEngine) InitJob(engine.Backend, *engine.Job) error {
	i := f.inits
	f.inits++
	if i == f.failInit {
		return errForced
	}
	f.live++
	return nil
}

func (f *fakeEngine) Submit(job *engine.Job) error {
	i := f.submits
	f.submits++
	if i == f.failSubmit {
		return errForced
	}
	if job.Flags&(engine.FlagFirst|engine.FlagLast) != engine.FlagFirst|engine.FlagLast {
		return engine.ErrUnsupportedFlags
	}
	rank := i
	if f.order != nil {
		rank = f.order[i%len(f.order)]
	}
	f.jobs[job] = &fakeJob{index: i, rank: rank, status: engine.StatusInProgress}
	f.submitted = append(f.submitted, job)
	return nil
}

func (f *fakeEngine) Poll(job *engine.Job) (engine.Status, error) {
	fj, ok := f.jobs[job]
	if !ok {
		return engine.StatusFailed, engine.ErrJobState
	}
	if fj.status != engine.StatusInProgress {
		return fj.status, fj.err
	}
	for _, other := range f.jobs {
		if other.status == engine.StatusInProgress && other.rank < fj.rank {
			return engine.StatusInProgress, nil
		}
	}

	f.completed = append(f.completed, fj.index)
	if fj.index == f.failPoll {
		fj.status, fj.err = engine.StatusFailed, errForced
		return fj.status, fj.err
	}
	if err := f.process(job); err != nil {
		fj.status, fj.err = engine.StatusFailed, err
		return fj.status, fj.err
	}
	fj.status = engine.StatusOK
	return fj.status, nil
}

func (f *fakeEngine) Execute(job *engine.Job) error {
	if err := f.Submit(job); err != nil {
		return err
	}
	for {
		status, err := f.Poll(job)
		if status != engine.StatusInProgress {
			return err
		}
	}
}

func (f *fakeEngine) FiniJob(*engine.Job) error {
	i := f.finis
	f.finis++
	if i == f.failFini {
		return errForced
	}
	f.live--
	return nil
}

func (f *fakeEngine) process(job *engine.Job) error {
	var (
		n   int
		err error
	)
	switch job.Op {
	case engine.OpCompress:
		mode := codec.Fixed
		switch {
		case job.Table != nil:
			mode = codec.Canned
		case job.Flags&engine.FlagDynamic != 0:
			mode = codec.Dynamic
		}
		n, err = f.codec.Compress(job.Out, job.In, mode, job.Table)
	case engine.OpDecompress:
		n, err = f.codec.Decompress(job.Out, job.In, job.Table)
	default:
		err = engine.ErrUnknownOp
	}
	if err != nil {
		return err
	}
	job.TotalOut = n
	return nil
}
