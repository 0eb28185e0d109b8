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
	"fmt"

	"accelbench/internal/engine"
)

// Acquire allocates and initializes count jobs for backend. On failure the
// jobs initialized so far are finalized before the error is returned.
func Acquire(eng engine.Engine, backend engine.Backend, count int) ([]*engine.Job, error) {
	if count < 1 {
		return nil, newError(ErrInvalidArgument, "acquire", -1, fmt.Errorf("job count %d", count))
	}

	size, err := eng.JobSize(backend)
	if err != nil {
		return nil, newError(ErrEngineInit, "acquire", -1, err)
	}

	jobs := make([]*engine.Job, 0, count)
	for i := 0; i < count; i++ {
		job := engine.NewJob(size)
		if err := eng.InitJob(backend, job); err != nil {
			if rerr := Release(eng, jobs); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return nil, newError(ErrEngineInit, "acquire", i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Release finalizes every job. It keeps going after a failure and returns
// the first one.
func Release(eng engine.Engine, jobs []*engine.Job) error {
	var first error
	for i, job := range jobs {
		if err := eng.FiniJob(job); err != nil && first == nil {
			first = newError(ErrResource, "release", i, err)
		}
	}
	return first
}
