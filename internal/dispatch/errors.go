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
)

var (
	// ErrInvalidArgument is returned for bad chunk counts, layouts or buffers.
	ErrInvalidArgument = errors.New("dispatch: invalid argument")

	// ErrEngineInit is returned when job sizing or initialization fails.
	ErrEngineInit = errors.New("dispatch: engine init failed")

	// ErrSubmission is returned when a job could not be enqueued.
	ErrSubmission = errors.New("dispatch: submission failed")

	// ErrCompletion is returned when a job reported failure while polled.
	ErrCompletion = errors.New("dispatch: completion failed")

	// ErrResource is returned when a job could not be finalized.
	ErrResource = errors.New("dispatch: resource release failed")
)

// errJobFailed stands in for engines that report a failed status without
// an error value.
var errJobFailed = errors.New("job reported failed status")

// Error is a dispatch failure. Kind is one of the package sentinels; Err is
// the underlying engine or codec error, if any. Chunk is -1 when the failure
// is not tied to one chunk.
type Error struct {
	Kind  error
	Op    string
	Chunk int
	Err   error
}

func newError(kind error, op string, chunk int, err error) *Error {
	return &Error{Kind: kind, Op: op, Chunk: chunk, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg += " (" + e.Op
		if e.Chunk >= 0 {
			msg += fmt.Sprintf(", chunk %d", e.Chunk)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
