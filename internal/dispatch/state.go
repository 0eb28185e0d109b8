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

import "fmt"

// JobState tracks one job through a dispatch call.
type JobState uint8

const (
	StateConfigured JobState = iota
	StateSubmitted
	StatePending
	StateCompleted
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateSubmitted:
		return "submitted"
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// InFlight reports whether the engine may still be working on the job.
func (s JobState) InFlight() bool {
	return s == StateSubmitted || s == StatePending
}

// advance moves s to next if the transition is legal.
func (s *JobState) advance(next JobState) error {
	ok := false
	switch *s {
	case StateConfigured:
		ok = next == StateSubmitted || next == StateFailed
	case StateSubmitted, StatePending:
		ok = next == StatePending || next.Terminal()
	}
	if !ok {
		return fmt.Errorf("illegal job transition %s -> %s", *s, next)
	}
	*s = next
	return nil
}
