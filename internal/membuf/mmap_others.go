//go:build !linux && !darwin

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

package membuf

// mapAnonymous is not available on this platform.
func mapAnonymous(size int) ([]byte, func() error, error) {
	return nil, nil, ErrUnsupported
}

// mapFile is not available on this platform.
func mapFile(size int, dir string) ([]byte, func() error, error) {
	return nil, nil, ErrUnsupported
}

func advise(data []byte) {}
