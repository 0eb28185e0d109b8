//go:build linux || darwin

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

import (
	"errors"
	"os"

	"github.com/tysonmote/gommap"
	"golang.org/x/sys/unix"
)

// mapAnonymous creates a private anonymous mapping.
func mapAnonymous(size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}

// mapFile maps a temporary file of size bytes. The file is removed when the
// mapping is released.
func mapFile(size int, dir string) ([]byte, func() error, error) {
	f, err := os.CreateTemp(dir, "accelbench-*.buf")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		return errors.Join(f.Close(), os.Remove(f.Name()))
	}

	if err := f.Truncate(int64(size)); err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}

	// MAP_SHARED: writes land in the file's page cache.
	mm, err := gommap.Map(f.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}

	release := func() error {
		return errors.Join(mm.UnsafeUnmap(), cleanup())
	}
	return mm, release, nil
}

// advise asks the kernel to read ahead the whole mapping.
func advise(data []byte) {
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
}
