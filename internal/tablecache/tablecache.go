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

// Package tablecache keeps static tables for reuse across benchmark cases.
// A Cache is owned by its caller; tables handed out are immutable and may
// be shared by any number of concurrent jobs.
package tablecache

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"accelbench/internal/codec"
)

// Key identifies the sample a table was built from.
type Key struct {
	Entropy    int
	SampleSize int
	Seed       uint64
}

func (k Key) String() string {
	return fmt.Sprintf("entropy=%d sample=%d seed=%d", k.Entropy, k.SampleSize, k.Seed)
}

// Stats holds cache counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Builds uint64
}

// Cache is an LRU of static tables.
type Cache struct {
	tables *lru.Cache[Key, *codec.Table]

	// buildMu serializes builds so one key is never built twice.
	buildMu sync.Mutex

	hits   atomic.Uint64
	misses atomic.Uint64
	builds atomic.Uint64
}

// New creates a cache holding at most size tables.
func New(size int) (*Cache, error) {
	tables, err := lru.New[Key, *codec.Table](size)
	if err != nil {
		return nil, fmt.Errorf("tablecache: %w", err)
	}
	return &Cache{tables: tables}, nil
}

// Get returns the table for key if present.
func (c *Cache) Get(key Key) (*codec.Table, bool) {
	t, ok := c.tables.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return t, ok
}

// Put stores a table.
func (c *Cache) Put(key Key, t *codec.Table) {
	c.tables.Add(key, t)
}

// GetOrBuild returns the cached table for key, or builds one from the
// sample returned by load and caches it.
func (c *Cache) GetOrBuild(key Key, load func() ([]byte, error)) (*codec.Table, error) {
	if t, ok := c.Get(key); ok {
		return t, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if t, ok := c.tables.Get(key); ok {
		return t, nil
	}

	sample, err := load()
	if err != nil {
		return nil, fmt.Errorf("tablecache: load sample for %s: %w", key, err)
	}
	t, err := codec.BuildTable(sample)
	if err != nil {
		return nil, fmt.Errorf("tablecache: build table for %s: %w", key, err)
	}
	c.builds.Add(1)
	c.tables.Add(key, t)
	return t, nil
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	return c.tables.Len()
}

// Purge drops every table.
func (c *Cache) Purge() {
	c.tables.Purge()
}

// Stats returns cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Builds: c.builds.Load(),
	}
}
