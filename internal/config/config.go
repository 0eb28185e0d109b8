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
Package config provides configuration management for accelbench.

CONFIGURATION SOURCES (in order of precedence):
===============================================
1. Environment variables (ACCELBENCH_* prefix)
2. .env file (loaded into the environment, never overriding it)
3. Configuration file (JSON format, path in ACCELBENCH_CONFIG)
4. Default values (lowest priority)

CONFIGURATION CATEGORIES:
=========================
- Engine: backends, codecs, lanes, queue depth, jitter, lock file
- Workload: sizes, chunk counts, entropies, modes, seed, iterations
- Buffers: backing (heap, anonymous, file), prefault
- Report: path, format (json, avro)
- Observability: metrics, log_level, log_json

EXAMPLE CONFIGURATION FILE:
===========================

	{
	  "engine": {"backends": ["hardware"], "codecs": ["deflate", "zstd"], "lanes": 8},
	  "workload": {
	    "sizes": [65536, 1048576],
	    "chunk_counts": [1, 4, 16],
	    "modes": ["fixed", "dynamic", "canned"]
	  },
	  "report": {"path": "results.avro", "format": "avro"}
	}

ENVIRONMENT VARIABLES:
======================
All settings can be configured via environment variables with the
ACCELBENCH_ prefix. Lists are comma separated and sizes take K, M or G
suffixes.
Example: ACCELBENCH_SIZES="64K,1M" ACCELBENCH_LOG_LEVEL="debug"
*/
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"accelbench/internal/codec"
	"accelbench/internal/engine"
	"accelbench/internal/membuf"
)

// Environment variable names
const (
	EnvConfig         = "ACCELBENCH_CONFIG"
	EnvLogLevel       = "ACCELBENCH_LOG_LEVEL"
	EnvLogJSON        = "ACCELBENCH_LOG_JSON"
	EnvBackends       = "ACCELBENCH_BACKENDS"
	EnvCodecs         = "ACCELBENCH_CODECS"
	EnvLanes          = "ACCELBENCH_LANES"
	EnvQueueDepth     = "ACCELBENCH_QUEUE_DEPTH"
	EnvJitterMicros   = "ACCELBENCH_JITTER_US"
	EnvLockFile       = "ACCELBENCH_LOCK_FILE"
	EnvSizes          = "ACCELBENCH_SIZES"
	EnvChunkCounts    = "ACCELBENCH_CHUNK_COUNTS"
	EnvEntropies      = "ACCELBENCH_ENTROPIES"
	EnvModes          = "ACCELBENCH_MODES"
	EnvSeed           = "ACCELBENCH_SEED"
	EnvIterations     = "ACCELBENCH_ITERATIONS"
	EnvWarmup         = "ACCELBENCH_WARMUP"
	EnvBuffer         = "ACCELBENCH_BUFFER"
	EnvBufferDir      = "ACCELBENCH_BUFFER_DIR"
	EnvPrefault       = "ACCELBENCH_PREFAULT"
	EnvTableCacheSize = "ACCELBENCH_TABLE_CACHE_SIZE"
	EnvCrossBackend   = "ACCELBENCH_CROSS_BACKEND"
	EnvSlowJobMicros  = "ACCELBENCH_SLOW_JOB_US"
	EnvReportPath     = "ACCELBENCH_REPORT_PATH"
	EnvReportFormat   = "ACCELBENCH_REPORT_FORMAT"
	EnvMetricsEnabled = "ACCELBENCH_METRICS_ENABLED"
	EnvMetricsAddr    = "ACCELBENCH_METRICS_ADDR"
)

// Report formats.
const (
	ReportJSON = "json"
	ReportAvro = "avro"
)

// EngineConfig holds codec engine configuration.
type EngineConfig struct {
	Backends     []string `json:"backends"`      // software, hardware
	Codecs       []string `json:"codecs"`        // deflate, zstd, lz4
	Lanes        int      `json:"lanes"`         // Hardware lanes per engine
	QueueDepth   int      `json:"queue_depth"`   // Shared lane queue capacity
	JitterMicros int      `json:"jitter_us"`     // Max random delay before a lane runs a job
	LockFile     string   `json:"lock_file"`     // Exclusive device lock, empty to disable
	SlowJobUs    int      `json:"slow_job_us"`   // Log jobs slower than this at WARN
	CrossBackend bool     `json:"cross_backend"` // Also decompress on the other backend
}

// WorkloadConfig holds benchmark workload configuration.
type WorkloadConfig struct {
	Sizes          []int    `json:"sizes"`            // Source sizes in bytes
	ChunkCounts    []int    `json:"chunk_counts"`     // Parallel chunk counts
	Entropies      []int    `json:"entropies"`        // Synthetic data entropy knobs
	Modes          []string `json:"modes"`            // fixed, dynamic, canned
	Seed           uint64   `json:"seed"`             // Data generation seed
	Iterations     int      `json:"iterations"`       // Timed iterations per case
	Warmup         int      `json:"warmup"`           // Untimed iterations per case
	Buffer         string   `json:"buffer"`           // heap, anonymous, file
	BufferDir      string   `json:"buffer_dir"`       // Directory for file-backed buffers
	Prefault       bool     `json:"prefault"`         // Touch output pages before timing
	TableCacheSize int      `json:"table_cache_size"` // Static tables kept across cases
}

// ReportConfig holds result report configuration.
type ReportConfig struct {
	Path   string `json:"path"`   // Empty writes to stdout
	Format string `json:"format"` // json or avro
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"` // Enable Prometheus metrics
	Addr    string `json:"addr"`    // Metrics HTTP server address
}

// Config holds all accelbench configuration.
type Config struct {
	Engine   EngineConfig   `json:"engine"`
	Workload WorkloadConfig `json:"workload"`
	Report   ReportConfig   `json:"report"`
	Metrics  MetricsConfig  `json:"metrics"`

	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`

	// ConfigFile is the file the config was loaded from, if any.
	ConfigFile string `json:"-"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	lanes := runtime.NumCPU()
	if lanes > 8 {
		lanes = 8
	}
	return &Config{
		Engine: EngineConfig{
			Backends:   []string{"software", "hardware"},
			Codecs:     []string{"deflate"},
			Lanes:      lanes,
			QueueDepth: 128,
		},
		Workload: WorkloadConfig{
			Sizes:          []int{64 * 1024, 1024 * 1024},
			ChunkCounts:    []int{1, 4, 16},
			Entropies:      []int{4, 8},
			Modes:          []string{"fixed", "dynamic", "canned"},
			Seed:           1,
			Iterations:     20,
			Warmup:         2,
			Buffer:         "heap",
			Prefault:       true,
			TableCacheSize: 16,
		},
		Report: ReportConfig{
			Format: ReportJSON,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9095",
		},
		LogLevel: "info",
	}
}

// Manager manages configuration.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

var globalManager = &Manager{
	config: DefaultConfig(),
}

// Global returns the global manager.
func Global() *Manager {
	return globalManager
}

// Get returns a copy of current config.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	return &cfg
}

// Set updates the config.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// LoadFromFile loads configuration from a JSON file over the defaults.
func (m *Manager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ConfigFile = path
	m.Set(cfg)
	return nil
}

// LoadDotEnv loads a .env file into the process environment. Variables
// already set are kept. A missing file is not an error.
func (m *Manager) LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables. Values that
// do not parse are ignored.
func (m *Manager) LoadFromEnv() {
	cfg := m.Get()

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = parseBool(v)
	}

	// Engine environment variables
	if v := os.Getenv(EnvBackends); v != "" {
		cfg.Engine.Backends = splitList(v)
	}
	if v := os.Getenv(EnvCodecs); v != "" {
		cfg.Engine.Codecs = splitList(v)
	}
	if v := os.Getenv(EnvLanes); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Lanes = i
		}
	}
	if v := os.Getenv(EnvQueueDepth); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.QueueDepth = i
		}
	}
	if v := os.Getenv(EnvJitterMicros); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.JitterMicros = i
		}
	}
	if v, ok := os.LookupEnv(EnvLockFile); ok {
		// Allow explicitly setting to empty to disable locking
		cfg.Engine.LockFile = v
	}
	if v := os.Getenv(EnvSlowJobMicros); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.SlowJobUs = i
		}
	}
	if v := os.Getenv(EnvCrossBackend); v != "" {
		cfg.Engine.CrossBackend = parseBool(v)
	}

	// Workload environment variables
	if v := os.Getenv(EnvSizes); v != "" {
		if sizes, err := parseSizes(v); err == nil {
			cfg.Workload.Sizes = sizes
		}
	}
	if v := os.Getenv(EnvChunkCounts); v != "" {
		if counts, err := parseInts(v); err == nil {
			cfg.Workload.ChunkCounts = counts
		}
	}
	if v := os.Getenv(EnvEntropies); v != "" {
		if entropies, err := parseInts(v); err == nil {
			cfg.Workload.Entropies = entropies
		}
	}
	if v := os.Getenv(EnvModes); v != "" {
		cfg.Workload.Modes = splitList(v)
	}
	if v := os.Getenv(EnvSeed); v != "" {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Workload.Seed = i
		}
	}
	if v := os.Getenv(EnvIterations); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Workload.Iterations = i
		}
	}
	if v := os.Getenv(EnvWarmup); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Workload.Warmup = i
		}
	}
	if v := os.Getenv(EnvBuffer); v != "" {
		cfg.Workload.Buffer = v
	}
	if v := os.Getenv(EnvBufferDir); v != "" {
		cfg.Workload.BufferDir = v
	}
	if v := os.Getenv(EnvPrefault); v != "" {
		cfg.Workload.Prefault = parseBool(v)
	}
	if v := os.Getenv(EnvTableCacheSize); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Workload.TableCacheSize = i
		}
	}

	// Report environment variables
	if v := os.Getenv(EnvReportPath); v != "" {
		cfg.Report.Path = v
	}
	if v := os.Getenv(EnvReportFormat); v != "" {
		cfg.Report.Format = strings.ToLower(v)
	}

	// Metrics environment variables
	if v := os.Getenv(EnvMetricsEnabled); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.Metrics.Addr = v
	}

	m.Set(cfg)
}

// Load builds the global configuration: the .env file at dotenvPath, then
// the JSON file named by ACCELBENCH_CONFIG, then ACCELBENCH_* variables.
// The result is validated.
func Load(dotenvPath string) (*Config, error) {
	m := Global()
	if dotenvPath != "" {
		if err := m.LoadDotEnv(dotenvPath); err != nil {
			return nil, err
		}
	}
	if path := os.Getenv(EnvConfig); path != "" {
		if err := m.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	m.LoadFromEnv()

	cfg := m.Get()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration validity and returns the first problem.
func (c *Config) Validate() error {
	// Engine validation
	if len(c.Engine.Backends) == 0 {
		return fmt.Errorf("engine.backends must not be empty")
	}
	for _, b := range c.Engine.Backends {
		if _, err := engine.ParseBackend(b); err != nil {
			return fmt.Errorf("engine.backends: %w", err)
		}
	}
	if len(c.Engine.Codecs) == 0 {
		return fmt.Errorf("engine.codecs must not be empty")
	}
	for _, name := range c.Engine.Codecs {
		if _, err := codec.ParseType(name); err != nil {
			return fmt.Errorf("engine.codecs: %w", err)
		}
	}
	if c.Engine.Lanes < 0 {
		return fmt.Errorf("engine.lanes must be non-negative")
	}
	if c.Engine.Lanes == 0 && c.UsesBackend("hardware") {
		return fmt.Errorf("engine.lanes must be positive when the hardware backend is used")
	}
	if c.Engine.QueueDepth <= 0 {
		return fmt.Errorf("engine.queue_depth must be positive")
	}
	if c.Engine.JitterMicros < 0 || c.Engine.SlowJobUs < 0 {
		return fmt.Errorf("engine.jitter_us and engine.slow_job_us must be non-negative")
	}

	// Workload validation
	if len(c.Workload.Sizes) == 0 {
		return fmt.Errorf("workload.sizes must not be empty")
	}
	for _, s := range c.Workload.Sizes {
		if s <= 0 {
			return fmt.Errorf("workload.sizes must be positive, got %d", s)
		}
	}
	if len(c.Workload.ChunkCounts) == 0 {
		return fmt.Errorf("workload.chunk_counts must not be empty")
	}
	for _, n := range c.Workload.ChunkCounts {
		if n < 1 {
			return fmt.Errorf("workload.chunk_counts must be at least 1, got %d", n)
		}
		// Every chunk of a hardware call is queued at once.
		if n > c.Engine.QueueDepth && c.UsesBackend("hardware") {
			return fmt.Errorf("workload.chunk_counts: %d exceeds engine.queue_depth %d on the hardware backend", n, c.Engine.QueueDepth)
		}
	}
	if len(c.Workload.Entropies) == 0 {
		return fmt.Errorf("workload.entropies must not be empty")
	}
	for _, e := range c.Workload.Entropies {
		if e < 0 || e > 31 {
			return fmt.Errorf("workload.entropies must be between 0 and 31, got %d", e)
		}
	}
	if len(c.Workload.Modes) == 0 {
		return fmt.Errorf("workload.modes must not be empty")
	}
	for _, name := range c.Workload.Modes {
		if _, err := codec.ParseMode(name); err != nil {
			return fmt.Errorf("workload.modes: %w", err)
		}
	}
	if c.Workload.Iterations < 1 {
		return fmt.Errorf("workload.iterations must be at least 1")
	}
	if c.Workload.Warmup < 0 {
		return fmt.Errorf("workload.warmup must be non-negative")
	}
	if _, err := membuf.ParseBacking(c.Workload.Buffer); err != nil {
		return fmt.Errorf("workload.buffer: %w", err)
	}
	if c.Workload.TableCacheSize < 1 {
		return fmt.Errorf("workload.table_cache_size must be at least 1")
	}

	// Report validation
	if c.Report.Format != ReportJSON && c.Report.Format != ReportAvro {
		return fmt.Errorf("report.format must be 'json' or 'avro'")
	}

	// Metrics validation
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

// UsesBackend reports whether the named backend is configured.
func (c *Config) UsesBackend(name string) bool {
	want, err := engine.ParseBackend(name)
	if err != nil {
		return false
	}
	for _, b := range c.Engine.Backends {
		if got, err := engine.ParseBackend(b); err == nil && got == want {
			return true
		}
	}
	return false
}

func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(v string) ([]int, error) {
	var out []int
	for _, p := range splitList(v) {
		i, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// parseSizes parses a list of byte sizes with optional K, M or G suffixes.
func parseSizes(v string) ([]int, error) {
	var out []int
	for _, p := range splitList(v) {
		s, err := ParseSize(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseSize parses a byte size such as "4096", "64K" or "1M".
func ParseSize(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "B")
	mult := 1
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1<<10, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1<<20, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1<<30, strings.TrimSuffix(s, "G")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
