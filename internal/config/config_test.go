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

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel info, got %s", cfg.LogLevel)
	}
	if cfg.Report.Format != ReportJSON {
		t.Errorf("Expected report format json, got %s", cfg.Report.Format)
	}
	if cfg.Engine.QueueDepth != 128 {
		t.Errorf("Expected QueueDepth 128, got %d", cfg.Engine.QueueDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Engine.Backends = []string{"fpga"} },
			wantErr: true,
		},
		{
			name:    "unknown codec",
			modify:  func(c *Config) { c.Engine.Codecs = []string{"brotli"} },
			wantErr: true,
		},
		{
			name: "hardware without lanes",
			modify: func(c *Config) {
				c.Engine.Backends = []string{"hw"}
				c.Engine.Lanes = 0
			},
			wantErr: true,
		},
		{
			name: "software without lanes",
			modify: func(c *Config) {
				c.Engine.Backends = []string{"software"}
				c.Engine.Lanes = 0
			},
			wantErr: false,
		},
		{
			name:    "zero queue depth",
			modify:  func(c *Config) { c.Engine.QueueDepth = 0 },
			wantErr: true,
		},
		{
			name:    "empty sizes",
			modify:  func(c *Config) { c.Workload.Sizes = nil },
			wantErr: true,
		},
		{
			name:    "zero chunk count",
			modify:  func(c *Config) { c.Workload.ChunkCounts = []int{0} },
			wantErr: true,
		},
		{
			name: "chunk count above hardware queue depth",
			modify: func(c *Config) {
				c.Engine.QueueDepth = 128
				c.Workload.ChunkCounts = []int{4, 256}
			},
			wantErr: true,
		},
		{
			name: "chunk count equal to hardware queue depth",
			modify: func(c *Config) {
				c.Engine.QueueDepth = 128
				c.Workload.ChunkCounts = []int{128}
			},
			wantErr: false,
		},
		{
			name: "chunk count above queue depth on software only",
			modify: func(c *Config) {
				c.Engine.Backends = []string{"software"}
				c.Engine.QueueDepth = 128
				c.Workload.ChunkCounts = []int{256}
			},
			wantErr: false,
		},
		{
			name:    "entropy out of range",
			modify:  func(c *Config) { c.Workload.Entropies = []int{40} },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			modify:  func(c *Config) { c.Workload.Modes = []string{"adaptive"} },
			wantErr: true,
		},
		{
			name:    "zero iterations",
			modify:  func(c *Config) { c.Workload.Iterations = 0 },
			wantErr: true,
		},
		{
			name:    "unknown buffer backing",
			modify:  func(c *Config) { c.Workload.Buffer = "hugepage" },
			wantErr: true,
		},
		{
			name:    "invalid report format",
			modify:  func(c *Config) { c.Report.Format = "csv" },
			wantErr: true,
		},
		{
			name: "metrics without addr",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.json")

	configJSON := `{
		"engine": {"codecs": ["zstd", "lz4"], "lanes": 2},
		"workload": {"sizes": [4096], "iterations": 3},
		"log_level": "debug"
	}`

	if err := os.WriteFile(configFile, []byte(configJSON), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	mgr := &Manager{config: DefaultConfig()}
	if err := mgr.LoadFromFile(configFile); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := mgr.Get()
	if !reflect.DeepEqual(cfg.Engine.Codecs, []string{"zstd", "lz4"}) {
		t.Errorf("Expected codecs [zstd lz4], got %v", cfg.Engine.Codecs)
	}
	if cfg.Engine.Lanes != 2 || cfg.Workload.Iterations != 3 {
		t.Errorf("Expected lanes 2 and iterations 3, got %d/%d", cfg.Engine.Lanes, cfg.Workload.Iterations)
	}
	if cfg.Engine.QueueDepth != 128 {
		t.Errorf("Expected unset fields to keep defaults, got QueueDepth %d", cfg.Engine.QueueDepth)
	}
	if cfg.ConfigFile != configFile {
		t.Errorf("Expected ConfigFile %s, got %s", configFile, cfg.ConfigFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	mgr := &Manager{config: DefaultConfig()}
	if err := mgr.LoadFromFile(path); err == nil {
		t.Error("Expected parse error")
	}
	if err := mgr.LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvSizes, "4K, 1M")
	t.Setenv(EnvChunkCounts, "2,8")
	t.Setenv(EnvBackends, "hardware")
	t.Setenv(EnvPrefault, "false")
	t.Setenv(EnvLanes, "not-a-number")
	t.Setenv(EnvReportFormat, "AVRO")

	mgr := &Manager{config: DefaultConfig()}
	mgr.LoadFromEnv()

	cfg := mgr.Get()
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel warn, got %s", cfg.LogLevel)
	}
	if !reflect.DeepEqual(cfg.Workload.Sizes, []int{4096, 1 << 20}) {
		t.Errorf("Expected sizes [4096 1048576], got %v", cfg.Workload.Sizes)
	}
	if !reflect.DeepEqual(cfg.Workload.ChunkCounts, []int{2, 8}) {
		t.Errorf("Expected chunk counts [2 8], got %v", cfg.Workload.ChunkCounts)
	}
	if !reflect.DeepEqual(cfg.Engine.Backends, []string{"hardware"}) {
		t.Errorf("Expected backends [hardware], got %v", cfg.Engine.Backends)
	}
	if cfg.Workload.Prefault {
		t.Error("Expected prefault disabled")
	}
	if cfg.Engine.Lanes != DefaultConfig().Engine.Lanes {
		t.Errorf("Expected unparsable lanes to be ignored, got %d", cfg.Engine.Lanes)
	}
	if cfg.Report.Format != ReportAvro {
		t.Errorf("Expected report format avro, got %s", cfg.Report.Format)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "ACCELBENCH_ITERATIONS=7\nACCELBENCH_SEED=99\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	// Set explicitly so the process environment wins over the file and
	// t.Setenv restores both afterwards.
	t.Setenv(EnvIterations, "5")
	t.Setenv(EnvSeed, "")
	os.Unsetenv(EnvSeed)

	mgr := &Manager{config: DefaultConfig()}
	if err := mgr.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	mgr.LoadFromEnv()

	cfg := mgr.Get()
	if cfg.Workload.Iterations != 5 {
		t.Errorf("Expected environment to win over .env, got iterations %d", cfg.Workload.Iterations)
	}
	if cfg.Workload.Seed != 99 {
		t.Errorf("Expected seed 99 from .env, got %d", cfg.Workload.Seed)
	}

	if err := mgr.LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Expected missing .env to be ignored, got %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"4096", 4096, false},
		{"64K", 64 * 1024, false},
		{"64kb", 64 * 1024, false},
		{"2M", 2 << 20, false},
		{"1G", 1 << 30, false},
		{"huge", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.input)
		if (err != nil) != tt.wantErr || got != tt.expected {
			t.Errorf("ParseSize(%q) = %d, %v, want %d", tt.input, got, err, tt.expected)
		}
	}
}

func TestUsesBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Backends = []string{"sw"}

	if !cfg.UsesBackend("software") {
		t.Error("Expected software backend to be used")
	}
	if cfg.UsesBackend("hardware") {
		t.Error("Expected hardware backend not to be used")
	}
}

func TestManagerGetSet(t *testing.T) {
	mgr := &Manager{config: DefaultConfig()}

	cfg := mgr.Get()
	cfg.LogLevel = "error"
	mgr.Set(cfg)

	if mgr.Get().LogLevel != "error" {
		t.Errorf("Expected LogLevel error, got %s", mgr.Get().LogLevel)
	}
}

func TestGlobalManager(t *testing.T) {
	if Global() == nil {
		t.Fatal("Expected non-nil global manager")
	}
}
