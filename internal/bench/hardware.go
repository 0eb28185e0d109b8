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

package bench

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// HardwareInfo describes the machine a run was taken on.
type HardwareInfo struct {
	CPUModel   string  `json:"cpu_model" avro:"cpu_model"`
	CPUThreads int     `json:"cpu_threads" avro:"cpu_threads"`
	MemoryGB   float64 `json:"memory_gb" avro:"memory_gb"`
	OS         string  `json:"os" avro:"os"`
	OSVersion  string  `json:"os_version" avro:"os_version"`
	Arch       string  `json:"arch" avro:"arch"`
	GoVersion  string  `json:"go_version" avro:"go_version"`
	GoMaxProcs int     `json:"gomaxprocs" avro:"gomaxprocs"`
	Hostname   string  `json:"hostname" avro:"hostname"`
}

// DetectHardware collects system hardware information. Fields that cannot
// be read are left as "Unknown" or zero.
func DetectHardware() HardwareInfo {
	hw := HardwareInfo{
		CPUModel:   "Unknown",
		CPUThreads: runtime.NumCPU(),
		OS:         runtime.GOOS,
		OSVersion:  "Unknown",
		Arch:       runtime.GOARCH,
		GoVersion:  runtime.Version(),
		GoMaxProcs: runtime.GOMAXPROCS(0),
	}
	if hostname, err := os.Hostname(); err == nil {
		hw.Hostname = hostname
	}

	switch runtime.GOOS {
	case "linux":
		if v := procField("/proc/cpuinfo", "model name"); v != "" {
			hw.CPUModel = v
		}
		hw.MemoryGB = linuxMemoryGB()
		hw.OSVersion = linuxOSVersion()
	case "darwin":
		if v := sysctl("machdep.cpu.brand_string"); v != "" {
			hw.CPUModel = v
		} else if v := sysctl("hw.model"); v != "" {
			hw.CPUModel = v
		}
		if v, err := strconv.ParseInt(sysctl("hw.memsize"), 10, 64); err == nil {
			hw.MemoryGB = float64(v) / (1 << 30)
		}
		if out, err := exec.Command("sw_vers", "-productVersion").Output(); err == nil {
			hw.OSVersion = "macOS " + strings.TrimSpace(string(out))
		}
	}
	return hw
}

// procField returns the value of the first "key: value" line of path whose
// key matches.
func procField(path, key string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(k) == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func linuxMemoryGB() float64 {
	// "MemTotal:       16318412 kB"
	fields := strings.Fields(procField("/proc/meminfo", "MemTotal"))
	if len(fields) == 0 {
		return 0
	}
	kb, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return float64(kb) / (1 << 20)
}

func linuxOSVersion() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "Linux"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(v, "\"")
		}
	}
	return "Linux"
}

func sysctl(name string) string {
	out, err := exec.Command("sysctl", "-n", name).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
