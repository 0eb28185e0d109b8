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
Package banner provides the startup banner and run summary for accelbench.

OVERVIEW:
=========
Displays an ASCII art banner with version information and the effective
configuration when a run starts, and a results table when it ends. Uses
ANSI escape codes for colors.

USAGE:
======

	banner.PrintTo(w)                  // Banner only
	banner.PrintRunWithConfigTo(w, cfg) // Banner with configuration
	banner.PrintSummaryTo(w, report)   // Results table

The banner text is embedded at compile time from banner.txt.
*/
package banner

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"accelbench/internal/bench"
	"accelbench/internal/config"
)

//go:embed banner.txt
var bannerText string

// ANSI escape codes for terminal text formatting.
const (
	AnsiRed    = "\033[31m"
	AnsiGreen  = "\033[32m"
	AnsiYellow = "\033[33m"
	AnsiCyan   = "\033[36m"
	AnsiReset  = "\033[0m"
	AnsiBold   = "\033[1m"
	AnsiDim    = "\033[2m"
)

// Version information
const (
	Version   = "0.4.0"
	Copyright = "Copyright (c) 2026 Firefly Software Solutions Inc."
	License   = "Licensed under Apache License 2.0"
)

const lineWidth = 78

// GetBanner returns the raw ASCII banner text.
func GetBanner() string {
	return bannerText
}

// GetBannerLines returns the banner as individual lines.
func GetBannerLines() []string {
	return strings.Split(strings.TrimRight(bannerText, "\n"), "\n")
}

// PrintTo writes the banner to the specified writer.
func PrintTo(w io.Writer) {
	printHeader(w)
	fmt.Fprintln(w, AnsiDim+"  "+Copyright+AnsiReset)
	fmt.Fprintln(w)
}

func printHeader(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, AnsiCyan+AnsiBold)
	for _, line := range GetBannerLines() {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w, AnsiReset)
	fmt.Fprintln(w, AnsiGreen+AnsiBold+"  accelbench"+AnsiReset+" "+AnsiDim+"v"+Version+AnsiReset)
	fmt.Fprintln(w, AnsiDim+"  Accelerated Compression Benchmarks"+AnsiReset)
	fmt.Fprintln(w)
}

// PrintRunWithConfigTo writes the banner followed by the run configuration.
func PrintRunWithConfigTo(w io.Writer, cfg *config.Config) {
	printHeader(w)

	fmt.Fprint(w, "  "+AnsiDim+"Config: "+AnsiReset)
	if cfg.ConfigFile != "" {
		fmt.Fprintln(w, AnsiYellow+cfg.ConfigFile+AnsiReset)
	} else {
		fmt.Fprintln(w, AnsiDim+"defaults + environment"+AnsiReset)
	}
	fmt.Fprintln(w)

	printSectionHeader(w, "Engine")
	printRow3(w,
		fmtKV("Codecs", strings.Join(cfg.Engine.Codecs, ",")),
		fmtKV("Backends", strings.Join(cfg.Engine.Backends, ",")),
		fmtKV("Lanes", fmt.Sprint(cfg.Engine.Lanes)))
	lock := fmtDisabled("off")
	if cfg.Engine.LockFile != "" {
		lock = cfg.Engine.LockFile
	}
	printRow3(w,
		fmtKV("Queue", fmt.Sprint(cfg.Engine.QueueDepth)),
		fmtKV("Jitter", fmt.Sprintf("%dus", cfg.Engine.JitterMicros)),
		fmtKV("Lock", lock))
	fmt.Fprintln(w)

	printSectionHeader(w, "Workload")
	sizes := make([]string, len(cfg.Workload.Sizes))
	for i, s := range cfg.Workload.Sizes {
		sizes[i] = formatBytes(int64(s))
	}
	printRow2(w,
		fmtKV("Sizes", strings.Join(sizes, ",")),
		fmtKV("Chunks", fmt.Sprint(cfg.Workload.ChunkCounts)))
	printRow3(w,
		fmtKV("Modes", strings.Join(cfg.Workload.Modes, ",")),
		fmtKV("Entropy", fmt.Sprint(cfg.Workload.Entropies)),
		fmtKV("Seed", fmt.Sprint(cfg.Workload.Seed)))
	printRow3(w,
		fmtKV("Iterations", fmt.Sprintf("%d+%d warmup", cfg.Workload.Iterations, cfg.Workload.Warmup)),
		fmtKV("Buffer", cfg.Workload.Buffer),
		fmtEnabled("prefault", cfg.Workload.Prefault)+" "+fmtEnabled("cross-backend", cfg.Engine.CrossBackend))
	fmt.Fprintln(w)

	printSectionHeader(w, "Output")
	report := fmtDisabled("none")
	if cfg.Report.Path != "" {
		report = AnsiGreen + cfg.Report.Path + AnsiReset + " (" + cfg.Report.Format + ")"
	}
	metrics := fmtDisabled("metrics off")
	if cfg.Metrics.Enabled {
		metrics = AnsiGreen + "http://" + cfg.Metrics.Addr + "/metrics" + AnsiReset
	}
	printRow3(w, fmtKV("Report", report), fmtKV("Metrics", metrics), fmtKV("Log", cfg.LogLevel))
	fmt.Fprintln(w)

	fmt.Fprintln(w, AnsiDim+"  "+Copyright+AnsiReset)
	fmt.Fprintln(w)
	printLogSeparator(w)
}

// PrintSummaryTo writes a results table for report.
func PrintSummaryTo(w io.Writer, report *bench.Report) {
	fmt.Fprintln(w)
	printSectionHeader(w, "Results")
	fmt.Fprintf(w, "  %s%-64s %8s %10s %9s %9s%s\n", AnsiDim,
		"case", "ratio", "MB/s", "p50 ms", "p99 ms", AnsiReset)
	for _, r := range report.Results {
		if r.Skipped {
			fmt.Fprintf(w, "  %-64s %s%s: %s%s\n", r.Name, AnsiRed, "SKIP", r.SkipReason, AnsiReset)
			continue
		}
		fmt.Fprintf(w, "  %-64s %8.2f %10.1f %9.3f %9.3f\n",
			r.Name, r.CompressionRatio, r.ThroughputMBs, r.LatencyP50Ms, r.LatencyP99Ms)
	}
	fmt.Fprintln(w)

	skipped := report.Skipped()
	status := AnsiGreen + "all verified" + AnsiReset
	if skipped > 0 {
		status = fmt.Sprintf("%s%d skipped%s", AnsiYellow, skipped, AnsiReset)
	}
	fmt.Fprintf(w, "  %s %d cases, %s, %.1fs %s(run %s)%s\n",
		AnsiBold+"Total:"+AnsiReset, len(report.Results), status, report.TotalTimeS,
		AnsiDim, report.RunID, AnsiReset)
	fmt.Fprintln(w)
}

func printLogSeparator(w io.Writer) {
	arrow := "v"
	text := " LOGS START HERE "
	padding := (lineWidth - len(text) - 4) / 2
	if padding < 0 {
		padding = 0
	}
	line := strings.Repeat("-", padding)
	fmt.Fprintf(w, "  %s%s %s%s%s %s%s\n",
		AnsiYellow, arrow+arrow+line,
		AnsiBold, text, AnsiReset+AnsiYellow,
		line+arrow+arrow, AnsiReset)
	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string) {
	titleLen := len(title) + 4 // "[ title ]"
	leftPad := 2
	rightPad := lineWidth - leftPad - titleLen
	if rightPad < 0 {
		rightPad = 0
	}
	fmt.Fprintf(w, "  %s[ %s%s%s ]%s%s\n",
		AnsiDim+strings.Repeat("-", leftPad),
		AnsiReset+AnsiCyan+AnsiBold, title, AnsiReset+AnsiDim,
		strings.Repeat("-", rightPad),
		AnsiReset)
}

func fmtKV(key, value string) string {
	return fmt.Sprintf("%s%s:%s %s", AnsiDim, key, AnsiReset, value)
}

func fmtEnabled(name string, enabled bool) string {
	if enabled {
		return AnsiGreen + name + AnsiReset
	}
	return AnsiDim + name + AnsiReset
}

func fmtDisabled(name string) string {
	return AnsiDim + name + AnsiReset
}

func printRow3(w io.Writer, col1, col2, col3 string) {
	fmt.Fprintf(w, "  %-32s %-26s %s\n", col1, col2, col3)
}

func printRow2(w io.Writer, col1, col2 string) {
	fmt.Fprintf(w, "  %-40s %s\n", col1, col2)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && bytes%(div*unit) == 0; n /= unit {
		div *= unit
		exp++
	}
	if bytes%div == 0 {
		return fmt.Sprintf("%d%c", bytes/div, "KMGT"[exp])
	}
	return fmt.Sprintf("%.1f%c", float64(bytes)/float64(div), "KMGT"[exp])
}
