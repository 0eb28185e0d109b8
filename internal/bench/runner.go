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
Package bench runs the accelbench benchmark matrix.

OVERVIEW:
=========
A run walks every configured codec. For each codec it opens one engine and
runs the codec's cases in order:

  - blocking compress and decompress: one synchronous job over the buffer
  - parallel compress and decompress: one job per chunk through the
    dispatcher
  - cross-backend decompress: compress on one backend, decompress on another

TIMING:
=======
Each case runs its warmup iterations, then its timed iterations. Only the
timed operation is measured: decompress cases compress once beforehand.
Destination buffers are prefaulted before timing starts.

VERIFICATION:
=============
After the timed iterations every case decompresses its output and compares
it with the source. A case that fails to compress, decompress or verify is
recorded as skipped with the reason and error; its Status stays -1.
*/
package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accelbench/internal/codec"
	"accelbench/internal/config"
	"accelbench/internal/datagen"
	"accelbench/internal/dispatch"
	"accelbench/internal/engine"
	"accelbench/internal/logging"
	"accelbench/internal/membuf"
	"accelbench/internal/metrics"
	"accelbench/internal/tablecache"
	"accelbench/internal/verify"
)

type sourceKey struct {
	size    int
	entropy int
}

// Runner runs benchmark cases.
type Runner struct {
	config  *config.Config
	matrix  *Matrix
	backing membuf.Backing
	tables  *tablecache.Cache
	metrics *metrics.Metrics
	sources map[sourceKey]*membuf.Buffer

	logger     *logging.Logger
	caseLogger *logging.CaseLogger

	// OnResult is called after every case when set.
	OnResult func(Result)
}

// NewRunner creates a runner for cfg. Counters go to m, or to the global
// metrics when m is nil.
func NewRunner(cfg *config.Config, m *metrics.Metrics) (*Runner, error) {
	matrix, err := NewMatrix(cfg)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	backing, err := membuf.ParseBacking(cfg.Workload.Buffer)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	tables, err := tablecache.New(cfg.Workload.TableCacheSize)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	if m == nil {
		m = metrics.Get()
	}

	logger := logging.NewLogger("bench")
	return &Runner{
		config:     cfg,
		matrix:     matrix,
		backing:    backing,
		tables:     tables,
		metrics:    m,
		sources:    make(map[sourceKey]*membuf.Buffer),
		logger:     logger,
		caseLogger: logging.NewCaseLogger(logger),
	}, nil
}

// Matrix returns the parsed case dimensions.
func (r *Runner) Matrix() *Matrix { return r.matrix }

// Tables returns the static table cache.
func (r *Runner) Tables() *tablecache.Cache { return r.tables }

// Run runs every case of every configured codec and returns the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := NewReport(r.config.Workload.Iterations, r.config.Workload.Warmup)
	r.logger.Info("Run started", "run_id", report.RunID, "matrix", r.matrix.String())

	defer r.closeSources()

	results := NewResultSet()
	for _, typ := range r.matrix.Codecs {
		if err := r.RunCodec(ctx, typ, results); err != nil {
			return nil, err
		}
	}

	report.Results = results.Results()
	report.TotalTimeS = time.Since(start).Seconds()

	stats := r.tables.Stats()
	r.logger.Info("Run finished",
		"run_id", report.RunID,
		"cases", len(report.Results),
		"skipped", report.Skipped(),
		"table_builds", stats.Builds,
		"table_hits", stats.Hits,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// EngineConfig returns the engine configuration for codec typ.
func (r *Runner) EngineConfig(typ codec.Type) engine.Config {
	cfg := engine.Config{
		Codec:      typ,
		Lanes:      r.config.Engine.Lanes,
		QueueDepth: r.config.Engine.QueueDepth,
		Jitter:     time.Duration(r.config.Engine.JitterMicros) * time.Microsecond,
		LockPath:   r.config.Engine.LockFile,
	}
	if !r.config.UsesBackend("hardware") {
		cfg.Lanes = 0
	}
	return cfg
}

// RunCodec opens an engine for typ, runs its cases and adds the results to
// results. It only fails when the engine cannot be opened or ctx is done.
func (r *Runner) RunCodec(ctx context.Context, typ codec.Type, results *ResultSet) error {
	eng, err := engine.Open(r.EngineConfig(typ))
	if err != nil {
		return fmt.Errorf("bench: open %s engine: %w", typ, err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			r.logger.Warn("Failed to close engine", "codec", typ, "error", err)
		}
	}()

	cases := r.matrix.Cases(typ)
	if len(cases) == 0 {
		r.logger.Warn("No supported modes for codec", "codec", typ)
	}
	for _, c := range cases {
		res, err := r.RunCase(ctx, eng, c)
		if err != nil {
			return err
		}
		results.Add(res)
		if r.OnResult != nil {
			r.OnResult(*res)
		}
	}

	stats := eng.Stats()
	r.logger.Debug("Engine finished",
		"codec", typ,
		"jobs_submitted", stats.JobsSubmitted,
		"jobs_failed", stats.JobsFailed,
		"queue_rejects", stats.QueueRejects,
	)
	return nil
}

// RunCase runs one case on eng. Case failures are reported in the result;
// the error is only set when ctx is done.
func (r *Runner) RunCase(ctx context.Context, eng engine.Engine, c Case) (*Result, error) {
	res := newResult(c)
	iterations := r.config.Workload.Iterations
	warmup := r.config.Workload.Warmup
	r.caseLogger.LogCaseStarted(res.Name, c.Size, iterations)

	skip := func(reason string, err error) (*Result, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		res.skip(reason, err)
		r.metrics.RecordCaseSkipped(res.Name)
		r.caseLogger.LogCaseSkipped(res.Name, reason, err)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := r.source(ctx, c.Size, c.Entropy)
	if err != nil {
		return skip(ReasonSetup, err)
	}
	var layout []dispatch.Chunk
	if c.Strategy == Parallel {
		if layout, err = dispatch.Plan(c.Size, c.Chunks); err != nil {
			return skip(ReasonSetup, err)
		}
	}
	table, err := r.table(c, src)
	if err != nil {
		return skip(ReasonCompress, err)
	}

	dst, err := membuf.Alloc(r.backing, c.Size, r.config.Workload.BufferDir)
	if err != nil {
		return skip(ReasonSetup, err)
	}
	defer dst.Close()
	if r.config.Workload.Prefault {
		if err := dst.Prefault(); err != nil {
			return skip(ReasonSetup, err)
		}
	}

	compress := func() (*dispatch.Format, error) {
		if c.Strategy == Blocking {
			return dispatch.CompressBlocking(eng, c.Backend, c.Mode, src, table)
		}
		return r.dispatcher(eng, c.Backend).Compress(c.Mode, src, layout, table)
	}
	decompress := func(format *dispatch.Format) (int, error) {
		if c.Strategy == Blocking {
			return dispatch.DecompressBlocking(eng, c.DecodeBackend, format.Chunks[0].Data, format.Table, dst.Bytes())
		}
		return r.dispatcher(eng, c.DecodeBackend).Decompress(format, dst.Bytes())
	}

	var (
		format    *dispatch.Format
		n         int
		latencies = make([]time.Duration, 0, iterations)
	)
	if c.Op == engine.OpDecompress {
		if format, err = compress(); err != nil {
			return skip(ReasonCompress, err)
		}
	}
	for i := 0; i < warmup+iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		if c.Op == engine.OpCompress {
			format, err = compress()
		} else {
			n, err = decompress(format)
		}
		elapsed := time.Since(start)
		if err != nil {
			if c.Op == engine.OpCompress {
				return skip(ReasonCompress, err)
			}
			return skip(ReasonDecompress, err)
		}

		if i >= warmup {
			latencies = append(latencies, elapsed)
			r.metrics.RecordIteration(res.Name, c.Size, elapsed)
		}
	}

	res.CompressionRatio = format.Ratio()
	res.FileSize = format.CompressedSize()
	res.setTimings(c.Size, latencies)

	if c.Op == engine.OpCompress {
		if n, err = decompress(format); err != nil {
			return skip(ReasonDecompress, err)
		}
	}
	if err := verify.Format(src, format, dst.Bytes(), n); err != nil {
		return skip(ReasonMismatch, err)
	}
	res.Status = StatusVerified

	r.metrics.RecordCaseFinished(res.Name, res.CompressionRatio)
	r.caseLogger.LogCaseFinished(res.Name, res.CompressionRatio, res.ThroughputMBs,
		time.Duration(res.CompressionTimeNs))
	return res, nil
}

func (r *Runner) dispatcher(eng engine.Engine, backend engine.Backend) *dispatch.Dispatcher {
	d := dispatch.New(eng, backend)
	d.Metrics = r.metrics
	d.SlowJobThreshold = time.Duration(r.config.Engine.SlowJobUs) * time.Microsecond
	return d
}

// source returns the generated source buffer for size and entropy,
// generating it on first use.
func (r *Runner) source(ctx context.Context, size, entropy int) ([]byte, error) {
	key := sourceKey{size: size, entropy: entropy}
	if buf, ok := r.sources[key]; ok {
		return buf.Bytes(), nil
	}

	buf, err := membuf.Alloc(r.backing, size, r.config.Workload.BufferDir)
	if err != nil {
		return nil, err
	}
	if err := datagen.Fill(ctx, buf.Bytes(), entropy, r.config.Workload.Seed); err != nil {
		return nil, errors.Join(err, buf.Close())
	}
	r.sources[key] = buf
	return buf.Bytes(), nil
}

// table returns the static table for canned cases, built from the case's
// source and shared by every case with the same workload.
func (r *Runner) table(c Case, src []byte) (*codec.Table, error) {
	if c.Mode != codec.Canned {
		return nil, nil
	}
	key := tablecache.Key{Entropy: c.Entropy, SampleSize: c.Size, Seed: r.config.Workload.Seed}
	return r.tables.GetOrBuild(key, func() ([]byte, error) { return src, nil })
}

func (r *Runner) closeSources() {
	for key, buf := range r.sources {
		if err := buf.Close(); err != nil {
			r.logger.Warn("Failed to release source buffer", "size", key.size, "error", err)
		}
		delete(r.sources, key)
	}
}
