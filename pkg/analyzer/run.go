// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/header"
	"github.com/NVIDIA/bootanalyze/pkg/report"
)

// Run performs the configured number of iterations and aggregates the
// accepted ones. Iterations that time out or cannot be correlated after
// all retries are counted as failed. Cancellation stops the loop; the
// report built from what was aggregated so far is returned with a
// CANCELED error.
func (a *Analyzer) Run(ctx context.Context) (*report.Report, error) {
	agg := report.NewAggregator()
	start := a.clock.Now()

	slog.Info("starting boot analysis",
		"run_id", a.runID,
		"serial", a.device.Serial(),
		"iterations", a.opts.Iterations,
		"reboot", a.opts.Reboot)

	var runErr error
	for i := 0; i < a.opts.Iterations; i++ {
		if ctx.Err() != nil {
			runErr = errors.Wrap(errors.ErrCodeCanceled, "run interrupted", ctx.Err())
			break
		}
		slog.Info("starting iteration", "run_id", a.runID, "iteration", i, "of", a.opts.Iterations)

		it, err := a.iterateWithRetries(ctx, i)
		if it != nil && it.Shutdown != nil {
			agg.AddShutdown(it.Shutdown.Events, it.Shutdown.Durations)
		}
		if err != nil {
			if ctx.Err() != nil || errors.HasCode(err, errors.ErrCodeCanceled) {
				runErr = errors.Wrap(errors.ErrCodeCanceled, "run interrupted", err)
				break
			}
			agg.Fail()
			iterationsTotal.WithLabelValues(resultFailed).Inc()
			slog.Error("failed to collect valid samples", "run_id", a.runID, "iteration", i, "error", err)
			continue
		}
		if it.TimedOut() {
			agg.Fail()
			iterationsTotal.WithLabelValues(resultTimedOut).Inc()
			slog.Error("failed to collect valid samples", "run_id", a.runID, "iteration", i, "reason", "timeout")
			continue
		}

		if a.opts.CarWatchdog {
			if path, werr := a.device.CarWatchdogStats(ctx, a.opts.OutputDir); werr != nil {
				slog.Warn("failed to capture car watchdog stats", "run_id", a.runID, "error", werr)
			} else {
				slog.Info("captured car watchdog stats", "path", path)
			}
		}

		agg.Add(it.Sample())
		iterationsTotal.WithLabelValues(resultAccepted).Inc()
		slog.Info("iteration complete",
			"run_id", a.runID,
			"iteration", i,
			"attempt", it.Attempt,
			"duration", it.Duration,
			"bugreports", len(it.Bugreports))
	}

	opts := []header.Option{
		header.WithMetadata(header.MetadataRunID, a.runID),
		header.WithMetadata(header.MetadataTimestamp, a.clock.Now().UTC().Format(time.RFC3339)),
	}
	if a.version != "" {
		opts = append(opts, header.WithMetadata(header.MetadataVersion, a.version))
	}
	if s := a.device.Serial(); s != "" {
		opts = append(opts, header.WithMetadata(header.MetadataSerial, s))
	}
	rep := agg.Build(a.opts.Iterations, a.opts.Timings, opts...)

	slog.Info("boot analysis finished",
		"run_id", a.runID,
		"accepted", rep.Summary.Accepted,
		"failed", rep.Summary.Failed,
		"duration", a.elapsed(start))
	return rep, runErr
}
