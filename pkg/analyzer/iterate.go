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
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/monitor"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/reconcile"
	"github.com/NVIDIA/bootanalyze/pkg/report"
	"github.com/NVIDIA/bootanalyze/pkg/shutdown"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
	"github.com/NVIDIA/bootanalyze/pkg/timeline"
)

// Iteration is one measured boot.
type Iteration struct {
	Index   int
	Attempt int

	// Shutdown is set when the iteration rebooted the device.
	Shutdown *shutdown.Result

	Kernel *tailer.Result
	User   *tailer.Result
	// Attached is set once both log processes were started.
	Attached bool

	BootTimes       *event.Values
	Reconciled      *reconcile.Result
	Timeline        *timeline.Timeline
	UserDurations   pattern.Durations
	KernelDurations pattern.Durations

	Requests   []monitor.Request
	Bugreports []string

	Duration time.Duration
}

// TimedOut reports whether either tailer gave up with stop events pending.
func (it *Iteration) TimedOut() bool {
	return (it.Kernel != nil && !it.Kernel.Complete()) || (it.User != nil && !it.User.Complete())
}

// Sample is the iteration's contribution to the report.
func (it *Iteration) Sample() report.Sample {
	return report.Sample{
		Timeline:        it.Timeline.Values(),
		BootTimes:       it.BootTimes,
		UserDurations:   it.UserDurations.Timings,
		KernelDurations: it.KernelDurations.Timings,
	}
}

// Iterate measures one boot: optional reboot with shutdown capture, both
// tails, properties, reconciliation, duration reduction, timeline assembly,
// threshold checks and bug report capture.
//
// The returned Iteration is non-nil whenever anything was collected, also
// alongside an error. A timed-out iteration is returned without error and
// without a timeline.
func (a *Analyzer) Iterate(ctx context.Context, index int) (*Iteration, error) {
	start := a.clock.Now()
	it := &Iteration{Index: index}
	defer func() {
		it.Duration = a.elapsed(start)
		iterationDuration.Observe(it.Duration.Seconds())
	}()

	if a.opts.Reboot {
		res, err := a.RebootWithShutdown(ctx)
		it.Shutdown = res
		if err != nil {
			return it, err
		}
	}

	kernel, user, attached, err := a.tail(ctx)
	it.Kernel, it.User, it.Attached = kernel, user, attached
	if err != nil {
		return it, err
	}
	if it.TimedOut() {
		slog.Warn("iteration timed out",
			"run_id", a.runID,
			"iteration", index,
			"kernel_remaining", kernel.Remaining,
			"user_remaining", user.Remaining)
		return it, nil
	}

	props, err := a.device.Properties(ctx)
	if err != nil {
		slog.Warn("failed to read boot-time properties", "run_id", a.runID, "error", err)
		props = event.NewValues()
	}
	it.BootTimes = props

	rec, err := a.reconciler.Reconcile(user.Events, kernel.Events)
	it.Reconciled = rec
	if err != nil {
		return it, err
	}

	it.UserDurations = pattern.Reduce(user.Samples, a.library.Timings)
	it.KernelDurations = pattern.Reduce(kernel.Samples, a.library.Timings)
	it.Timeline = timeline.Assemble(rec, props)

	a.print(it)

	it.Requests = a.monitor.Evaluate(monitor.Input{
		UserDurations:   it.UserDurations.Timings,
		KernelDurations: it.KernelDurations.Timings,
		Timeline:        it.Timeline.Values(),
		UserEvents:      user.Events,
	})
	var bootComplete float64
	if e, ok := it.Timeline.Get(monitor.BootCompleteEvent); ok {
		bootComplete = e.Value
	}
	for _, req := range it.Requests {
		slog.Warn("threshold breached, capturing bug report",
			"run_id", a.runID,
			"hint", req.Hint,
			"source", req.Source,
			"value", req.Value)
		path, cerr := a.device.CaptureBugreport(ctx, a.opts.BugreportDir, req.Hint, bootComplete)
		if cerr != nil {
			slog.Error("failed to capture bug report", "run_id", a.runID, "hint", req.Hint, "error", cerr)
			continue
		}
		it.Bugreports = append(it.Bugreports, path)
	}
	return it, nil
}

func (a *Analyzer) print(it *Iteration) {
	if a.out == nil {
		return
	}
	if err := report.WriteBootTimes(a.out, it.BootTimes); err != nil {
		slog.Debug("failed to write boot times", "error", err)
	}
	if a.opts.Timings {
		if err := report.WriteDurations(a.out, "Kernel", it.KernelDurations.Timings); err != nil {
			slog.Debug("failed to write kernel durations", "error", err)
		}
		if err := report.WriteDurations(a.out, "User", it.UserDurations.Timings); err != nil {
			slog.Debug("failed to write user durations", "error", err)
		}
		report.WriteContentions(a.out, it.UserDurations.Contentions)
	}
	if err := report.WriteTimeline(a.out, it.Timeline); err != nil {
		slog.Debug("failed to write timeline", "error", err)
	}
}

// iterateWithRetries repeats an iteration while the clocks cannot be
// correlated, up to the configured retry count.
func (a *Analyzer) iterateWithRetries(ctx context.Context, index int) (*Iteration, error) {
	var (
		it  *Iteration
		err error
	)
	for attempt := 1; attempt <= a.opts.Retries; attempt++ {
		it, err = a.Iterate(ctx, index)
		if it != nil {
			it.Attempt = attempt
		}
		if !errors.HasCode(err, errors.ErrCodeCorrelation) {
			return it, err
		}
		iterationRetriesTotal.Inc()
		slog.Warn("clock domains not correlated, retrying iteration",
			"run_id", a.runID,
			"iteration", index,
			"attempt", attempt,
			"retries", a.opts.Retries,
			"error", err)
	}
	return it, err
}
