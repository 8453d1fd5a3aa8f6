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
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/device"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/monitor"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/reconcile"
	"github.com/NVIDIA/bootanalyze/pkg/report"
	"github.com/NVIDIA/bootanalyze/pkg/shutdown"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
)

// Stop events of the two channels.
const (
	KernelBootCompleteEvent = "BootComplete_kernel"
	InitSecondStageEvent    = "android_init_2st_stage"
	LauncherStartEvent      = "LauncherStart"
	CarWatchdogEvent        = "CarWatchdogBootupProfilingComplete"
)

// Device is what the analyzer needs from the device bridge.
type Device interface {
	tailer.Transport
	Serial() string
	Reboot(ctx context.Context, opts device.RebootOptions) error
	Properties(ctx context.Context) (*event.Values, error)
	CaptureBugreport(ctx context.Context, dir, hint string, bootComplete float64) (string, error)
	CarWatchdogStats(ctx context.Context, dir string) (string, error)
}

var _ Device = (*device.Adb)(nil)

// Analyzer measures boots on one device.
type Analyzer struct {
	opts       config.Options
	library    *pattern.Library
	device     Device
	reconciler *reconcile.Reconciler
	monitor    *monitor.Monitor

	out        io.Writer
	clock      clock.Clock
	tailerOpts []tailer.Option
	runID      string
	version    string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithOutput sets where per-iteration tables are printed. Nil disables them.
func WithOutput(w io.Writer) Option {
	return func(a *Analyzer) {
		a.out = w
	}
}

// WithClock sets the clock used for iteration timing and the shutdown
// readiness wait.
func WithClock(c clock.Clock) Option {
	return func(a *Analyzer) {
		a.clock = c
	}
}

// WithTailerOptions passes options to every tailer the analyzer creates.
func WithTailerOptions(opts ...tailer.Option) Option {
	return func(a *Analyzer) {
		a.tailerOpts = append(a.tailerOpts, opts...)
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(a *Analyzer) {
		a.runID = id
	}
}

// WithVersion stamps the tool version into the report.
func WithVersion(v string) Option {
	return func(a *Analyzer) {
		a.version = v
	}
}

// New validates opts and checks that the library defines every stop event
// the options call for.
func New(opts config.Options, lib *pattern.Library, dev Device, o ...Option) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if lib == nil || dev == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "analyzer needs a pattern library and a device")
	}
	opts = opts.Normalized()

	a := &Analyzer{
		opts:       opts,
		library:    lib,
		device:     dev,
		reconciler: reconcile.New(lib),
		monitor:    monitor.New(opts, lib.Events),
		clock:      clock.RealClock{},
		runID:      uuid.NewString(),
	}
	for _, fn := range o {
		fn(a)
	}
	if err := lib.RequireEvents(append(a.kernelStopEvents(), a.userStopEvents()...)...); err != nil {
		return nil, err
	}
	return a, nil
}

// RunID identifies this run in logs and the report.
func (a *Analyzer) RunID() string {
	return a.runID
}

// Options returns the normalized run options.
func (a *Analyzer) Options() config.Options {
	return a.opts
}

func (a *Analyzer) kernelStopEvents() []string {
	kernel, _ := StopEvents(a.opts)
	return kernel
}

func (a *Analyzer) userStopEvents() []string {
	_, user := StopEvents(a.opts)
	return user
}

// StopEvents returns the events that end the kernel tail (any one of them)
// and the user tail (all of them) for opts.
func StopEvents(opts config.Options) (kernel, user []string) {
	kernel = []string{KernelBootCompleteEvent, InitSecondStageEvent}
	user = []string{monitor.BootCompleteEvent, LauncherStartEvent}
	if opts.FsCheck {
		user = append(user, monitor.FsStatEvent)
	}
	if opts.CarWatchdog {
		user = append(user, CarWatchdogEvent)
	}
	return kernel, user
}

// RebootWithShutdown reboots the device while collecting its shutdown log.
// The reboot is triggered once the collector listens, or after
// ShutdownReadyTimeout if it never does. A collector failure is logged and
// does not stop the reboot.
func (a *Analyzer) RebootWithShutdown(ctx context.Context) (*shutdown.Result, error) {
	collector := shutdown.New(a.device, a.library.Shutdown, a.opts.Limits, a.opts.OutputDir)

	var res *shutdown.Result
	collected := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(collected)
		r, err := collector.Collect(gctx)
		if err != nil {
			slog.Warn("shutdown collection failed", "run_id", a.runID, "error", err)
		}
		res = r
		return nil
	})

	g.Go(func() error {
		select {
		case <-collector.Ready():
		case <-collected:
		case <-a.clock.After(defaults.ShutdownReadyTimeout):
			slog.Warn("shutdown collector not ready, rebooting anyway", "timeout", defaults.ShutdownReadyTimeout)
		case <-gctx.Done():
			return errors.Wrap(errors.ErrCodeCanceled, "reboot interrupted", gctx.Err())
		}
		return a.device.Reboot(gctx, device.RebootOptions{
			Permissive: a.opts.Permissive,
			AdbReboot:  a.opts.AdbReboot,
			BufferSize: a.opts.BufferSize,
		})
	})

	err := g.Wait()
	if res != nil && a.out != nil {
		if werr := report.WriteShutdown(a.out, res.Events, res.Durations); werr != nil {
			slog.Debug("failed to write shutdown table", "error", werr)
		}
	}
	return res, err
}

// tail runs the kernel and user tailers concurrently. attached reports
// whether both log processes were started.
func (a *Analyzer) tail(ctx context.Context) (kernel, user *tailer.Result, attached bool, err error) {
	kt := tailer.New(a.device, a.library, a.tailerOpts...)
	ut := tailer.New(a.device, a.library, a.tailerOpts...)
	start := a.clock.Now()
	g, gctx := errgroup.WithContext(ctx)

	watched := make(chan bool, 1)
	go func() {
		ok := waitReady(gctx, kt.Ready()) && waitReady(gctx, ut.Ready())
		if ok {
			slog.Info("kernel and user logs attached", "run_id", a.runID, "after", a.elapsed(start))
		}
		watched <- ok
	}()

	g.Go(func() error {
		var terr error
		kernel, terr = kt.Tail(gctx, tailer.Request{
			Channel:                  event.ChannelKernel,
			StopEvents:               a.kernelStopEvents(),
			MaxWait:                  a.opts.MaxWait,
			DisableTimingAfterZygote: true,
		})
		return terr
	})

	g.Go(func() error {
		var terr error
		user, terr = ut.Tail(gctx, tailer.Request{
			Channel:     event.ChannelUser,
			StopEvents:  a.userStopEvents(),
			CollectsAll: true,
			MaxWait:     a.opts.MaxWait,
		})
		return terr
	})

	err = g.Wait()
	attached = <-watched
	return kernel, user, attached, err
}

// waitReady blocks until ready is closed or ctx is done. A channel closed
// by the time ctx ends still counts.
func waitReady(ctx context.Context, ready <-chan struct{}) bool {
	select {
	case <-ready:
		return true
	case <-ctx.Done():
		select {
		case <-ready:
			return true
		default:
			return false
		}
	}
}

func (a *Analyzer) elapsed(start time.Time) time.Duration {
	return a.clock.Since(start)
}
