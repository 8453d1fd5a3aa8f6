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
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/device"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/header"
	"github.com/NVIDIA/bootanalyze/pkg/monitor"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
)

type fakeProcess struct {
	ch   chan string
	once sync.Once
}

func (p *fakeProcess) Lines() <-chan string { return p.ch }

func (p *fakeProcess) Terminate() error {
	p.once.Do(func() { close(p.ch) })
	return nil
}

type script struct {
	lines []string
	hold  bool
}

type fakeDevice struct {
	mu       sync.Mutex
	scripts  map[event.Channel][]script
	started  map[event.Channel]int
	reboots  []device.RebootOptions
	props    *event.Values
	propsErr error
	hints    []string
	watchdog int
}

func newFakeDevice(props *event.Values) *fakeDevice {
	return &fakeDevice{
		scripts: make(map[event.Channel][]script),
		started: make(map[event.Channel]int),
		props:   props,
	}
}

func (f *fakeDevice) add(ch event.Channel, sc script) *fakeDevice {
	f.scripts[ch] = append(f.scripts[ch], sc)
	return f
}

func (f *fakeDevice) StartLogProcess(_ context.Context, ch event.Channel) (tailer.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.started[ch]
	if n >= len(f.scripts[ch]) {
		return nil, fmt.Errorf("no scripted %s session %d", ch, n)
	}
	f.started[ch] = n + 1
	sc := f.scripts[ch][n]
	p := &fakeProcess{ch: make(chan string, len(sc.lines)+1)}
	for _, l := range sc.lines {
		p.ch <- l
	}
	if !sc.hold {
		p.once.Do(func() { close(p.ch) })
	}
	return p, nil
}

func (f *fakeDevice) WaitForDevice(ctx context.Context) error { return ctx.Err() }

func (f *fakeDevice) Serial() string { return "emulator-5554" }

func (f *fakeDevice) Reboot(_ context.Context, opts device.RebootOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reboots = append(f.reboots, opts)
	return nil
}

func (f *fakeDevice) Properties(context.Context) (*event.Values, error) {
	if f.propsErr != nil {
		return nil, f.propsErr
	}
	return f.props.Clone(), nil
}

func (f *fakeDevice) CaptureBugreport(_ context.Context, dir, hint string, bootComplete float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hints = append(f.hints, hint)
	return filepath.Join(dir, device.BugreportName("stamp", hint, bootComplete)), nil
}

func (f *fakeDevice) CarWatchdogStats(_ context.Context, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchdog++
	return filepath.Join(dir, "carwatchdog_dump.txt"), nil
}

func kl(ts float64, msg string) string {
	return fmt.Sprintf("[%12.6f] %s\n", ts, msg)
}

func ul(ts float64, msg string) string {
	return fmt.Sprintf("%.3f  321  321 I tag: %s\n", ts, msg)
}

func kernelBoot() script {
	return script{lines: []string{
		kl(0, "Linux version 6.1.0"),
		kl(8, "init: Service 'bootanim' (pid 410) exited with status 0"),
		kl(10, "init: processing action (sys.boot_completed=1) from (/system/etc/init/hw/init.rc:1)"),
	}}
}

func userBoot() script {
	return script{lines: []string{
		ul(1000, "Linux version 6.1.0"),
		ul(1005, "SystemServerTiming: StartServices took to complete: 120ms"),
		ul(1008.5, "init: Service 'bootanim' (pid 410) exited with status 0"),
		ul(1012, "ActivityManager: Starting phase 1000"),
		ul(1013, "ActivityTaskManager: START u0 {act=android.intent.action.MAIN cat=[android.intent.category.HOME] cmp=com.android.car.carlauncher/.CarLauncher}"),
	}}
}

func defaultLibrary(t *testing.T) *pattern.Library {
	t.Helper()
	f, err := config.Default()
	require.NoError(t, err)
	lib, err := pattern.Compile(f)
	require.NoError(t, err)
	return lib
}

func testOptions(t *testing.T) config.Options {
	opts := config.DefaultOptions()
	opts.MaxWait = 5 * time.Second
	opts.OutputDir = t.TempDir()
	opts.BugreportDir = opts.OutputDir
	return opts
}

func newAnalyzer(t *testing.T, opts config.Options, dev Device, o ...Option) *Analyzer {
	t.Helper()
	o = append([]Option{WithTailerOptions(tailer.WithReconnectInterval(0)), WithRunID("run-1")}, o...)
	a, err := New(opts, defaultLibrary(t), dev, o...)
	require.NoError(t, err)
	return a
}

func TestIterate(t *testing.T) {
	dev := newFakeDevice(event.ValuesOf(event.Entry{Name: "bootloader", Value: 2}))
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, userBoot())

	var out bytes.Buffer
	a := newAnalyzer(t, testOptions(t), dev, WithOutput(&out))
	it, err := a.Iterate(context.Background(), 0)
	require.NoError(t, err)
	require.False(t, it.TimedOut())
	assert.True(t, it.Attached)
	assert.Nil(t, it.Shutdown)

	tl := it.Timeline
	e, ok := tl.Get("BootAnimEnd")
	require.True(t, ok)
	assert.InDelta(t, 8.0, e.Value, 1e-9)

	e, ok = tl.Get("BootComplete")
	require.True(t, ok)
	assert.InDelta(t, 11.5, e.Value, 1e-9)
	assert.InDelta(t, 1012.0, e.RawUserValue, 1e-9)

	e, ok = tl.Get("LauncherStart")
	require.True(t, ok)
	assert.InDelta(t, 12.5, e.Value, 1e-9)

	e, ok = tl.Get("*BootComplete+Bootloader")
	require.True(t, ok)
	assert.InDelta(t, 13.5, e.Value, 1e-9)

	v, ok := it.UserDurations.Timings.Get("StartServices")
	require.True(t, ok)
	assert.InDelta(t, 120.0, v, 1e-9)

	assert.Empty(t, it.Requests)
	assert.Empty(t, dev.hints)
	assert.Contains(t, out.String(), "BootComplete")
	assert.Contains(t, out.String(), "ro.boottime.*")
}

func TestIterateKernelLogFailsToStart(t *testing.T) {
	dev := newFakeDevice(event.NewValues())
	dev.add(event.ChannelUser, script{lines: userBoot().lines, hold: true})

	a := newAnalyzer(t, testOptions(t), dev)
	it, err := a.Iterate(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTransport))
	require.NotNil(t, it)
	assert.False(t, it.Attached)
	assert.Nil(t, it.Timeline)
}

func TestIterateCapturesBugreportWhenBootTooLong(t *testing.T) {
	dev := newFakeDevice(event.NewValues())
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, userBoot())

	opts := testOptions(t)
	opts.ErrorTime = 10
	a := newAnalyzer(t, opts, dev)

	it, err := a.Iterate(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, it.Requests, 1)
	assert.Equal(t, monitor.HintBootTooLong, it.Requests[0].Hint)
	assert.Equal(t, []string{monitor.HintBootTooLong}, dev.hints)
	require.Len(t, it.Bugreports, 1)
	assert.Contains(t, it.Bugreports[0], "bootuptoolong-11.5.zip")
}

func TestIteratePropertyFailureIsNotFatal(t *testing.T) {
	dev := newFakeDevice(nil)
	dev.propsErr = fmt.Errorf("getprop failed")
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, userBoot())

	it, err := newAnalyzer(t, testOptions(t), dev).Iterate(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, it.BootTimes.Len())
	_, ok := it.Timeline.Get("*BootComplete+Bootloader")
	assert.False(t, ok)
}

func TestIterateWithReboot(t *testing.T) {
	dev := newFakeDevice(event.NewValues())
	dev.add(event.ChannelUser, script{lines: []string{
		ul(500, "ShutdownThread: Shutting down"),
		ul(500.5, "ShutdownThread: Sending shutdown broadcast"),
		ul(501, "ShutdownThread: Shutdown broadcast done"),
	}})
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, userBoot())

	opts := testOptions(t)
	opts.Reboot = true
	opts.Permissive = true
	opts.BufferSize = "16M"

	it, err := newAnalyzer(t, opts, dev).Iterate(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, dev.reboots, 1)
	assert.Equal(t, device.RebootOptions{Permissive: true, BufferSize: "16M"}, dev.reboots[0])

	require.NotNil(t, it.Shutdown)
	d, ok := it.Shutdown.Durations.Get("ShutdownBroadcastDuration")
	require.True(t, ok)
	assert.InDelta(t, 0.5, d, 1e-9)
	assert.NotNil(t, it.Timeline)
}

func TestRunRetriesCorrelationFailure(t *testing.T) {
	unbridged := script{lines: []string{
		ul(1012, "ActivityManager: Starting phase 1000"),
		ul(1013, "ActivityTaskManager: START u0 {cat=[android.intent.category.HOME] cmp=com.android.car.carlauncher/.CarLauncher}"),
	}}
	kernel := script{lines: []string{kl(2, "init: init second stage started!")}}

	dev := newFakeDevice(event.NewValues())
	dev.add(event.ChannelKernel, kernel).add(event.ChannelUser, unbridged)
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, userBoot())

	opts := testOptions(t)
	opts.Retries = 2
	before := testutil.ToFloat64(iterationRetriesTotal)

	rep, err := newAnalyzer(t, opts, dev).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Summary.Accepted)
	assert.Equal(t, 0, rep.Summary.Failed)
	assert.InDelta(t, 1, testutil.ToFloat64(iterationRetriesTotal)-before, 1e-9)
}

func TestRunCountsExhaustedRetriesAsFailed(t *testing.T) {
	unbridged := script{lines: []string{
		ul(1012, "ActivityManager: Starting phase 1000"),
		ul(1013, "ActivityTaskManager: START u0 {cat=[android.intent.category.HOME] cmp=com.android.car.carlauncher/.CarLauncher}"),
	}}
	kernel := script{lines: []string{kl(2, "init: init second stage started!")}}

	dev := newFakeDevice(event.NewValues())
	dev.add(event.ChannelKernel, kernel).add(event.ChannelUser, unbridged)

	opts := testOptions(t)
	opts.Retries = 1

	rep, err := newAnalyzer(t, opts, dev).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Summary.Accepted)
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Empty(t, rep.Timeline)
}

func TestRunExcludesTimedOutIteration(t *testing.T) {
	partial := script{lines: []string{ul(1012, "ActivityManager: Starting phase 1000")}, hold: true}

	dev := newFakeDevice(event.NewValues())
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, partial)

	opts := testOptions(t)
	opts.MaxWait = 100 * time.Millisecond

	rep, err := newAnalyzer(t, opts, dev).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Summary.Accepted)
	assert.Equal(t, 1, rep.Summary.Failed)
}

func TestRunAggregatesAndStampsHeader(t *testing.T) {
	dev := newFakeDevice(event.ValuesOf(event.Entry{Name: "bootloader", Value: 2}))
	dev.add(event.ChannelKernel, kernelBoot()).add(event.ChannelUser, userBoot())

	opts := testOptions(t)
	opts.CarWatchdog = true
	userWithWatchdog := userBoot()
	userWithWatchdog.lines = append(userWithWatchdog.lines,
		ul(1020, "carwatchdogd: Switching to PERIODIC_COLLECTION and PERIODIC_MONITOR"))
	dev.scripts[event.ChannelUser][0] = userWithWatchdog

	a := newAnalyzer(t, opts, dev, WithVersion("v0.1.0"))
	rep, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", a.RunID())
	assert.Equal(t, header.KindBootReport, rep.Kind)
	assert.Equal(t, "run-1", rep.Metadata[header.MetadataRunID])
	assert.Equal(t, "v0.1.0", rep.Metadata[header.MetadataVersion])
	assert.Equal(t, "emulator-5554", rep.Metadata[header.MetadataSerial])
	assert.NotEmpty(t, rep.Metadata[header.MetadataTimestamp])
	assert.Equal(t, 1, rep.Summary.Accepted)
	assert.Equal(t, 1, dev.watchdog)
	assert.NotEmpty(t, rep.UserDurations)
	require.NotEmpty(t, rep.BootTimes)
	assert.Equal(t, "bootloader", rep.BootTimes[0].Name)
}

func TestRunCanceled(t *testing.T) {
	dev := newFakeDevice(event.NewValues())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newAnalyzer(t, testOptions(t), dev).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCanceled))
	require.NotNil(t, rep)
	assert.Equal(t, 0, rep.Summary.Accepted)
}

func TestNewValidates(t *testing.T) {
	opts := config.DefaultOptions()
	opts.Iterations = 0
	_, err := New(opts, defaultLibrary(t), newFakeDevice(nil))
	require.Error(t, err)

	_, err = New(config.DefaultOptions(), nil, newFakeDevice(nil))
	require.Error(t, err)

	lib, err := pattern.Compile(&config.File{Events: config.PatternSet{{Name: "BootComplete", Expr: "phase 1000"}}})
	require.NoError(t, err)
	_, err = New(config.DefaultOptions(), lib, newFakeDevice(nil))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestNormalizedIterationsForceReboot(t *testing.T) {
	opts := testOptions(t)
	opts.Iterations = 3
	a := newAnalyzer(t, opts, newFakeDevice(nil))
	assert.True(t, a.Options().Reboot)
}
