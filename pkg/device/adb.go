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

package device

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/event"
	"github.com/NVIDIA/bootanalyze/pkg/tailer"
)

// DefaultCommand is the device bridge binary.
const DefaultCommand = "adb"

// logCommands maps each channel to the bridge arguments streaming its log.
var logCommands = map[event.Channel][]string{
	event.ChannelKernel: {"shell", "su", "root", "dmesg", "-w"},
	event.ChannelUser:   {"logcat", "-b", "all", "-v", "epoch"},
}

var _ tailer.Transport = (*Adb)(nil)

// Adb talks to one device through the adb bridge.
type Adb struct {
	serial         string
	command        string
	executor       Executor
	pollInterval   time.Duration
	pollTimeout    time.Duration
	rebootAttempts int
	now            func() time.Time
}

// Option configures an Adb.
type Option func(*Adb)

// WithExecutor replaces the command executor.
func WithExecutor(e Executor) Option {
	return func(a *Adb) {
		a.executor = e
	}
}

// WithCommand sets the bridge binary, "adb" by default.
func WithCommand(command string) Option {
	return func(a *Adb) {
		a.command = command
	}
}

// WithDeviceGonePolling sets how often and for how long the device list is
// checked after a reboot was issued.
func WithDeviceGonePolling(interval, timeout time.Duration) Option {
	return func(a *Adb) {
		a.pollInterval = interval
		a.pollTimeout = timeout
	}
}

// WithRebootAttempts sets how many times the reboot trigger is issued before
// giving up on seeing the device go away.
func WithRebootAttempts(n int) Option {
	return func(a *Adb) {
		a.rebootAttempts = n
	}
}

// New returns an Adb for the device with the given serial. An empty serial
// targets the only attached device.
func New(serial string, opts ...Option) *Adb {
	a := &Adb{
		serial:         serial,
		command:        DefaultCommand,
		executor:       execExecutor{},
		pollInterval:   defaults.DeviceGonePollInterval,
		pollTimeout:    defaults.DeviceGoneTimeout,
		rebootAttempts: defaults.RebootAttempts,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Serial returns the configured device serial.
func (a *Adb) Serial() string {
	return a.serial
}

func (a *Adb) args(args ...string) []string {
	if a.serial == "" {
		return args
	}
	return append([]string{"-s", a.serial}, args...)
}

// Run executes a bridge command bounded by defaults.DeviceCommandTimeout and
// returns its trimmed output.
func (a *Adb) Run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.DeviceCommandTimeout)
	defer cancel()
	return a.run(ctx, a.args(args...))
}

func (a *Adb) run(ctx context.Context, args []string) (string, error) {
	label := commandLabel(args)
	deviceCommandsTotal.WithLabelValues(label).Inc()
	start := time.Now()
	out, err := a.executor.ExecuteCommand(ctx, a.command, args)
	deviceCommandDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	text := strings.TrimSpace(string(out))
	if err != nil {
		deviceCommandErrorsTotal.WithLabelValues(label).Inc()
		if ctx.Err() != nil {
			return text, errors.WrapWithContext(errors.ErrCodeTimeout, "device command did not finish", err,
				map[string]any{"args": strings.Join(args, " ")})
		}
		return text, errors.WrapWithContext(errors.ErrCodeUnavailable, "device command failed", err,
			map[string]any{"args": strings.Join(args, " "), "output": text})
	}
	slog.Debug("device command", "args", strings.Join(args, " "), "duration", time.Since(start))
	return text, nil
}

// Shell runs a command in the device shell.
func (a *Adb) Shell(ctx context.Context, args ...string) (string, error) {
	return a.Run(ctx, append([]string{"shell"}, args...)...)
}

// ShellAsRoot runs a command in the device shell as root.
func (a *Adb) ShellAsRoot(ctx context.Context, args ...string) (string, error) {
	return a.Shell(ctx, append([]string{"su", "root"}, args...)...)
}

// StartLogProcess starts the log stream for ch.
func (a *Adb) StartLogProcess(ctx context.Context, ch event.Channel) (tailer.Process, error) {
	base, ok := logCommands[ch]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("no log command for channel %q", ch))
	}
	args := a.args(base...)
	p, err := a.executor.StreamCommand(ctx, a.command, args)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeTransport, "failed to start log process", err,
			map[string]any{"channel": ch.String(), "args": strings.Join(args, " ")})
	}
	slog.Debug("log process started", "channel", ch.String(), "args", strings.Join(args, " "))
	return p, nil
}

// WaitForDevice blocks until the device is reachable again. It has no
// timeout of its own; ctx carries the caller's budget.
func (a *Adb) WaitForDevice(ctx context.Context) error {
	slog.Info("waiting for device", "serial", a.serial)
	if _, err := a.run(ctx, a.args("wait-for-device")); err != nil {
		return err
	}
	slog.Info("found device", "serial", a.serial)
	return nil
}

// Devices returns the output of "adb devices" for every attached device.
func (a *Adb) Devices(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.DeviceCommandTimeout)
	defer cancel()
	return a.run(ctx, []string{"devices"})
}

// SetBufferSize resizes the device log buffers.
func (a *Adb) SetBufferSize(ctx context.Context, size string) error {
	_, err := a.Run(ctx, "logcat", "-G", size)
	return err
}

func commandLabel(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-s" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}
