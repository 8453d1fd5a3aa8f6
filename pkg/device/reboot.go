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
	"log/slog"
	"regexp"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/NVIDIA/bootanalyze/pkg/errors"
)

// RebootOptions controls how the device is rebooted.
type RebootOptions struct {
	// Permissive puts SELinux into permissive mode before rebooting.
	Permissive bool
	// AdbReboot uses "adb reboot" instead of "svc power reboot".
	AdbReboot bool
	// BufferSize, when set, resizes the log buffers once the device is back.
	BufferSize string
}

// Reboot restarts the device and blocks until it is reachable again. The
// trigger is repeated while the device does not drop off the device list.
func (a *Adb) Reboot(ctx context.Context, opts RebootOptions) error {
	if opts.Permissive {
		if _, err := a.ShellAsRoot(ctx, "setenforce", "0"); err != nil {
			slog.Warn("failed to set permissive mode", "error", err)
		}
	}

	gone := false
	for attempt := 1; attempt <= a.rebootAttempts && !gone; attempt++ {
		deviceRebootAttemptsTotal.Inc()
		ok, err := a.triggerReboot(ctx, opts.AdbReboot)
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeCanceled, "reboot interrupted", ctx.Err())
		}
		if err != nil {
			slog.Warn("reboot trigger failed", "attempt", attempt, "error", err)
			continue
		}
		if !ok {
			slog.Warn("device did not go away after reboot", "attempt", attempt, "timeout", a.pollTimeout)
		}
		gone = ok
	}
	if !gone {
		slog.Warn("device never left the device list, waiting for it anyway",
			"serial", a.serial, "attempts", a.rebootAttempts)
	}

	if err := a.WaitForDevice(ctx); err != nil {
		return err
	}

	if opts.BufferSize != "" {
		if err := a.SetBufferSize(ctx, opts.BufferSize); err != nil {
			slog.Warn("failed to set log buffer size", "size", opts.BufferSize, "error", err)
		}
	}
	return nil
}

// triggerReboot issues one reboot and reports whether the device went away
// within the polling window.
func (a *Adb) triggerReboot(ctx context.Context, useAdbReboot bool) (bool, error) {
	// keep the wall clock where it is so the user log stays comparable
	for _, setting := range []string{"auto_time", "auto_time_zone"} {
		if _, err := a.Shell(ctx, "settings", "put", "global", setting, "0"); err != nil {
			slog.Warn("failed to disable automatic time", "setting", setting, "error", err)
		}
	}

	before, err := a.Devices(ctx)
	if err != nil {
		return false, err
	}

	if useAdbReboot {
		slog.Info("rebooting the device using adb reboot", "serial", a.serial)
		_, err = a.Run(ctx, "reboot")
	} else {
		slog.Info("rebooting the device using svc power reboot", "serial", a.serial)
		_, err = a.ShellAsRoot(ctx, "svc", "power", "reboot")
	}
	if err != nil {
		// the connection often drops before the command returns
		slog.Debug("reboot command returned an error", "error", err)
	}

	var offline *regexp.Regexp
	if a.serial != "" {
		offline = regexp.MustCompile("(?m)" + regexp.QuoteMeta(a.serial) + ".*offline")
	}

	err = wait.PollUntilContextTimeout(ctx, a.pollInterval, a.pollTimeout, true, func(ctx context.Context) (bool, error) {
		current, err := a.Devices(ctx)
		if err != nil {
			slog.Debug("device list unavailable", "error", err)
			return false, nil
		}
		if current == before {
			return false, nil
		}
		return offline == nil || offline.MatchString(current), nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, nil
}
