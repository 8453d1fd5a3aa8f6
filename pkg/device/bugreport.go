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
	"os"
	"path/filepath"
	"strconv"

	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
)

const carWatchdogService = "android.automotive.watchdog.ICarWatchdog/default"

// BugreportName returns the artifact name for a capture.
func BugreportName(stamp, hint string, bootComplete float64) string {
	return fmt.Sprintf("bugreport-%s-%s-%s.zip", stamp, hint, strconv.FormatFloat(bootComplete, 'f', -1, 64))
}

// CaptureBugreport stores a bug report in dir and returns its path.
func (a *Adb) CaptureBugreport(ctx context.Context, dir, hint string, bootComplete float64) (string, error) {
	path := filepath.Join(dir, BugreportName(a.now().Format(defaults.FileTimestampLayout), hint, bootComplete))
	slog.Warn("capturing bug report", "hint", hint, "boot_complete", bootComplete, "path", path)

	ctx, cancel := context.WithTimeout(ctx, defaults.BugreportTimeout)
	defer cancel()
	if _, err := a.run(ctx, a.args("bugreport", path)); err != nil {
		return "", err
	}
	deviceBugreportsTotal.Inc()
	return path, nil
}

// CarWatchdogStats dumps the car watchdog boot statistics into dir and returns
// the file path.
func (a *Adb) CarWatchdogStats(ctx context.Context, dir string) (string, error) {
	state, err := a.ShellAsRoot(ctx, "getprop", "init.svc.carwatchdogd")
	if err != nil {
		return "", err
	}
	if state != "running" {
		return "", errors.NewWithContext(errors.ErrCodeUnavailable, "car watchdog is not running on the device",
			map[string]any{"state": state})
	}

	out, err := a.Shell(ctx, "dumpsys", carWatchdogService)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "carwatchdog_dump.txt")
	if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to write car watchdog dump", err)
	}
	return path, nil
}
