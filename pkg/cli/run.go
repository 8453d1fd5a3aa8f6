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

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/bootanalyze/pkg/analyzer"
	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/device"
	"github.com/NVIDIA/bootanalyze/pkg/errors"
	"github.com/NVIDIA/bootanalyze/pkg/pattern"
	"github.com/NVIDIA/bootanalyze/pkg/serializer"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Measure one or more boots and print the aggregated report.",
		Description: `Capture the kernel and user logs of the device until the boot completes,
then print the timeline, the boot time properties and the captured
durations. With more than one iteration the device is rebooted before
each measurement and the shutdown of the previous boot is captured too.

Iterations whose logs cannot be correlated are retried up to --retries
times. Iterations that time out are counted as failed and left out of the
report.

Examples:

  bootanalyze run -n 10 --timings=false
  bootanalyze run --config cm://boot/patterns --output report.json --format json
  bootanalyze run --reboot --fs-check --monitor BootComplete=15000`,
		Flags:  runFlags(false),
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	opts, err := optionsFromCmd(cmd)
	if err != nil {
		return err
	}
	kubeconfig := cmd.String(flagKubeconfig)
	lib, err := loadLibrary(cmd.String(flagConfig), kubeconfig)
	if err != nil {
		return err
	}

	dev := device.New(opts.Serial, device.WithCommand(cmd.String(flagAdb)))
	a, err := analyzer.New(opts, lib, dev,
		analyzer.WithOutput(cmd.Root().Writer),
		analyzer.WithVersion(version))
	if err != nil {
		return err
	}

	slog.Info("starting boot analysis",
		"run_id", a.RunID(),
		"serial", opts.Serial,
		"iterations", opts.Iterations,
		"reboot", opts.Reboot)

	rep, runErr := a.Run(ctx)
	if rep != nil {
		if err := rep.RenderTable(cmd.Root().Writer); err != nil {
			slog.Warn("failed to print report", "error", err)
		}
		if err := writeOutput(ctx, cmd, outFormat, rep); err != nil {
			return err
		}
	}
	if err := writeMetrics(cmd.String(flagMetricsFile)); err != nil {
		return err
	}
	return runErr
}

// loadLibrary reads and compiles the pattern configuration at path.
func loadLibrary(path, kubeconfig string) (*pattern.Library, error) {
	f, err := config.LoadWithKubeconfig(path, kubeconfig)
	if err != nil {
		return nil, err
	}
	return pattern.Compile(f)
}

// writeOutput serializes v to --output when it is set.
func writeOutput(ctx context.Context, cmd *cli.Command, format serializer.Format, v any) error {
	path := cmd.String(flagOutput)
	if path == "" {
		return nil
	}
	ser := serializer.NewFileWriterOrStdout(format, path,
		serializer.WithKubeconfig(cmd.String(flagKubeconfig)))
	if c, ok := ser.(serializer.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Warn("failed to close output", "path", path, "error", err)
			}
		}()
	}
	if err := ser.Serialize(ctx, v); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, "failed to write report", err,
			map[string]any{"output": path})
	}
	slog.Info("report written", "output", path, "format", format)
	return nil
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
