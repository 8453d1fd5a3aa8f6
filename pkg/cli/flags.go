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
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/bootanalyze/pkg/config"
	"github.com/NVIDIA/bootanalyze/pkg/defaults"
	"github.com/NVIDIA/bootanalyze/pkg/device"
	"github.com/NVIDIA/bootanalyze/pkg/serializer"
)

const (
	flagLogLevel     = "log-level"
	flagDebug        = "debug"
	flagKubeconfig   = "kubeconfig"
	flagConfig       = "config"
	flagSerial       = "serial"
	flagAdb          = "adb"
	flagIterations   = "iterations"
	flagMaxWait      = "max-wait"
	flagErrorTime    = "error-time"
	flagRetries      = "retries"
	flagReboot       = "reboot"
	flagAdbReboot    = "adb-reboot"
	flagPermissive   = "permissive"
	flagBufferSize   = "buffer-size"
	flagFsCheck      = "fs-check"
	flagCarWatchdog  = "carwatchdog"
	flagMonitor      = "monitor"
	flagIgnore       = "ignore"
	flagTimings      = "timings"
	flagOutputDir    = "output-dir"
	flagBugreportDir = "bugreport-dir"
	flagOutput       = "output"
	flagFormat       = "format"
	flagMetricsFile  = "metrics-file"
)

// globalFlags apply to every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "Enable debug logging, same as --log-level=debug",
		},
		&cli.StringFlag{
			Name:  flagKubeconfig,
			Usage: "Path to kubeconfig used for cm://namespace/name configuration and output",
		},
	}
}

func configFlag(local bool) cli.Flag {
	return &cli.StringFlag{
		Name:    flagConfig,
		Aliases: []string{"c"},
		Usage: `Pattern configuration (YAML or JSON); the embedded default when empty.
	Supports: file paths or ConfigMap URIs (cm://namespace/name).`,
		Sources: cli.EnvVars("BOOTANALYZE_CONFIG"),
		Local:   local,
	}
}

func outputFlags(local bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage: `Write the report to a file or ConfigMap in addition to the table on stdout.
	Supports: file paths or ConfigMap URIs (cm://namespace/name).`,
			Local: local,
		},
		&cli.StringFlag{
			Name:    flagFormat,
			Aliases: []string{"t"},
			Usage:   fmt.Sprintf("Report format for --output (%v)", serializer.SupportedFormats()),
			Value:   string(serializer.FormatYAML),
			Local:   local,
		},
	}
}

// deviceFlags select the device and how it is rebooted.
func deviceFlags(local bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagSerial,
			Aliases: []string{"s"},
			Usage:   "Serial of the device when more than one is attached",
			Sources: cli.EnvVars("ANDROID_SERIAL"),
			Local:   local,
		},
		&cli.StringFlag{
			Name:    flagAdb,
			Usage:   "Path to the adb binary",
			Value:   device.DefaultCommand,
			Sources: cli.EnvVars("BOOTANALYZE_ADB"),
			Local:   local,
		},
		&cli.BoolFlag{
			Name:  flagAdbReboot,
			Usage: "Reboot with 'adb reboot' instead of 'svc power reboot'",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  flagPermissive,
			Usage: "Set SELinux to permissive before rebooting",
			Local: local,
		},
		&cli.StringFlag{
			Name:  flagBufferSize,
			Usage: "Resize the log buffers after each reboot (logcat -G), e.g. 16M",
			Local: local,
		},
		&cli.StringFlag{
			Name:  flagMonitor,
			Usage: "Comma separated name=milliseconds limits; a breach captures a bug report",
			Local: local,
		},
		&cli.StringFlag{
			Name:    flagOutputDir,
			Usage:   "Directory for shutdown logs and car watchdog dumps",
			Value:   ".",
			Sources: cli.EnvVars("BOOTANALYZE_OUTPUT_DIR"),
			Local:   local,
		},
	}
}

// runFlags are the flags of a measurement run. The root command carries them
// as local flags so "bootanalyze" alone behaves like "bootanalyze run".
func runFlags(local bool) []cli.Flag {
	flags := []cli.Flag{
		configFlag(local),
		&cli.IntFlag{
			Name:    flagIterations,
			Aliases: []string{"n"},
			Usage:   "Number of boots to measure; more than one implies --reboot",
			Value:   defaults.Iterations,
			Local:   local,
		},
		&cli.DurationFlag{
			Name:  flagMaxWait,
			Usage: "Budget for each log to show all of its stop events",
			Value: defaults.MaxWaitTime,
			Local: local,
		},
		&cli.FloatFlag{
			Name:  flagErrorTime,
			Usage: "BootComplete time, in seconds, above which a bug report is captured",
			Value: defaults.ErrorTime,
			Local: local,
		},
		&cli.IntFlag{
			Name:  flagRetries,
			Usage: "Attempts per iteration when the two logs cannot be correlated",
			Value: defaults.MaxRetries,
			Local: local,
		},
		&cli.BoolFlag{
			Name:  flagReboot,
			Usage: "Reboot the device before measuring",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  flagFsCheck,
			Usage: "Wait for the userdata fs_stat event and capture a bug report on errors",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  flagCarWatchdog,
			Usage: "Wait for car watchdog boot profiling and dump its stats",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  flagIgnore,
			Usage: "Do not capture a bug report when the boot takes longer than --error-time",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  flagTimings,
			Usage: "Print duration dumps per iteration and in the summary",
			Value: true,
			Local: local,
		},
		&cli.StringFlag{
			Name:  flagBugreportDir,
			Usage: "Directory for captured bug reports; defaults to --output-dir",
			Local: local,
		},
		&cli.StringFlag{
			Name:  flagMetricsFile,
			Usage: "Write run metrics in Prometheus text format to this file",
			Local: local,
		},
	}
	flags = append(flags, deviceFlags(local)...)
	return append(flags, outputFlags(local)...)
}

// optionsFromCmd builds the immutable run options from parsed flags. Flags
// a command does not define keep their defaults.
func optionsFromCmd(cmd *cli.Command) (config.Options, error) {
	opts := config.DefaultOptions()
	opts.Serial = cmd.String(flagSerial)
	opts.AdbReboot = cmd.Bool(flagAdbReboot)
	opts.Permissive = cmd.Bool(flagPermissive)
	opts.BufferSize = cmd.String(flagBufferSize)
	opts.OutputDir = cmd.String(flagOutputDir)
	opts.BugreportDir = cmd.String(flagBugreportDir)

	limits, err := config.ParseLimits(cmd.String(flagMonitor))
	if err != nil {
		return opts, err
	}
	opts.Limits = limits

	if hasFlag(cmd, flagIterations) {
		opts.Iterations = cmd.Int(flagIterations)
		opts.MaxWait = cmd.Duration(flagMaxWait)
		opts.ErrorTime = cmd.Float(flagErrorTime)
		opts.Retries = cmd.Int(flagRetries)
		opts.Reboot = cmd.Bool(flagReboot)
		opts.FsCheck = cmd.Bool(flagFsCheck)
		opts.CarWatchdog = cmd.Bool(flagCarWatchdog)
		opts.Ignore = cmd.Bool(flagIgnore)
		opts.Timings = cmd.Bool(flagTimings)
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts.Normalized(), nil
}

func hasFlag(cmd *cli.Command, name string) bool {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String(flagFormat))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}
